package session

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(message string, _ notify.Type) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestSyncer(t *testing.T, cb Callbacks) (*Syncer, *fakeNotifier, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session-state.json"), "tab-a")
	notifier := &fakeNotifier{}
	s := NewSyncer(nil, store, notifier, cb, slog.Default())
	s.loginDelay = 10 * time.Millisecond
	return s, notifier, store
}

func TestSyncerAuthLoss(t *testing.T) {
	t.Run("losing authentication notifies once and schedules login", func(t *testing.T) {
		var loginFired sync.WaitGroup
		loginFired.Add(1)
		s, notifier, store := newTestSyncer(t, Callbacks{
			OnLoginRequired: func() { loginFired.Done() },
		})

		s.apply(&api.SessionState{Authenticated: true}, true)
		s.apply(&api.SessionState{Authenticated: false}, true)

		assert.Equal(t, 1, notifier.count())
		loginFired.Wait()

		// The logout was broadcast for sibling processes.
		b, err := store.Read()
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, BroadcastLogout, b.EventType)
	})

	t.Run("repeated auth-loss signals collapse", func(t *testing.T) {
		s, notifier, _ := newTestSyncer(t, Callbacks{})

		s.apply(&api.SessionState{Authenticated: true}, true)
		s.apply(&api.SessionState{Authenticated: false}, true)
		s.handleAuthLoss()
		s.applyBroadcast(&Broadcast{EventType: BroadcastLogout})

		assert.Equal(t, 1, notifier.count(), "poll and broadcast collapse into one reaction")
	})

	t.Run("cached state is cleared", func(t *testing.T) {
		s, _, _ := newTestSyncer(t, Callbacks{})

		s.apply(&api.SessionState{
			Authenticated: true,
			User:          &api.User{ID: 1, Username: "iolaire"},
		}, true)
		s.apply(&api.SessionState{Authenticated: false}, true)

		current := s.Current()
		require.NotNil(t, current)
		assert.False(t, current.Authenticated)
		assert.Nil(t, current.User)
	})
}

func TestSyncerPlatformChange(t *testing.T) {
	t.Run("platform switch fires callback and broadcasts", func(t *testing.T) {
		var mu sync.Mutex
		var seen []*api.Platform
		s, _, store := newTestSyncer(t, Callbacks{
			OnPlatformChange: func(p *api.Platform) {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, p)
			},
		})

		s.apply(&api.SessionState{
			Authenticated: true,
			Platform:      &api.Platform{ID: 1, Name: "mastodon-main", PlatformType: "mastodon"},
		}, true)
		s.apply(&api.SessionState{
			Authenticated: true,
			Platform:      &api.Platform{ID: 2, Name: "pixelfed-alt", PlatformType: "pixelfed"},
		}, true)

		mu.Lock()
		require.Len(t, seen, 1, "the first snapshot is a baseline, not a change")
		assert.Equal(t, 2, seen[0].ID)
		mu.Unlock()

		b, err := store.Read()
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, BroadcastPlatformChange, b.EventType)
		assert.Equal(t, 2, b.Platform.ID)
	})

	t.Run("remote platform change is not re-broadcast", func(t *testing.T) {
		s, _, store := newTestSyncer(t, Callbacks{})

		s.apply(&api.SessionState{
			Authenticated: true,
			Platform:      &api.Platform{ID: 1, Name: "mastodon-main", PlatformType: "mastodon"},
		}, true)

		// A broadcast from a sibling changes the platform locally but
		// writes nothing back.
		before, err := store.Read()
		require.NoError(t, err)
		s.applyBroadcast(&Broadcast{
			EventType: BroadcastPlatformChange,
			Platform:  &api.Platform{ID: 3, Name: "other", PlatformType: "pixelfed"},
		})
		after, err := store.Read()
		require.NoError(t, err)
		assert.Equal(t, before, after, "applying a remote event writes nothing")
		assert.Equal(t, 3, s.Current().Platform.ID)
	})

	t.Run("identical platform does not fire", func(t *testing.T) {
		fired := 0
		s, _, _ := newTestSyncer(t, Callbacks{
			OnPlatformChange: func(*api.Platform) { fired++ },
		})

		p := &api.Platform{ID: 1, Name: "mastodon-main", PlatformType: "mastodon"}
		s.apply(&api.SessionState{Authenticated: true, Platform: p}, true)
		s.apply(&api.SessionState{Authenticated: true, Platform: p}, true)

		assert.Equal(t, 0, fired)
	})
}

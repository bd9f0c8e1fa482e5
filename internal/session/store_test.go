package session

import (
	"path/filepath"
	"testing"

	"github.com/vedfolnir/console/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) (*Store, *Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session-state.json")
	return NewStore(path, "tab-a"), NewStore(path, "tab-b")
}

func TestStoreRoundTrip(t *testing.T) {
	t.Run("write then read", func(t *testing.T) {
		a, b := newTestStores(t)

		err := a.Write(Broadcast{
			EventType: BroadcastSessionState,
			Session:   &api.SessionState{Authenticated: true},
		})
		require.NoError(t, err)

		got, err := b.Read()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tab-a", got.TabID)
		assert.Equal(t, BroadcastSessionState, got.EventType)
		assert.True(t, got.Session.Authenticated)
		assert.False(t, got.Timestamp.IsZero())
	})

	t.Run("missing file reads as nil", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "absent.json"), "tab-a")
		got, err := s.Read()
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStorePending(t *testing.T) {
	t.Run("own writes are never pending", func(t *testing.T) {
		a, _ := newTestStores(t)

		require.NoError(t, a.Write(Broadcast{EventType: BroadcastLogout}))
		got, err := a.Pending()
		require.NoError(t, err)
		assert.Nil(t, got, "a tab ignores its own broadcasts")
	})

	t.Run("foreign broadcast is applied exactly once", func(t *testing.T) {
		a, b := newTestStores(t)

		require.NoError(t, a.Write(Broadcast{EventType: BroadcastLogout}))

		first, err := b.Pending()
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, BroadcastLogout, first.EventType)

		second, err := b.Pending()
		require.NoError(t, err)
		assert.Nil(t, second, "the same broadcast is not re-delivered")
	})

	t.Run("stale events are rejected", func(t *testing.T) {
		a, b := newTestStores(t)

		require.NoError(t, a.Write(Broadcast{EventType: BroadcastLogout}))
		got, err := b.Pending()
		require.NoError(t, err)
		require.NotNil(t, got)

		// Re-reading the same file content yields nothing new: the
		// timestamp is not newer than the applied watermark.
		stale, err := b.Pending()
		require.NoError(t, err)
		assert.Nil(t, stale)

		// A genuinely newer write is delivered.
		require.NoError(t, a.Write(Broadcast{
			EventType: BroadcastPlatformChange,
			Platform:  &api.Platform{ID: 2, Name: "pixelfed-main", PlatformType: "pixelfed"},
		}))
		fresh, err := b.Pending()
		require.NoError(t, err)
		require.NotNil(t, fresh)
		assert.Equal(t, BroadcastPlatformChange, fresh.EventType)
	})
}

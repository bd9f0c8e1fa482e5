package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/notify"

	"golang.org/x/sync/errgroup"
)

// Notifier is the subset of the notification surface the syncer needs.
type Notifier interface {
	Notify(message string, typ notify.Type)
}

// Callbacks are invoked on meaningful session transitions. All are
// optional; nil callbacks are skipped.
type Callbacks struct {
	// OnPlatformChange fires when the active platform differs from the
	// previously observed one, whether discovered by poll or broadcast.
	OnPlatformChange func(p *api.Platform)
	// OnLoginRequired fires after the login redirect delay once
	// authentication is lost, so the caller can navigate to login.
	OnLoginRequired func()
}

// Syncer mirrors the server-authoritative session into this process and
// the shared state file. The server remains the single source of truth;
// broadcasts only let sibling processes converge without each polling.
type Syncer struct {
	client    *api.Client
	store     *Store
	notifier  Notifier
	callbacks Callbacks
	logger    *slog.Logger

	pollInterval  time.Duration
	watchInterval time.Duration
	loginDelay    time.Duration

	mu      sync.Mutex
	current *api.SessionState
	// loginTimer is tracked so teardown can cancel a pending redirect.
	loginTimer *time.Timer
	authLost   bool
}

// NewSyncer creates a session syncer. notifier and callbacks may be
// zero-valued for headless use.
func NewSyncer(client *api.Client, store *Store, notifier Notifier, cb Callbacks, log *slog.Logger) *Syncer {
	return &Syncer{
		client:        client,
		store:         store,
		notifier:      notifier,
		callbacks:     cb,
		logger:        log,
		pollInterval:  constants.SessionPollInterval,
		watchInterval: constants.SessionWatchInterval,
		loginDelay:    constants.LoginRedirectDelay,
	}
}

// SetPollInterval overrides the server poll interval. It must be called
// before Run.
func (s *Syncer) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// Current returns the last observed session snapshot, or nil before the
// first successful poll.
func (s *Syncer) Current() *api.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Run polls the server and watches the shared state file until the
// context ends. Any pending login redirect timer is cancelled on exit.
func (s *Syncer) Run(ctx context.Context) error {
	defer s.stopLoginTimer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pollLoop(ctx) })
	g.Go(func() error { return s.watchLoop(ctx) })
	return g.Wait()
}

// pollLoop fetches the session snapshot at a fixed interval, starting
// with an immediate poll.
func (s *Syncer) pollLoop(ctx context.Context) error {
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Syncer) pollOnce(ctx context.Context) {
	state, err := s.client.GetSessionState(ctx)
	if err != nil {
		// Transient poll failures keep the last known state; the next
		// tick retries.
		s.logger.Warn("session poll failed", "error", err)
		return
	}
	s.apply(state, true)
}

// watchLoop checks the shared state file for foreign broadcasts. File
// modification time is compared at a short interval rather than using
// inotify, which keeps the watcher portable across platforms and
// network filesystems.
func (s *Syncer) watchLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b, err := s.store.Pending()
			if err != nil {
				s.logger.Warn("session state file unreadable", "error", err)
				continue
			}
			if b == nil {
				continue
			}
			s.applyBroadcast(b)
		}
	}
}

// applyBroadcast reacts to a sibling process's event. Broadcasts are
// never re-broadcast; only locally observed changes are written out.
func (s *Syncer) applyBroadcast(b *Broadcast) {
	s.logger.Debug("applying session broadcast",
		"event_type", b.EventType, "from", b.TabID)

	switch b.EventType {
	case BroadcastSessionState:
		if b.Session != nil {
			s.apply(b.Session, false)
		}
	case BroadcastPlatformChange:
		if b.Platform != nil {
			s.mu.Lock()
			if s.current != nil {
				s.current.Platform = b.Platform
			}
			s.mu.Unlock()
			if s.callbacks.OnPlatformChange != nil {
				s.callbacks.OnPlatformChange(b.Platform)
			}
		}
	case BroadcastLogout:
		s.handleAuthLoss()
	}
}

// apply diffs the new snapshot against the current one field by field
// and reacts to each change. local indicates the snapshot came from this
// process's own poll, in which case changes are broadcast to siblings.
func (s *Syncer) apply(state *api.SessionState, local bool) {
	s.mu.Lock()
	prev := s.current
	s.current = state
	s.mu.Unlock()

	if prev != nil && prev.Authenticated && !state.Authenticated {
		if local {
			if err := s.store.Write(Broadcast{EventType: BroadcastLogout}); err != nil {
				s.logger.Warn("failed to broadcast logout", "error", err)
			}
		}
		s.handleAuthLoss()
		return
	}

	if platformChanged(prev, state) {
		if s.callbacks.OnPlatformChange != nil {
			s.callbacks.OnPlatformChange(state.Platform)
		}
		if local {
			err := s.store.Write(Broadcast{
				EventType: BroadcastPlatformChange,
				Platform:  state.Platform,
			})
			if err != nil {
				s.logger.Warn("failed to broadcast platform change", "error", err)
			}
		}
	}
}

// handleAuthLoss clears the cached session, notifies the user once, and
// schedules the login redirect. Repeated signals (poll plus broadcast)
// collapse into a single reaction.
func (s *Syncer) handleAuthLoss() {
	s.mu.Lock()
	if s.authLost {
		s.mu.Unlock()
		return
	}
	s.authLost = true
	s.current = &api.SessionState{Authenticated: false}

	if s.callbacks.OnLoginRequired != nil {
		s.loginTimer = time.AfterFunc(s.loginDelay, s.callbacks.OnLoginRequired)
	}
	s.mu.Unlock()

	s.logger.Info("session expired, login required")
	if s.notifier != nil {
		s.notifier.Notify("Your session has expired. Please log in again.", notify.TypeWarning)
	}
}

func (s *Syncer) stopLoginTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginTimer != nil {
		s.loginTimer.Stop()
		s.loginTimer = nil
	}
}

// platformChanged reports whether the active platform differs between
// two snapshots by identity, not pointer.
func platformChanged(prev, next *api.SessionState) bool {
	var a, b *api.Platform
	if prev != nil {
		a = prev.Platform
	}
	if next != nil {
		b = next.Platform
	}
	if a == nil && b == nil {
		return false
	}
	if a == nil || b == nil {
		// The very first snapshot establishes a baseline without firing.
		return prev != nil
	}
	return a.ID != b.ID || a.Name != b.Name || a.PlatformType != b.PlatformType
}

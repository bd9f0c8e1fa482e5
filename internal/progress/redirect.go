package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/constants"
)

// Redirector navigates to a URL after a cancellable countdown.
// Cancellation and firing are mutually exclusive: whichever takes the
// lock first wins, and the other becomes a no-op.
type Redirector struct {
	navigate func(url string)
	delay    time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewRedirector creates a redirector. navigate receives the destination
// when the countdown fires.
func NewRedirector(navigate func(url string), log *slog.Logger) *Redirector {
	return &Redirector{
		navigate: navigate,
		delay:    constants.RedirectCountdown,
		logger:   log,
	}
}

// Schedule starts the countdown toward url, replacing any countdown
// already in flight.
func (r *Redirector) Schedule(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.pending = url
	r.logger.Info("navigation scheduled", "url", url, "delay", r.delay)
	r.timer = time.AfterFunc(r.delay, func() { r.fire(url) })
}

// Cancel stops a pending countdown. Returns whether one was pending.
func (r *Redirector) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == "" {
		return false
	}
	r.timer.Stop()
	r.timer = nil
	r.pending = ""
	r.logger.Info("navigation cancelled")
	return true
}

// Pending returns the destination of a countdown in flight, or "".
func (r *Redirector) Pending() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func (r *Redirector) fire(url string) {
	r.mu.Lock()
	// A cancel that won the race already cleared the pending URL.
	if r.pending != url {
		r.mu.Unlock()
		return
	}
	r.pending = ""
	r.timer = nil
	r.mu.Unlock()

	r.navigate(url)
}

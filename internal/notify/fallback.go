package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vedfolnir/console/internal/constants"

	"golang.org/x/time/rate"
)

// Channel is one notification delivery mechanism in the fallback chain.
type Channel interface {
	Name() string
	// Probe checks availability once at startup; it is not re-run per
	// delivery.
	Probe() bool
	Deliver(n Notification) error
}

// Fallback degrades through an ordered list of delivery channels,
// stopping at the first that succeeds. Deliveries are queued (bounded
// FIFO) and drained at a fixed pace to avoid flooding the user.
type Fallback struct {
	logger  *slog.Logger
	queue   chan Notification
	limiter *rate.Limiter

	mu          sync.Mutex
	channels    []Channel
	unavailable map[string]bool
}

// NewFallback probes each channel once and keeps the available ones, in
// preference order.
func NewFallback(channels []Channel, log *slog.Logger) *Fallback {
	f := &Fallback{
		logger:      log,
		queue:       make(chan Notification, constants.FallbackQueueCap),
		limiter:     rate.NewLimiter(rate.Every(constants.FallbackDrainInterval), 1),
		unavailable: make(map[string]bool),
	}
	for _, ch := range channels {
		if ch.Probe() {
			f.channels = append(f.channels, ch)
		} else {
			log.Debug("notification channel unavailable", "channel", ch.Name())
		}
	}
	return f
}

// Notify queues a message for delivery. When the bounded queue is full
// the message is dropped with a log entry; fallback delivery is advisory.
func (f *Fallback) Notify(message string, typ Type) {
	n := Notification{Type: typ, Message: message}
	select {
	case f.queue <- n:
	default:
		f.logger.Warn("fallback notification queue full, dropping", "message", message)
	}
}

// Start drains the queue until the context ends.
func (f *Fallback) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-f.queue:
				if err := f.limiter.Wait(ctx); err != nil {
					return
				}
				f.deliver(n)
			}
		}
	}()
}

// deliver tries each available channel in order, stopping at the first
// success. A failing channel is treated as unavailable for the rest of
// the session (the permission-denied analog) and never re-probed.
func (f *Fallback) deliver(n Notification) {
	f.mu.Lock()
	channels := make([]Channel, len(f.channels))
	copy(channels, f.channels)
	f.mu.Unlock()

	for _, ch := range channels {
		f.mu.Lock()
		skip := f.unavailable[ch.Name()]
		f.mu.Unlock()
		if skip {
			continue
		}

		err := ch.Deliver(n)
		if err == nil {
			f.logger.Debug("notification delivered", "channel", ch.Name())
			return
		}

		f.logger.Warn("notification channel failed, marking unavailable",
			"channel", ch.Name(), "error", err)
		f.mu.Lock()
		f.unavailable[ch.Name()] = true
		f.mu.Unlock()
	}

	f.logger.Error("all notification channels exhausted", "message", n.Message)
}

package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vedfolnir/console/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChannel struct {
	name      string
	available bool

	mu       sync.Mutex
	failures int
	received []Notification
}

func (c *scriptedChannel) Name() string { return c.name }
func (c *scriptedChannel) Probe() bool  { return c.available }

func (c *scriptedChannel) Deliver(n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return errors.New(c.name + " delivery failed")
	}
	c.received = append(c.received, n)
	return nil
}

func (c *scriptedChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestFallbackProbing(t *testing.T) {
	t.Run("unavailable channels are excluded at startup", func(t *testing.T) {
		dead := &scriptedChannel{name: "dead", available: false}
		live := &scriptedChannel{name: "live", available: true}
		f := NewFallback([]Channel{dead, live}, slog.Default())

		f.deliver(Notification{Type: TypeInfo, Message: "hello"})
		assert.Equal(t, 0, dead.count())
		assert.Equal(t, 1, live.count())
	})
}

func TestFallbackDegradation(t *testing.T) {
	t.Run("first failure marks the channel unavailable for the session", func(t *testing.T) {
		flaky := &scriptedChannel{name: "flaky", available: true, failures: 1}
		steady := &scriptedChannel{name: "steady", available: true}
		f := NewFallback([]Channel{flaky, steady}, slog.Default())

		f.deliver(Notification{Message: "first"})
		assert.Equal(t, 1, steady.count(), "delivery degraded to the next channel")

		// flaky would succeed now, but it is never re-probed.
		f.deliver(Notification{Message: "second"})
		assert.Equal(t, 0, flaky.count())
		assert.Equal(t, 2, steady.count())
	})

	t.Run("delivery stops at the first success", func(t *testing.T) {
		first := &scriptedChannel{name: "first", available: true}
		second := &scriptedChannel{name: "second", available: true}
		f := NewFallback([]Channel{first, second}, slog.Default())

		f.deliver(Notification{Message: "only once"})
		assert.Equal(t, 1, first.count())
		assert.Equal(t, 0, second.count())
	})
}

func TestFallbackQueue(t *testing.T) {
	t.Run("overflowing the bounded queue drops, never blocks", func(t *testing.T) {
		ch := &scriptedChannel{name: "ch", available: true}
		f := NewFallback([]Channel{ch}, slog.Default())

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < constants.FallbackQueueCap+5; i++ {
				f.Notify("msg", TypeInfo)
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Notify blocked on a full queue")
		}
		assert.Len(t, f.queue, constants.FallbackQueueCap)
	})

	t.Run("queued notifications drain once started", func(t *testing.T) {
		ch := &scriptedChannel{name: "ch", available: true}
		f := NewFallback([]Channel{ch}, slog.Default())

		f.Notify("queued", TypeWarning)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.Start(ctx)

		require.Eventually(t, func() bool {
			return ch.count() == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}

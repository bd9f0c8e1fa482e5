package progress

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type navRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (n *navRecorder) navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *navRecorder) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.urls))
	copy(out, n.urls)
	return out
}

func newTestRedirector(t *testing.T) (*Redirector, *navRecorder) {
	t.Helper()
	rec := &navRecorder{}
	r := NewRedirector(rec.navigate, slog.Default())
	r.delay = 20 * time.Millisecond
	return r, rec
}

func TestRedirectorSchedule(t *testing.T) {
	t.Run("fires after the countdown", func(t *testing.T) {
		r, rec := newTestRedirector(t)

		r.Schedule("/review/batches")
		assert.Equal(t, "/review/batches", r.Pending())

		assert.Eventually(t, func() bool {
			return len(rec.calls()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "/review/batches", rec.calls()[0])
		assert.Empty(t, r.Pending())
	})

	t.Run("rescheduling replaces the pending countdown", func(t *testing.T) {
		r, rec := newTestRedirector(t)

		r.Schedule("/first")
		r.Schedule("/second")

		assert.Eventually(t, func() bool {
			return len(rec.calls()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"/second"}, rec.calls())
	})
}

func TestRedirectorCancel(t *testing.T) {
	t.Run("cancel prevents navigation", func(t *testing.T) {
		r, rec := newTestRedirector(t)

		r.Schedule("/review/batches")
		assert.True(t, r.Cancel())
		assert.Empty(t, r.Pending())

		time.Sleep(60 * time.Millisecond)
		assert.Empty(t, rec.calls(), "a cancelled countdown never navigates")
	})

	t.Run("cancel without a pending countdown is a no-op", func(t *testing.T) {
		r, _ := newTestRedirector(t)
		assert.False(t, r.Cancel())
	})

	t.Run("cancel after firing reports nothing pending", func(t *testing.T) {
		r, rec := newTestRedirector(t)

		r.Schedule("/review/batches")
		assert.Eventually(t, func() bool {
			return len(rec.calls()) == 1
		}, time.Second, 5*time.Millisecond)

		assert.False(t, r.Cancel(), "firing and cancelling are mutually exclusive")
	})
}

package notify

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRenderer captures renderer calls for assertions.
type recordingRenderer struct {
	mu      sync.Mutex
	shown   []Notification
	updated []Notification
	hidden  []string
}

func (r *recordingRenderer) Show(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return nil
}

func (r *recordingRenderer) Update(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, n)
	return nil
}

func (r *recordingRenderer) Hide(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden = append(r.hidden, id)
}

func newTestCenter(maxActive int) (*Center, *recordingRenderer) {
	r := &recordingRenderer{}
	c := NewCenter(r, maxActive, slog.Default())
	return c, r
}

func TestCenterEviction(t *testing.T) {
	t.Run("evicts oldest by creation time when at capacity", func(t *testing.T) {
		c, r := newTestCenter(3)
		defer c.Close()

		base := time.Now()
		clock := base
		c.now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}

		var ids []string
		for i := 0; i < 3; i++ {
			ids = append(ids, c.Render(Notification{Type: TypeInfo, Message: "n"}))
		}
		require.Len(t, c.Active(), 3)

		newest := c.Render(Notification{Type: TypeInfo, Message: "overflow"})

		active := c.Active()
		assert.Len(t, active, 3)
		assert.NotContains(t, active, ids[0], "oldest should be evicted")
		assert.Contains(t, active, ids[1])
		assert.Contains(t, active, ids[2])
		assert.Contains(t, active, newest)
		assert.Contains(t, r.hidden, ids[0])
	})

	t.Run("newer info evicts older error", func(t *testing.T) {
		c, _ := newTestCenter(1)
		defer c.Close()

		clock := time.Now()
		c.now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}

		errID := c.Render(Notification{Type: TypeError, Message: "bad"})
		infoID := c.Render(Notification{Type: TypeInfo, Message: "fyi"})

		active := c.Active()
		assert.Equal(t, []string{infoID}, active)
		assert.NotContains(t, active, errID)
	})
}

func TestCenterDismiss(t *testing.T) {
	t.Run("dismiss removes notification", func(t *testing.T) {
		c, r := newTestCenter(5)
		defer c.Close()

		id := c.Render(Notification{Type: TypeInfo, Message: "n"})
		c.Dismiss(id)

		assert.Empty(t, c.Active())
		assert.Equal(t, []string{id}, r.hidden)
	})

	t.Run("dismiss is idempotent", func(t *testing.T) {
		c, r := newTestCenter(5)
		defer c.Close()

		id := c.Render(Notification{Type: TypeInfo, Message: "n"})
		c.Dismiss(id)
		c.Dismiss(id)
		c.Dismiss("never-existed")

		assert.Empty(t, c.Active())
		// Only the first dismissal reaches the renderer.
		assert.Equal(t, []string{id}, r.hidden)
	})
}

func TestCenterUpdate(t *testing.T) {
	t.Run("updates progress notification in place", func(t *testing.T) {
		c, r := newTestCenter(5)
		defer c.Close()

		id := c.Render(Notification{Type: TypeProgress, Message: "starting"})
		err := c.Update(id, 42, "processing image 5 of 12")
		require.NoError(t, err)

		require.Len(t, r.updated, 1)
		assert.Equal(t, 42.0, r.updated[0].Progress)
		assert.Equal(t, "processing image 5 of 12", r.updated[0].Message)
		// No new visual element was created.
		assert.Len(t, r.shown, 1)
		assert.Equal(t, []string{id}, c.Active())
	})

	t.Run("rejects update of non-progress notification", func(t *testing.T) {
		c, _ := newTestCenter(5)
		defer c.Close()

		id := c.Render(Notification{Type: TypeInfo, Message: "n"})
		err := c.Update(id, 50, "nope")
		assert.Error(t, err)
	})

	t.Run("rejects update of dismissed notification", func(t *testing.T) {
		c, _ := newTestCenter(5)
		defer c.Close()

		id := c.Render(Notification{Type: TypeProgress, Message: "n"})
		c.Dismiss(id)
		err := c.Update(id, 50, "late")
		assert.Error(t, err)
	})
}

func TestCenterAutoHide(t *testing.T) {
	t.Run("auto-dismisses after duration", func(t *testing.T) {
		c, _ := newTestCenter(5)
		defer c.Close()

		c.Render(Notification{
			Type:     TypeSuccess,
			Message:  "done",
			AutoHide: true,
			Duration: 20 * time.Millisecond,
		})
		require.Len(t, c.Active(), 1)

		assert.Eventually(t, func() bool {
			return len(c.Active()) == 0
		}, time.Second, 10*time.Millisecond)
	})
}

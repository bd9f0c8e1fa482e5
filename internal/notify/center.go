package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/constants"
)

// Renderer is the visual surface notifications are drawn on.
type Renderer interface {
	Show(n Notification) error
	Update(n Notification) error
	Hide(id string)
}

// entry tracks an active notification and its auto-dismiss timer.
type entry struct {
	notification Notification
	timer        *time.Timer
}

// Center owns the active notification set. Insertion beyond the
// configured maximum evicts the oldest notification by creation time.
// Recency wins over severity, so a pending error toast can be evicted
// by a newer info toast.
type Center struct {
	mu        sync.Mutex
	renderer  Renderer
	maxActive int
	// active preserves insertion order, which within one process equals
	// creation order.
	active []*entry
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewCenter creates a notification center. maxActive <= 0 uses the
// default cap.
func NewCenter(renderer Renderer, maxActive int, log *slog.Logger) *Center {
	if maxActive <= 0 {
		maxActive = constants.MaxActiveNotifications
	}
	return &Center{
		renderer:  renderer,
		maxActive: maxActive,
		logger:    log,
		now:       time.Now,
	}
}

// Render inserts a notification, enforcing the active-set cap, and
// schedules auto-dismiss unless disabled. Returns the notification id.
func (c *Center) Render(n Notification) string {
	c.mu.Lock()
	n = n.withDefaults(c.now())

	// Evict oldest-by-creation-time entries until there is room.
	for len(c.active) >= c.maxActive {
		oldest := c.oldestLocked()
		c.removeLocked(oldest.notification.ID, true)
	}

	e := &entry{notification: n}
	if n.AutoHide {
		id := n.ID
		e.timer = time.AfterFunc(n.Duration, func() {
			c.Dismiss(id)
		})
	}
	c.active = append(c.active, e)
	c.mu.Unlock()

	if err := c.renderer.Show(n); err != nil {
		c.logger.Warn("failed to render notification", "id", n.ID, "error", err)
	}
	return n.ID
}

// Dismiss removes a notification immediately. It is idempotent:
// dismissing an unknown or already-dismissed id is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	removed := c.removeLocked(id, false)
	c.mu.Unlock()

	if removed {
		c.renderer.Hide(id)
	}
}

// Update merges progress fields into an active progress notification
// without re-creating the visual element. Non-progress notifications
// reject updates.
func (c *Center) Update(id string, progress float64, message string) error {
	c.mu.Lock()
	e := c.findLocked(id)
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("notification %s is not active", id)
	}
	if e.notification.Type != TypeProgress {
		c.mu.Unlock()
		return fmt.Errorf("notification %s is not a progress notification", id)
	}
	e.notification.Progress = progress
	if message != "" {
		e.notification.Message = message
	}
	n := e.notification
	c.mu.Unlock()

	return c.renderer.Update(n)
}

// Active returns the ids of currently active notifications, oldest first.
func (c *Center) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, len(c.active))
	for i, e := range c.active {
		ids[i] = e.notification.ID
	}
	return ids
}

// Close clears every outstanding auto-dismiss timer. It is part of the
// canonical teardown sequence so timers do not leak across shutdowns.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.active {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.active = nil
}

// oldestLocked returns the entry with the earliest creation time.
func (c *Center) oldestLocked() *entry {
	oldest := c.active[0]
	for _, e := range c.active[1:] {
		if e.notification.CreatedAt.Before(oldest.notification.CreatedAt) {
			oldest = e
		}
	}
	return oldest
}

func (c *Center) findLocked(id string) *entry {
	for _, e := range c.active {
		if e.notification.ID == id {
			return e
		}
	}
	return nil
}

// removeLocked drops an entry and stops its timer. Returns whether the
// id was active. Evictions also hide the visual element.
func (c *Center) removeLocked(id string, evicted bool) bool {
	for i, e := range c.active {
		if e.notification.ID != id {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		c.active = append(c.active[:i], c.active[i+1:]...)
		if evicted {
			c.logger.Debug("evicted oldest notification", "id", id)
			c.renderer.Hide(id)
		}
		return true
	}
	return false
}

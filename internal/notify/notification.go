// Package notify renders transient and persistent user notifications,
// enforcing a bounded active set, and degrades through an ordered list
// of fallback delivery channels when the primary channel is unavailable.
package notify

import (
	"time"

	"github.com/vedfolnir/console/internal/constants"

	"github.com/google/uuid"
)

// Type is the notification kind, driving styling and severity.
type Type string

const (
	TypeSuccess  Type = "success"
	TypeWarning  Type = "warning"
	TypeError    Type = "error"
	TypeInfo     Type = "info"
	TypeProgress Type = "progress"
)

// Action is a user affordance attached to a notification.
type Action struct {
	Label string
	// Tag identifies the action for non-interactive surfaces.
	Tag string
	// Handler runs when the action is invoked; may be nil.
	Handler func()
}

// Notification is one user-facing message.
type Notification struct {
	ID      string
	Type    Type
	Title   string
	Message string
	Actions []Action
	// Progress is the percentage shown for TypeProgress notifications.
	Progress float64
	// AutoHide schedules dismissal after Duration. Persistent
	// notifications set AutoHide false.
	AutoHide  bool
	Duration  time.Duration
	CreatedAt time.Time
}

// withDefaults allocates an id if absent and fills timing defaults.
func (n Notification) withDefaults(now time.Time) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Duration == 0 {
		n.Duration = constants.DefaultNotificationDuration
	}
	return n
}

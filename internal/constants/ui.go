package constants

import "time"

// Notification rendering limits.
const (
	// MaxActiveNotifications caps the active set; inserting beyond the
	// cap evicts the oldest notification by creation time.
	MaxActiveNotifications = 5

	// DefaultNotificationDuration is the auto-dismiss delay for
	// transient notifications.
	DefaultNotificationDuration = 5 * time.Second

	// FallbackQueueCap bounds the fallback delivery queue.
	FallbackQueueCap = 10

	// FallbackDrainInterval paces fallback queue draining so a burst of
	// notifications does not flood the user.
	FallbackDrainInterval = 1 * time.Second
)

// ErrorHistoryCap bounds the classifier's error history; the oldest
// record is evicted past the cap.
const ErrorHistoryCap = 50

// Viewport limits.
const (
	ViewportMinScale  = 0.5
	ViewportMaxScale  = 4.0
	ViewportZoomStep  = 0.1
	ViewportBaseScale = 1.0
)

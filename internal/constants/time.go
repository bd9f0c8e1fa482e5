package constants

import "time"

// MillisecondsPerSecond converts millisecond timestamps to seconds.
const MillisecondsPerSecond = 1000

// Realtime reconnection tuning. The server may override these via the
// client-config endpoint; local configuration overrides both.
const (
	ReconnectBaseDelay   = 1 * time.Second
	ReconnectFactor      = 2
	ReconnectMaxDelay    = 30 * time.Second
	ReconnectMaxAttempts = 5

	// CORSFallbackDelay is the fixed pause before retrying on the
	// polling transport after a cross-origin policy failure.
	CORSFallbackDelay = 2 * time.Second
)

// Session synchronization intervals.
const (
	SessionPollInterval  = 30 * time.Second
	SessionWatchInterval = 1 * time.Second
	LoginRedirectDelay   = 2 * time.Second
)

// Task progress intervals.
const (
	ProgressPollInterval   = 2 * time.Second
	ProgressStalenessGuard = 10 * time.Second
	RedirectCountdown      = 5 * time.Second
)

// CSRFTokenTTL is the default lifetime of a cached CSRF token.
const CSRFTokenTTL = 55 * time.Minute

// RedirectInfoTTL is the lifetime of cached per-task redirect info.
const RedirectInfoTTL = 10 * time.Minute

// CSRFRetryBackoff is the linear backoff unit between CSRF retries.
const CSRFRetryBackoff = 250 * time.Millisecond

package realtime

import (
	"time"

	"github.com/vedfolnir/console/internal/constants"
)

// Backoff computes capped exponential reconnection delays.
type Backoff struct {
	Base   time.Duration
	Factor int
	Max    time.Duration
	// SlowNetwork extends delays for detected slow or metered networks.
	SlowNetwork bool
}

// DefaultBackoff returns the standard tuning (1s base, factor 2, 30s cap).
func DefaultBackoff() Backoff {
	return Backoff{
		Base:   constants.ReconnectBaseDelay,
		Factor: constants.ReconnectFactor,
		Max:    constants.ReconnectMaxDelay,
	}
}

// Delay returns the delay before the given attempt (1-based):
// base * factor^(attempt-1), capped at Max. Attempts 1..5 with the
// default tuning yield 1s, 2s, 4s, 8s, 16s.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= time.Duration(b.Factor)
		if d >= b.Max {
			d = b.Max
			break
		}
	}
	if d > b.Max {
		d = b.Max
	}

	if b.SlowNetwork {
		d = d * 3 / 2
		if d > b.Max {
			d = b.Max
		}
	}

	return d
}

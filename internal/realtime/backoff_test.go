package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	t.Run("capped exponential sequence", func(t *testing.T) {
		b := DefaultBackoff()

		expected := []time.Duration{
			1000 * time.Millisecond,
			2000 * time.Millisecond,
			4000 * time.Millisecond,
			8000 * time.Millisecond,
			16000 * time.Millisecond,
		}
		for i, want := range expected {
			assert.Equal(t, want, b.Delay(i+1), "attempt %d", i+1)
		}
	})

	t.Run("delay never exceeds the cap", func(t *testing.T) {
		b := DefaultBackoff()

		assert.Equal(t, 30*time.Second, b.Delay(6))
		assert.Equal(t, 30*time.Second, b.Delay(10))
		assert.Equal(t, 30*time.Second, b.Delay(100))
	})

	t.Run("attempt one restarts the sequence after reset", func(t *testing.T) {
		b := DefaultBackoff()

		// The backoff is stateless; a reset attempt counter of 1 yields
		// the base delay again.
		_ = b.Delay(5)
		assert.Equal(t, b.Base, b.Delay(1))
	})

	t.Run("slow network stretches delays within the cap", func(t *testing.T) {
		b := DefaultBackoff()
		b.SlowNetwork = true

		assert.Equal(t, 1500*time.Millisecond, b.Delay(1))
		assert.Equal(t, 3*time.Second, b.Delay(2))
		assert.Equal(t, 30*time.Second, b.Delay(10))
	})
}

package viewport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestViewportScale(t *testing.T) {
	t.Run("starts at the base scale", func(t *testing.T) {
		v := New()
		assert.Equal(t, 1.0, v.Scale())
	})

	t.Run("scale is clamped to the allowed range", func(t *testing.T) {
		v := New()

		assert.Equal(t, 4.0, v.SetScale(7.3))
		assert.Equal(t, 0.5, v.SetScale(0.1))
		assert.Equal(t, 1.7, v.SetScale(1.7))
	})

	t.Run("steps move by a fixed increment", func(t *testing.T) {
		v := New()

		assert.InDelta(t, 1.1, v.StepIn(), 1e-9)
		assert.InDelta(t, 1.2, v.StepIn(), 1e-9)
		assert.InDelta(t, 1.1, v.StepOut(), 1e-9)
	})

	t.Run("stepping past the bounds sticks to them", func(t *testing.T) {
		v := New()

		v.SetScale(4.0)
		assert.Equal(t, 4.0, v.StepIn())

		v.SetScale(0.5)
		assert.Equal(t, 0.5, v.StepOut())
	})

	t.Run("wheel delta scales the step", func(t *testing.T) {
		v := New()

		assert.InDelta(t, 1.3, v.Wheel(3), 1e-9)
		assert.InDelta(t, 1.0, v.Wheel(-3), 1e-9)
	})
}

func TestViewportPanAndReset(t *testing.T) {
	t.Run("pan accumulates offsets", func(t *testing.T) {
		v := New()

		v.Pan(10, -5)
		tr := v.Pan(2, 3)
		assert.Equal(t, 12.0, tr.PanX)
		assert.Equal(t, -2.0, tr.PanY)
	})

	t.Run("reset restores base scale and centers", func(t *testing.T) {
		v := New()
		v.SetScale(2.5)
		v.Pan(40, 40)

		v.Reset()
		tr := v.Transform()
		assert.Equal(t, 1.0, tr.Scale)
		assert.Equal(t, 0.0, tr.PanX)
		assert.Equal(t, 0.0, tr.PanY)
	})

	t.Run("change callback fires on every mutation", func(t *testing.T) {
		var calls int
		v := New(WithOnChange(func(Transform) { calls++ }))

		v.SetScale(2)
		v.Pan(1, 1)
		v.Reset()
		assert.Equal(t, 3, calls)
	})
}

func TestViewportDoubleTap(t *testing.T) {
	t.Run("two quick taps reset the view", func(t *testing.T) {
		v := New()
		clock := time.Now()
		v.now = func() time.Time { return clock }

		v.SetScale(3)
		v.Pan(10, 10)

		assert.False(t, v.Tap(), "first tap arms, does not reset")
		clock = clock.Add(100 * time.Millisecond)
		assert.True(t, v.Tap())

		tr := v.Transform()
		assert.Equal(t, 1.0, tr.Scale)
		assert.Equal(t, 0.0, tr.PanX)
	})

	t.Run("slow taps do not reset", func(t *testing.T) {
		v := New()
		clock := time.Now()
		v.now = func() time.Time { return clock }

		v.SetScale(3)
		assert.False(t, v.Tap())
		clock = clock.Add(time.Second)
		assert.False(t, v.Tap())
		assert.Equal(t, 3.0, v.Scale())
	})

	t.Run("triple tap resets only once", func(t *testing.T) {
		v := New()
		clock := time.Now()
		v.now = func() time.Time { return clock }

		assert.False(t, v.Tap())
		clock = clock.Add(50 * time.Millisecond)
		assert.True(t, v.Tap())
		clock = clock.Add(50 * time.Millisecond)
		assert.False(t, v.Tap(), "the reset tap disarms the window")
	})
}

// Package viewport implements the pan and zoom state for image review.
// It is pure state; rendering decides how to apply the transform.
package viewport

import (
	"sync"
	"time"

	"github.com/vedfolnir/console/internal/constants"
)

// doubleTapWindow is the maximum gap between two taps that counts as a
// double tap.
const doubleTapWindow = 300 * time.Millisecond

// Transform is the current view transform.
type Transform struct {
	Scale float64
	PanX  float64
	PanY  float64
}

// Viewport holds pan and zoom state with scale clamped to a fixed
// range. All mutations are safe for concurrent use.
type Viewport struct {
	mu       sync.Mutex
	scale    float64
	panX     float64
	panY     float64
	lastTap  time.Time
	onChange func(Transform)
	now      func() time.Time
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithOnChange registers a callback invoked after every transform
// change, for redraws.
func WithOnChange(fn func(Transform)) Option {
	return func(v *Viewport) { v.onChange = fn }
}

// New creates a viewport at the base scale with no pan offset.
func New(opts ...Option) *Viewport {
	v := &Viewport{
		scale: constants.ViewportBaseScale,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Transform returns the current transform.
func (v *Viewport) Transform() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Transform{Scale: v.scale, PanX: v.panX, PanY: v.panY}
}

// Scale returns the current zoom scale.
func (v *Viewport) Scale() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scale
}

// SetScale sets the zoom scale, clamped to the allowed range, and
// returns the applied value.
func (v *Viewport) SetScale(scale float64) float64 {
	v.mu.Lock()
	v.scale = clamp(scale)
	t := Transform{Scale: v.scale, PanX: v.panX, PanY: v.panY}
	v.mu.Unlock()

	v.changed(t)
	return t.Scale
}

// StepIn zooms in one step.
func (v *Viewport) StepIn() float64 {
	return v.SetScale(v.Scale() + constants.ViewportZoomStep)
}

// StepOut zooms out one step.
func (v *Viewport) StepOut() float64 {
	return v.SetScale(v.Scale() - constants.ViewportZoomStep)
}

// Wheel applies a scroll-wheel delta: positive zooms in, negative out.
// The step scales with the delta magnitude so fast scrolls zoom faster.
func (v *Viewport) Wheel(delta float64) float64 {
	return v.SetScale(v.Scale() + delta*constants.ViewportZoomStep)
}

// Pan shifts the view by (dx, dy) in rendered coordinates.
func (v *Viewport) Pan(dx, dy float64) Transform {
	v.mu.Lock()
	v.panX += dx
	v.panY += dy
	t := Transform{Scale: v.scale, PanX: v.panX, PanY: v.panY}
	v.mu.Unlock()

	v.changed(t)
	return t
}

// Reset restores the base scale and centers the view.
func (v *Viewport) Reset() {
	v.mu.Lock()
	v.scale = constants.ViewportBaseScale
	v.panX = 0
	v.panY = 0
	t := Transform{Scale: v.scale}
	v.mu.Unlock()

	v.changed(t)
}

// Tap registers a tap; two taps within the double-tap window reset the
// view. Returns whether a reset happened.
func (v *Viewport) Tap() bool {
	v.mu.Lock()
	now := v.now()
	double := !v.lastTap.IsZero() && now.Sub(v.lastTap) <= doubleTapWindow
	if double {
		v.lastTap = time.Time{}
	} else {
		v.lastTap = now
	}
	v.mu.Unlock()

	if double {
		v.Reset()
	}
	return double
}

func (v *Viewport) changed(t Transform) {
	if v.onChange != nil {
		v.onChange(t)
	}
}

func clamp(scale float64) float64 {
	if scale < constants.ViewportMinScale {
		return constants.ViewportMinScale
	}
	if scale > constants.ViewportMaxScale {
		return constants.ViewportMaxScale
	}
	return scale
}

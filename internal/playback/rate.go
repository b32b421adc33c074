package playback

import "time"

// Hysteresis band and correction factors for the adaptive controller. Ticks
// landing within [0.8, 1.5] of the target interval leave the effective rate
// alone; corrections are multiplicative so behaviour is uniform across the
// configured rate range.
const (
	slowThreshold = 1.5
	fastThreshold = 0.8
	slowFactor    = 0.9
	fastFactor    = 1.1
)

// Controller adapts the effective frame rate to the observed tick cadence.
// It corrects only when the actual interval falls outside the hysteresis
// band around the requested interval, and keeps the effective rate clamped to
// [min, max].
type Controller struct {
	min       float64
	max       float64
	requested float64
	effective float64
}

// NewController builds a controller with the given bounds and requested rate.
// Degenerate bounds are repaired rather than rejected.
func NewController(min, max, requested float64) *Controller {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	c := &Controller{min: min, max: max}
	c.SetRequested(requested)
	return c
}

// SetRequested clamps fps into [min, max], makes it the new requested rate,
// and resets the effective rate to it. Returns the applied value.
func (c *Controller) SetRequested(fps float64) float64 {
	c.requested = c.clamp(fps)
	c.effective = c.requested
	return c.requested
}

// Requested returns the clamped requested rate.
func (c *Controller) Requested() float64 { return c.requested }

// Effective returns the rate currently in use.
func (c *Controller) Effective() float64 { return c.effective }

// Min returns the lower rate bound.
func (c *Controller) Min() float64 { return c.min }

// Max returns the upper rate bound.
func (c *Controller) Max() float64 { return c.max }

// Interval returns the timer period for the effective rate.
func (c *Controller) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.effective)
}

// Observe feeds one measured tick interval into the controller. Slow ticks
// shrink the effective rate, fast ticks grow it, and anything inside the
// hysteresis band leaves it unchanged.
func (c *Controller) Observe(actual time.Duration) {
	target := time.Duration(float64(time.Second) / c.requested)
	switch {
	case actual > time.Duration(slowThreshold*float64(target)):
		c.effective = c.clamp(c.effective * slowFactor)
	case actual < time.Duration(fastThreshold*float64(target)):
		c.effective = c.clamp(c.effective * fastFactor)
	}
}

// Reset returns the effective rate to the requested rate.
func (c *Controller) Reset() {
	c.effective = c.requested
}

// SetBounds installs new rate bounds, repairing inverted or non-positive
// values the same way NewController does, and re-clamps both rates.
func (c *Controller) SetBounds(min, max float64) {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	c.min = min
	c.max = max
	c.requested = c.clamp(c.requested)
	c.effective = c.clamp(c.effective)
}

func (c *Controller) clamp(fps float64) float64 {
	if fps < c.min {
		return c.min
	}
	if fps > c.max {
		return c.max
	}
	return fps
}

// Window accumulates tick counts over roughly one-second spans to report an
// observed frame rate. The reading is telemetry only and never feeds back
// into the Controller.
type Window struct {
	span     time.Duration
	start    time.Time
	frames   int
	observed float64
}

// NewWindow creates a sampler over the default one-second span.
func NewWindow() *Window {
	return &Window{span: time.Second}
}

// Reset discards the running count and starts a fresh window at now.
func (w *Window) Reset(now time.Time) {
	w.start = now
	w.frames = 0
}

// Tick records one displayed frame. When the window has filled, it publishes
// the measured rate and rolls over.
func (w *Window) Tick(now time.Time) {
	if w.start.IsZero() {
		w.start = now
	}
	w.frames++
	elapsed := now.Sub(w.start)
	if elapsed >= w.span {
		w.observed = float64(w.frames) / elapsed.Seconds()
		w.start = now
		w.frames = 0
	}
}

// Observed returns the rate measured by the last completed window, or zero
// before the first window fills.
func (w *Window) Observed() float64 { return w.observed }

package input

import (
	"math"
	"time"
)

// Momentum parameters: the release velocity (frames/second) is scaled into a
// bounded number of extra steps, issued with a growing interval so the scrub
// visibly decays.
const (
	momentumScale        = 0.2
	momentumMaxSteps     = 24
	momentumBaseInterval = 40 * time.Millisecond
	momentumDecay        = 1.15
	velocitySmoothing    = 0.5
)

// Momentum is the post-release step schedule computed from leftover gesture
// velocity. The engine replays it through the ordinary step entry point, one
// step per timer fire, so momentum cannot bypass boundary handling.
type Momentum struct {
	Direction int
	Steps     int
	Interval  time.Duration
	Decay     float64
}

// IsZero reports whether the gesture ended without leftover velocity.
func (m Momentum) IsZero() bool { return m.Steps == 0 }

// Touch accumulates drag displacement into frame steps and estimates gesture
// velocity for momentum. Positive displacement scrubs forward.
type Touch struct {
	sensitivity float64
	active      bool
	lastPos     float64
	lastTime    time.Time
	residual    float64
	velocity    float64
}

// NewTouch creates a translator with the given sensitivity (frames per unit
// of displacement). Non-positive values fall back to 1.
func NewTouch(sensitivity float64) *Touch {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return &Touch{sensitivity: sensitivity}
}

// Active reports whether a drag is in progress.
func (t *Touch) Active() bool { return t.active }

// Begin starts a drag at pos. Any previous gesture state is discarded.
func (t *Touch) Begin(pos float64, now time.Time) {
	t.active = true
	t.lastPos = pos
	t.lastTime = now
	t.residual = 0
	t.velocity = 0
}

// Move advances the drag to pos and returns the whole frame steps the engine
// should apply immediately. Fractional movement carries over to the next call.
func (t *Touch) Move(pos float64, now time.Time) int {
	if !t.active {
		return 0
	}
	delta := (pos - t.lastPos) * t.sensitivity
	if dt := now.Sub(t.lastTime).Seconds(); dt > 0 {
		instant := delta / dt
		t.velocity = velocitySmoothing*instant + (1-velocitySmoothing)*t.velocity
	}
	t.lastPos = pos
	t.lastTime = now

	t.residual += delta
	steps := int(t.residual)
	t.residual -= float64(steps)
	return steps
}

// End finishes the drag and converts leftover velocity into a momentum plan.
// Ending an inactive translator returns a zero plan.
func (t *Touch) End(now time.Time) Momentum {
	if !t.active {
		return Momentum{}
	}
	t.active = false

	// Stale gestures carry no momentum: a finger that rested before lifting
	// should not keep scrubbing.
	if now.Sub(t.lastTime) > 100*time.Millisecond {
		t.velocity = 0
	}

	steps := int(math.Abs(t.velocity) * momentumScale)
	if steps > momentumMaxSteps {
		steps = momentumMaxSteps
	}
	if steps == 0 {
		return Momentum{}
	}
	direction := 1
	if t.velocity < 0 {
		direction = -1
	}
	return Momentum{
		Direction: direction,
		Steps:     steps,
		Interval:  momentumBaseInterval,
		Decay:     momentumDecay,
	}
}

// Cancel drops the gesture without producing momentum.
func (t *Touch) Cancel() {
	t.active = false
	t.residual = 0
	t.velocity = 0
}

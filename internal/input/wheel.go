package input

import "math"

// Wheel converts scroll deltas into signed frame steps. Direction follows the
// sign of the delta; sensitivity scales multi-notch events into larger step
// counts without ever swallowing a single notch.
type Wheel struct {
	sensitivity float64
}

// NewWheel creates a translator with the given sensitivity. Non-positive
// values fall back to 1.
func NewWheel(sensitivity float64) *Wheel {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return &Wheel{sensitivity: sensitivity}
}

// Steps returns the step count for one wheel event. A non-zero delta always
// produces at least one step in its direction.
func (w *Wheel) Steps(delta float64) int {
	if delta == 0 {
		return 0
	}
	steps := int(math.Abs(delta) * w.sensitivity)
	if steps < 1 {
		steps = 1
	}
	if delta < 0 {
		return -steps
	}
	return steps
}

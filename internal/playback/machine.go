package playback

import (
	"time"

	"cine/internal/frameindex"
)

// State is the scheduler lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
)

// Machine is the cine playback state machine: Stopped/Playing plus mode,
// direction, and the adaptive rate controller. It owns no timers; the engine
// arms the clock and feeds ticks in, so the machine stays synchronous and
// directly testable.
type Machine struct {
	state     State
	mode      Mode
	direction Direction
	rate      *Controller
	window    *Window
	lastTick  time.Time
}

// NewMachine builds a stopped machine with the supplied rate bounds, requested
// rate, mode, and direction. Unknown mode or direction values fall back to
// loop/forward.
func NewMachine(min, max, requested float64, mode Mode, direction Direction) *Machine {
	if _, ok := modeSet[mode]; !ok {
		mode = ModeLoop
	}
	if direction != DirectionBackward {
		direction = DirectionForward
	}
	return &Machine{
		state:     StateStopped,
		mode:      mode,
		direction: direction,
		rate:      NewController(min, max, requested),
		window:    NewWindow(),
	}
}

// Playing reports whether the machine is in the Playing state.
func (m *Machine) Playing() bool { return m.state == StatePlaying }

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Mode returns the playback mode.
func (m *Machine) Mode() Mode { return m.mode }

// SetMode switches the playback mode; unknown values are ignored.
func (m *Machine) SetMode(mode Mode) {
	if _, ok := modeSet[mode]; ok {
		m.mode = mode
	}
}

// Direction returns the travel direction.
func (m *Machine) Direction() Direction { return m.direction }

// SetDirection switches the travel direction; unknown values are ignored.
func (m *Machine) SetDirection(d Direction) {
	if d == DirectionForward || d == DirectionBackward {
		m.direction = d
	}
}

// FlipDirection reverses the travel direction. Bounce reflections use this.
func (m *Machine) FlipDirection() {
	m.direction = m.direction.Opposite()
}

// Play transitions Stopped to Playing, anchoring the tick clock and resetting
// the observed-rate window. It reports whether the transition happened;
// calling Play while already playing is a no-op.
func (m *Machine) Play(now time.Time) bool {
	if m.state == StatePlaying {
		return false
	}
	m.state = StatePlaying
	m.lastTick = now
	m.window.Reset(now)
	return true
}

// Stop transitions Playing to Stopped exactly once. Pause, a once-mode
// boundary, and detach all funnel through here; re-entrant calls report false
// and change nothing.
func (m *Machine) Stop() bool {
	if m.state == StateStopped {
		return false
	}
	m.state = StateStopped
	return true
}

// TickResult tells the engine how to move the index for one cine tick.
type TickResult struct {
	Delta    int
	Boundary frameindex.Boundary
}

// Tick processes one timer fire at now: it feeds the measured interval to the
// rate controller, counts the frame for telemetry, and returns the step the
// index store should take. Callers must only tick a playing machine.
func (m *Machine) Tick(now time.Time) TickResult {
	if !m.lastTick.IsZero() {
		m.rate.Observe(now.Sub(m.lastTick))
	}
	m.lastTick = now
	m.window.Tick(now)
	return TickResult{Delta: m.direction.Delta(), Boundary: m.mode.Boundary()}
}

// Interval returns the period the next tick timer should be armed with.
func (m *Machine) Interval() time.Duration {
	return m.rate.Interval()
}

// SetRequestedRate clamps and applies a new requested rate, resetting the
// effective rate with it. Returns the applied value.
func (m *Machine) SetRequestedRate(fps float64) float64 {
	return m.rate.SetRequested(fps)
}

// SetRateBounds installs new min/max rate bounds and re-clamps the current
// rates into them.
func (m *Machine) SetRateBounds(min, max float64) {
	m.rate.SetBounds(min, max)
}

// RequestedRate returns the clamped requested rate.
func (m *Machine) RequestedRate() float64 { return m.rate.Requested() }

// EffectiveRate returns the adaptively corrected rate in use.
func (m *Machine) EffectiveRate() float64 { return m.rate.Effective() }

// ObservedRate returns the telemetry rate from the last completed window.
func (m *Machine) ObservedRate() float64 { return m.window.Observed() }

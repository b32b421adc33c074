package engine

import (
	"time"

	"cine/internal/input"
)

// HandleKey routes one key press through the keyboard translator. Events are
// dropped while no surface is bound or the keyboard channel is disabled.
func (e *Engine) HandleKey(key string) {
	e.mu.Lock()
	if e.detached || e.surface == "" || !e.opts.EnableKeyboard {
		e.mu.Unlock()
		return
	}
	action, ok := e.keyboard.Translate(key)
	e.mu.Unlock()
	if !ok {
		return
	}
	switch action {
	case input.ActionNext:
		e.NextSlice(false)
	case input.ActionPrevious:
		e.PreviousSlice(false)
	case input.ActionFirst:
		e.FirstSlice()
	case input.ActionLast:
		e.LastSlice()
	case input.ActionTogglePlay:
		e.TogglePlay()
	}
}

// TogglePlay starts playback when stopped and pauses it when playing.
func (e *Engine) TogglePlay() {
	if e.IsPlaying() {
		e.Pause()
	} else {
		e.Play()
	}
}

// BindKey installs or replaces one key binding on the keyboard translator.
func (e *Engine) BindKey(key string, action input.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	e.keyboard.Bind(key, action)
}

// UnbindKey removes one key binding.
func (e *Engine) UnbindKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	e.keyboard.Unbind(key)
}

// HandleWheel translates one wheel event into steps, each applied through the
// index store under the configured boundary behavior.
func (e *Engine) HandleWheel(delta float64) {
	e.mu.Lock()
	if e.detached || e.surface == "" || !e.opts.EnableMouseWheel {
		e.mu.Unlock()
		return
	}
	steps := e.wheel.Steps(delta)
	if steps == 0 {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	events, prefetchAt := e.applyStepsLocked(events, steps)
	e.finishMutationLocked(events, prefetchAt)
}

// applyStepsLocked applies a signed step count one frame at a time so every
// step funnels through boundary handling. Returns the grown event list and
// the last moved index, or -1.
func (e *Engine) applyStepsLocked(events []Event, steps int) ([]Event, int) {
	delta := 1
	if steps < 0 {
		delta = -1
		steps = -steps
	}
	prefetchAt := -1
	for i := 0; i < steps; i++ {
		ch := e.store.Step(delta, e.opts.BoundaryBehavior)
		if ch.FlipDirection {
			e.machine.FlipDirection()
			delta = -delta
		}
		events = append(events, changeEvents(ch)...)
		if ch.Moved {
			prefetchAt = ch.Index
		}
		if ch.Boundary {
			// Stop behavior: further steps in this burst would only repeat
			// the edge hit.
			break
		}
	}
	return events, prefetchAt
}

// TouchBegin starts a drag gesture, superseding any running animation or
// momentum.
func (e *Engine) TouchBegin(pos float64) {
	e.mu.Lock()
	if e.detached || e.surface == "" || !e.opts.EnableTouch {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	e.cancelMomentumLocked()
	e.touch.Begin(pos, e.clock.Now())
	e.finishMutationLocked(events, -1)
}

// TouchMove feeds a drag position update, applying any whole steps the
// accumulated displacement covers.
func (e *Engine) TouchMove(pos float64) {
	e.mu.Lock()
	if e.detached || e.surface == "" || !e.opts.EnableTouch {
		e.mu.Unlock()
		return
	}
	steps := e.touch.Move(pos, e.clock.Now())
	if steps == 0 {
		e.mu.Unlock()
		return
	}
	events, prefetchAt := e.applyStepsLocked(nil, steps)
	e.finishMutationLocked(events, prefetchAt)
}

// TouchEnd finishes a drag gesture. Leftover velocity becomes a decaying
// momentum sequence of single steps on the clock, unless momentum is
// disabled.
func (e *Engine) TouchEnd() {
	e.mu.Lock()
	if e.detached || e.surface == "" || !e.opts.EnableTouch {
		e.mu.Unlock()
		return
	}
	plan := e.touch.End(e.clock.Now())
	if !e.opts.EnableMomentum || plan.IsZero() {
		e.mu.Unlock()
		return
	}
	e.startMomentumLocked(plan)
	e.mu.Unlock()
}

// TouchCancel abandons a drag gesture without momentum.
func (e *Engine) TouchCancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch.Cancel()
}

// cancelMomentumLocked invalidates any running momentum chain.
func (e *Engine) cancelMomentumLocked() {
	e.momentumGen++
	if e.momentumTimer != nil {
		e.momentumTimer.Stop()
		e.momentumTimer = nil
	}
}

func (e *Engine) startMomentumLocked(plan input.Momentum) {
	e.momentumGen++
	gen := e.momentumGen
	interval := plan.Interval
	e.momentumTimer = e.clock.AfterFunc(interval, func() {
		e.momentumStep(gen, plan, interval)
	})
}

// momentumStep applies one momentum step and chains the next at a longer
// interval until the plan is exhausted, a stop boundary is hit, or a newer
// gesture cancels the chain.
func (e *Engine) momentumStep(gen uint64, plan input.Momentum, interval time.Duration) {
	e.mu.Lock()
	if e.detached || gen != e.momentumGen || plan.Steps <= 0 {
		e.mu.Unlock()
		return
	}
	ch := e.store.Step(plan.Direction, e.opts.BoundaryBehavior)
	if ch.FlipDirection {
		e.machine.FlipDirection()
		plan.Direction = -plan.Direction
	}
	plan.Steps--
	done := plan.Steps <= 0 || ch.Boundary
	if done {
		e.momentumTimer = nil
	} else {
		next := time.Duration(float64(interval) * plan.Decay)
		e.momentumTimer = e.clock.AfterFunc(next, func() {
			e.momentumStep(gen, plan, next)
		})
	}
	e.applyChangeLocked(nil, ch)
}

package engine

import (
	"time"

	"cine/internal/frameindex"
)

// startAnimationLocked begins an animated walk toward target, spreading one
// step per intermediate frame across the animation duration. Returns false
// when the move needs no animation (same frame, empty sequence) so the caller
// falls back to a direct SetIndex.
func (e *Engine) startAnimationLocked(target int) (bool, []Event) {
	total := e.store.Total()
	if total == 0 {
		return false, nil
	}
	if target < 0 {
		target = 0
	}
	if target >= total {
		target = total - 1
	}
	steps := target - e.store.Current()
	if steps < 0 {
		steps = -steps
	}
	if steps == 0 {
		return false, nil
	}
	e.animating = true
	e.animTarget = target
	e.animGen++
	gen := e.animGen
	interval := e.opts.AnimationDuration / time.Duration(steps)
	e.animTimer = e.clock.AfterFunc(interval, func() {
		e.animStep(gen, interval)
	})
	return true, []Event{{Type: EventAnimationStart}}
}

// startStepAnimationLocked animates a single boundary-aware step: the step is
// applied after the full animation duration.
func (e *Engine) startStepAnimationLocked(delta int) (bool, []Event) {
	if e.store.Total() == 0 {
		return false, nil
	}
	e.animating = true
	e.animTarget = -1
	e.animGen++
	gen := e.animGen
	e.animTimer = e.clock.AfterFunc(e.opts.AnimationDuration, func() {
		e.animStepOnce(gen, delta)
	})
	return true, []Event{{Type: EventAnimationStart}}
}

// animStep advances one frame toward the animation target, re-reading the
// current index each fire so concurrent inputs reroute rather than break the
// walk.
func (e *Engine) animStep(gen uint64, interval time.Duration) {
	e.mu.Lock()
	if e.detached || gen != e.animGen || !e.animating {
		e.mu.Unlock()
		return
	}
	delta := 0
	if current := e.store.Current(); e.animTarget > current {
		delta = 1
	} else if e.animTarget < current {
		delta = -1
	}
	if delta == 0 {
		e.animating = false
		e.animTimer = nil
		e.finishMutationLocked([]Event{{Type: EventAnimationEnd}}, -1)
		return
	}
	ch := e.store.Step(delta, frameindex.BoundaryStop)
	events := changeEvents(ch)
	if e.store.Current() == e.animTarget {
		e.animating = false
		e.animTimer = nil
		events = append(events, Event{Type: EventAnimationEnd})
	} else {
		e.animTimer = e.clock.AfterFunc(interval, func() {
			e.animStep(gen, interval)
		})
	}
	e.applyChangeAndEventsLocked(events, ch)
}

// animStepOnce applies the deferred single step of an animated next/previous.
func (e *Engine) animStepOnce(gen uint64, delta int) {
	e.mu.Lock()
	if e.detached || gen != e.animGen || !e.animating {
		e.mu.Unlock()
		return
	}
	e.animating = false
	e.animTimer = nil
	ch := e.store.Step(delta, e.opts.BoundaryBehavior)
	if ch.FlipDirection {
		e.machine.FlipDirection()
	}
	events := append(changeEvents(ch), Event{Type: EventAnimationEnd})
	e.applyChangeAndEventsLocked(events, ch)
}

func (e *Engine) applyChangeAndEventsLocked(events []Event, ch frameindex.Change) {
	prefetchAt := -1
	if ch.Moved {
		prefetchAt = ch.Index
	}
	e.finishMutationLocked(events, prefetchAt)
}

// cancelAnimationLocked stops a running animation and returns the
// animation-end event the caller should fold into its own emission.
func (e *Engine) cancelAnimationLocked() []Event {
	if !e.animating {
		return nil
	}
	e.animGen++
	if e.animTimer != nil {
		e.animTimer.Stop()
		e.animTimer = nil
	}
	e.animating = false
	return []Event{{Type: EventAnimationEnd}}
}

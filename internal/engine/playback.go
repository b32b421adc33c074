package engine

import (
	"time"

	"cine/internal/playback"
)

// rateRestartDelay is the pause before rearming the tick timer after a rate
// change, so a pending callback from the old timer can never race a fresh
// one.
const rateRestartDelay = 25 * time.Millisecond

// Play starts cine playback. Calling it while already playing is a no-op, as
// is playing an empty sequence.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.detached || e.store.Total() == 0 {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	if !e.machine.Play(e.clock.Now()) {
		e.finishMutationLocked(events, -1)
		return
	}
	e.cancelRestartLocked()
	e.armTickLocked()
	rate := e.machine.RequestedRate()
	mode := string(e.machine.Mode())
	direction := string(e.machine.Direction())
	e.finishMutationLocked(events, -1)
	e.logger.Debug("playback started", "frame_rate", rate, "mode", mode, "direction", direction)
}

// Pause stops cine playback. Calling it while stopped is a no-op, except that
// it still cancels a pending rate-change restart.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	stopped := e.stopPlaybackLocked()
	e.mu.Unlock()
	if stopped {
		e.logger.Debug("playback paused")
	}
}

// SetFrameRate applies a new requested rate, clamped into bounds, and returns
// the applied value. While playing the tick timer is restarted cleanly.
func (e *Engine) SetFrameRate(fps float64) float64 {
	e.mu.Lock()
	if e.detached {
		current := e.machine.RequestedRate()
		e.mu.Unlock()
		return current
	}
	applied := e.machine.SetRequestedRate(fps)
	e.opts.FrameRate = applied
	if e.machine.Playing() {
		e.restartPlaybackLocked()
	}
	e.mu.Unlock()
	return applied
}

// SetPlaybackMode switches between once, loop, and bounce. Takes effect on
// the next tick; no restart is needed.
func (e *Engine) SetPlaybackMode(mode playback.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	if parsed, ok := playback.ParseMode(string(mode)); ok {
		e.opts.Mode = parsed
		e.machine.SetMode(parsed)
	}
}

// SetPlaybackDirection switches the advance direction.
func (e *Engine) SetPlaybackDirection(direction playback.Direction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	if parsed, ok := playback.ParseDirection(string(direction)); ok {
		e.machine.SetDirection(parsed)
	}
}

// Direction returns the current playback direction.
func (e *Engine) Direction() playback.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Direction()
}

// Mode returns the current playback mode.
func (e *Engine) Mode() playback.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Mode()
}

// armTickLocked schedules the next tick at the current effective interval.
// The generation stamp kills callbacks from timers armed before a stop.
func (e *Engine) armTickLocked() {
	e.playGen++
	gen := e.playGen
	e.playTimer = e.clock.AfterFunc(e.machine.Interval(), func() {
		e.onTick(gen)
	})
}

// rearmTickLocked chains the next tick without bumping the generation, so a
// concurrent stop invalidates the whole chain at once.
func (e *Engine) rearmTickLocked(gen uint64) {
	e.playTimer = e.clock.AfterFunc(e.machine.Interval(), func() {
		e.onTick(gen)
	})
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	if e.detached || gen != e.playGen || !e.machine.Playing() {
		e.mu.Unlock()
		return
	}
	result := e.machine.Tick(e.clock.Now())
	ch := e.store.Step(result.Delta, result.Boundary)
	if ch.FlipDirection {
		e.machine.FlipDirection()
	}
	events := changeEvents(ch)
	if ch.Boundary && e.machine.Mode() == playback.ModeOnce {
		e.stopPlaybackLocked()
		e.mu.Unlock()
		e.logger.Debug("playback reached end", "frame_index", ch.Index)
		e.dispatchTick(events, ch.Moved, ch.Index)
		return
	}
	e.rearmTickLocked(gen)
	e.mu.Unlock()
	e.dispatchTick(events, ch.Moved, ch.Index)
}

func (e *Engine) dispatchTick(events []Event, moved bool, index int) {
	e.mu.Lock()
	subs := e.subscriberSnapshotLocked()
	ctx := e.ctx
	e.mu.Unlock()
	emit(subs, events)
	if moved {
		e.coord.Update(ctx, index)
	}
}

// stopPlaybackLocked clears the tick timer, cancels a pending rate-change
// restart, and stops the machine exactly once. Reports whether a transition
// happened.
func (e *Engine) stopPlaybackLocked() bool {
	e.cancelRestartLocked()
	if e.playTimer != nil {
		e.playTimer.Stop()
		e.playTimer = nil
	}
	e.playGen++
	return e.machine.Stop()
}

// restartPlaybackLocked performs the clean restart required after a rate
// change while playing: stop now, resume after a short deterministic delay.
func (e *Engine) restartPlaybackLocked() {
	e.stopPlaybackLocked()
	gen := e.playGen
	e.restartTimer = e.clock.AfterFunc(rateRestartDelay, func() {
		e.resumeAfterRestart(gen)
	})
}

func (e *Engine) resumeAfterRestart(gen uint64) {
	e.mu.Lock()
	if e.detached || gen != e.playGen || e.machine.Playing() || e.store.Total() == 0 {
		e.mu.Unlock()
		return
	}
	e.restartTimer = nil
	e.machine.Play(e.clock.Now())
	e.armTickLocked()
	e.mu.Unlock()
}

func (e *Engine) cancelRestartLocked() {
	if e.restartTimer != nil {
		e.restartTimer.Stop()
		e.restartTimer = nil
	}
}

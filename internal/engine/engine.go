package engine

import (
	"context"
	"log/slog"
	"sync"

	"cine/internal/clock"
	"cine/internal/frameindex"
	"cine/internal/input"
	"cine/internal/loader"
	"cine/internal/logging"
	"cine/internal/playback"
	"cine/internal/prefetch"
	"cine/internal/services"
)

// Engine is the temporal control layer for one frame sequence. All commands
// and queries are safe for concurrent use; mutations run to completion under
// one mutex, so index updates never interleave.
type Engine struct {
	mu   sync.Mutex
	opts Options

	clock  clock.Clock
	logger *slog.Logger
	loader loader.Loader

	store    *frameindex.Store
	machine  *playback.Machine
	keyboard *input.Keyboard
	wheel    *input.Wheel
	touch    *input.Touch
	coord    *prefetch.Coordinator

	surface  string
	detached bool

	ctx    context.Context
	cancel context.CancelFunc

	playTimer    clock.Timer
	playGen      uint64
	restartTimer clock.Timer

	animTimer  clock.Timer
	animGen    uint64
	animating  bool
	animTarget int

	momentumTimer clock.Timer
	momentumGen   uint64

	subscribers map[uint64]func(Event)
	nextSubID   uint64
}

// New builds an engine over frameLoader. A nil clk falls back to the system
// clock and a nil logger discards; frameLoader may be nil when the sequence
// is navigated without prefetching.
func New(opts Options, frameLoader loader.Loader, clk clock.Clock, logger *slog.Logger) *Engine {
	opts = opts.normalized()
	if clk == nil {
		clk = clock.System
	}
	log := logging.NewComponentLogger(logger, "engine")
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:        opts,
		clock:       clk,
		logger:      log,
		loader:      frameLoader,
		store:       frameindex.NewStore(opts.TotalFrames, opts.CurrentFrame),
		machine:     playback.NewMachine(opts.MinFrameRate, opts.MaxFrameRate, opts.FrameRate, opts.Mode, playback.DirectionForward),
		keyboard:    input.NewKeyboard(),
		wheel:       input.NewWheel(opts.WheelSensitivity),
		touch:       input.NewTouch(opts.TouchSensitivity),
		coord:       prefetch.New(frameLoader, logger, opts.PreloadWindowSize, opts.TotalFrames),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[uint64]func(Event)),
	}
	return e
}

// GoToSlice moves to index i, clamped into range. With animate true and a
// positive animation duration the move walks intermediate frames on the
// clock; a newer command supersedes a running animation.
func (e *Engine) GoToSlice(i int, animate bool) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	if animate && e.opts.AnimationDuration > 0 {
		started, startEvents := e.startAnimationLocked(i)
		if started {
			e.finishMutationLocked(append(events, startEvents...), -1)
			return
		}
	}
	ch := e.store.SetIndex(i)
	e.applyChangeLocked(events, ch)
}

// NextSlice steps forward once under the configured boundary behavior.
func (e *Engine) NextSlice(animate bool) {
	e.stepCommand(1, animate)
}

// PreviousSlice steps backward once under the configured boundary behavior.
func (e *Engine) PreviousSlice(animate bool) {
	e.stepCommand(-1, animate)
}

// FirstSlice jumps to index 0.
func (e *Engine) FirstSlice() {
	e.GoToSlice(0, false)
}

// LastSlice jumps to the final index.
func (e *Engine) LastSlice() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	ch := e.store.SetIndex(e.store.Total() - 1)
	e.applyChangeLocked(events, ch)
}

func (e *Engine) stepCommand(delta int, animate bool) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	events := e.cancelAnimationLocked()
	if animate && e.opts.AnimationDuration > 0 {
		started, startEvents := e.startStepAnimationLocked(delta)
		if started {
			e.finishMutationLocked(append(events, startEvents...), -1)
			return
		}
	}
	ch := e.store.Step(delta, e.opts.BoundaryBehavior)
	if ch.FlipDirection {
		e.machine.FlipDirection()
	}
	e.applyChangeLocked(events, ch)
}

// applyChangeLocked folds a store change into pending events and completes
// the mutation. The caller must hold mu; it is released here.
func (e *Engine) applyChangeLocked(events []Event, ch frameindex.Change) {
	events = append(events, changeEvents(ch)...)
	prefetchAt := -1
	if ch.Moved {
		prefetchAt = ch.Index
	}
	e.finishMutationLocked(events, prefetchAt)
}

// finishMutationLocked releases mu, delivers events, and refreshes the
// prefetch window when prefetchAt is a valid index.
func (e *Engine) finishMutationLocked(events []Event, prefetchAt int) {
	subs := e.subscriberSnapshotLocked()
	ctx := e.ctx
	e.mu.Unlock()
	emit(subs, events)
	if prefetchAt >= 0 {
		e.coord.Update(ctx, prefetchAt)
	}
}

// UpdateTotalFrames installs a new frame count, re-clamping the current index
// and dropping buffered frames. A count of zero stops playback.
func (e *Engine) UpdateTotalFrames(n int) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	events, prefetchAt := e.updateTotalLocked(n)
	e.finishMutationLocked(events, prefetchAt)
}

func (e *Engine) updateTotalLocked(n int) ([]Event, int) {
	if n < 0 {
		n = 0
	}
	events := e.cancelAnimationLocked()
	e.opts.TotalFrames = n
	ch := e.store.SetTotal(n)
	if n == 0 {
		e.stopPlaybackLocked()
	}
	e.coord.SetTotal(n)
	events = append(events, changeEvents(ch)...)
	prefetchAt := -1
	if n > 0 {
		prefetchAt = e.store.Current()
	}
	return events, prefetchAt
}

// UpdateConfig applies a partial reconfiguration. Rate or bound changes while
// playing restart the tick timer cleanly.
func (e *Engine) UpdateConfig(update ConfigUpdate) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	if update.EnableKeyboard != nil {
		e.opts.EnableKeyboard = *update.EnableKeyboard
	}
	if update.EnableMouseWheel != nil {
		e.opts.EnableMouseWheel = *update.EnableMouseWheel
	}
	if update.EnableTouch != nil {
		e.opts.EnableTouch = *update.EnableTouch
	}
	if update.EnableMomentum != nil {
		e.opts.EnableMomentum = *update.EnableMomentum
	}
	if update.WheelSensitivity != nil && *update.WheelSensitivity > 0 {
		e.opts.WheelSensitivity = *update.WheelSensitivity
		e.wheel = input.NewWheel(e.opts.WheelSensitivity)
	}
	if update.TouchSensitivity != nil && *update.TouchSensitivity > 0 {
		e.opts.TouchSensitivity = *update.TouchSensitivity
		e.touch = input.NewTouch(e.opts.TouchSensitivity)
	}
	if update.AnimationDuration != nil && *update.AnimationDuration >= 0 {
		e.opts.AnimationDuration = *update.AnimationDuration
	}
	if update.BoundaryBehavior != nil {
		if behavior, ok := frameindex.ParseBoundary(string(*update.BoundaryBehavior)); ok {
			e.opts.BoundaryBehavior = behavior
		}
	}
	if update.Mode != nil {
		if mode, ok := playback.ParseMode(string(*update.Mode)); ok {
			e.opts.Mode = mode
			e.machine.SetMode(mode)
		}
	}
	if update.PreloadWindowSize != nil && *update.PreloadWindowSize >= 0 {
		e.opts.PreloadWindowSize = *update.PreloadWindowSize
		e.coord.SetWindow(e.opts.PreloadWindowSize)
	}

	rateTouched := false
	if update.MinFrameRate != nil || update.MaxFrameRate != nil {
		min := e.opts.MinFrameRate
		max := e.opts.MaxFrameRate
		if update.MinFrameRate != nil {
			min = *update.MinFrameRate
		}
		if update.MaxFrameRate != nil {
			max = *update.MaxFrameRate
		}
		e.opts.MinFrameRate = min
		e.opts.MaxFrameRate = max
		e.machine.SetRateBounds(min, max)
		rateTouched = true
	}
	if update.FrameRate != nil {
		e.opts.FrameRate = e.machine.SetRequestedRate(*update.FrameRate)
		rateTouched = true
	}
	if rateTouched && e.machine.Playing() {
		e.restartPlaybackLocked()
	}

	var events []Event
	prefetchAt := -1
	if update.TotalFrames != nil {
		events, prefetchAt = e.updateTotalLocked(*update.TotalFrames)
	}
	e.finishMutationLocked(events, prefetchAt)
}

// Bind attaches the input translators to a surface handle; an empty handle
// unbinds them. Both directions are idempotent. Any surface change abandons
// in-progress gestures and momentum so no timer from the old surface stays
// armed. Playback and queries are unaffected by binding state.
func (e *Engine) Bind(surface string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached || e.surface == surface {
		return
	}
	e.surface = surface
	e.touch.Cancel()
	e.cancelMomentumLocked()
}

// Bound reports the surface handle the translators are attached to.
func (e *Engine) Bound() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// Detach permanently tears the engine down: timers are cleared, playback and
// animation stop, translators unbind, and in-flight loads are discarded. Any
// command arriving afterwards is silently dropped. Detach is idempotent.
func (e *Engine) Detach() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	e.detached = true
	events := e.cancelAnimationLocked()
	e.stopPlaybackLocked()
	e.cancelMomentumLocked()
	e.touch.Cancel()
	e.surface = ""
	subs := e.subscriberSnapshotLocked()
	e.mu.Unlock()

	e.cancel()
	e.coord.Detach()
	emit(subs, events)
	e.logger.Debug("engine detached")
}

// Detached reports whether Detach has run.
func (e *Engine) Detached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detached
}

// Frame returns the bytes for one frame, serving from the prefetch buffer
// when possible and loading directly otherwise. Navigation never waits on
// this path.
func (e *Engine) Frame(ctx context.Context, index int) ([]byte, error) {
	if data, ok := e.coord.Payload(index); ok {
		return data, nil
	}
	e.mu.Lock()
	frameLoader := e.loader
	e.mu.Unlock()
	if frameLoader == nil {
		return nil, services.Wrap(services.ErrNotFound, "engine", "frame", "no frame loader attached", nil)
	}
	return frameLoader.Load(ctx, index)
}

// Retry re-issues the load for a failed frame.
func (e *Engine) Retry(index int) bool {
	e.mu.Lock()
	ctx := e.ctx
	detached := e.detached
	e.mu.Unlock()
	if detached {
		return false
	}
	return e.coord.Retry(ctx, index)
}

// Snapshot is the queryable engine state at one instant.
type Snapshot struct {
	CurrentSlice     int                 `json:"current_slice"`
	TotalSlices      int                 `json:"total_slices"`
	IsPlaying        bool                `json:"is_playing"`
	IsAnimating      bool                `json:"is_animating"`
	Direction        playback.Direction  `json:"direction"`
	Mode             playback.Mode       `json:"mode"`
	BoundaryBehavior frameindex.Boundary `json:"boundary_behavior"`
	RequestedRate    float64             `json:"requested_frame_rate"`
	EffectiveRate    float64             `json:"effective_frame_rate"`
	ObservedRate     float64             `json:"observed_frame_rate"`
	BufferedFrames   []int               `json:"buffered_frames"`
	LoadingFrames    []int               `json:"loading_frames"`
	FailedFrames     []int               `json:"failed_frames"`
}

// Snapshot captures the full queryable state.
func (e *Engine) Snapshot() Snapshot {
	buffers := e.coord.Snapshot()
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		CurrentSlice:     e.store.Current(),
		TotalSlices:      e.store.Total(),
		IsPlaying:        e.machine.Playing(),
		IsAnimating:      e.animating,
		Direction:        e.machine.Direction(),
		Mode:             e.machine.Mode(),
		BoundaryBehavior: e.opts.BoundaryBehavior,
		RequestedRate:    e.machine.RequestedRate(),
		EffectiveRate:    e.machine.EffectiveRate(),
		ObservedRate:     e.machine.ObservedRate(),
		BufferedFrames:   buffers.Buffered,
		LoadingFrames:    buffers.Loading,
		FailedFrames:     buffers.Failed,
	}
}

// CurrentSlice returns the current frame index.
func (e *Engine) CurrentSlice() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Current()
}

// TotalSlices returns the frame count.
func (e *Engine) TotalSlices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Total()
}

// IsPlaying reports whether the scheduler is in the playing state.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Playing()
}

// IsAnimating reports whether an animated move is in progress.
func (e *Engine) IsAnimating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animating
}

// EffectiveFrameRate returns the adaptively corrected playback rate.
func (e *Engine) EffectiveFrameRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.EffectiveRate()
}

// ObservedFrameRate returns the telemetry rate from the last rolling window.
func (e *Engine) ObservedFrameRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.ObservedRate()
}

// BufferedFrames returns the sorted buffered index set.
func (e *Engine) BufferedFrames() []int { return e.coord.Snapshot().Buffered }

// LoadingFrames returns the sorted loading index set.
func (e *Engine) LoadingFrames() []int { return e.coord.Snapshot().Loading }

// FailedFrames returns the sorted failed index set.
func (e *Engine) FailedFrames() []int { return e.coord.Snapshot().Failed }

// Options returns a copy of the engine's normalized options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

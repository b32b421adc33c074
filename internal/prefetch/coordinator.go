// Package prefetch warms frames around the current index so navigation rarely
// waits on the loader.
//
// The coordinator tracks per-index states (loading, buffered, failed) and
// issues one asynchronous load per unfetched index inside a symmetric window.
// Loads complete in arbitrary order and re-enter through an epoch-checked
// completion path: Reset, SetTotal, and Detach bump the epoch, so results from
// a previous sequence generation are discarded instead of mutating fresh
// state. Failures are recorded and logged but never retried automatically;
// Retry is the explicit path back from failed.
package prefetch

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"cine/internal/loader"
	"cine/internal/logging"
)

// FrameState describes one frame's buffer status. Absent indices are idle.
type FrameState string

const (
	StateLoading  FrameState = "loading"
	StateBuffered FrameState = "buffered"
	StateFailed   FrameState = "failed"
)

// Snapshot is a point-in-time copy of the buffer sets, sorted by index.
type Snapshot struct {
	Buffered []int
	Loading  []int
	Failed   []int
}

// Coordinator owns the prefetch window for one frame sequence. It locks
// itself; callers never hold engine locks while its completion path runs.
type Coordinator struct {
	mu       sync.Mutex
	loader   loader.Loader
	logger   *slog.Logger
	window   int
	total    int
	epoch    uint64
	states   map[int]FrameState
	payloads map[int][]byte
	detached bool
}

// New creates a coordinator over total frames with the given window radius.
// A zero window disables prefetching.
func New(frameLoader loader.Loader, logger *slog.Logger, window, total int) *Coordinator {
	if window < 0 {
		window = 0
	}
	if total < 0 {
		total = 0
	}
	return &Coordinator{
		loader:   frameLoader,
		logger:   logging.NewComponentLogger(logger, "prefetch"),
		window:   window,
		total:    total,
		epoch:    1,
		states:   make(map[int]FrameState),
		payloads: make(map[int][]byte),
	}
}

// Update recomputes the window around current and issues loads for indices
// that are neither buffered, loading, nor failed. The per-call fan-out is
// bounded by the window size.
func (c *Coordinator) Update(ctx context.Context, current int) {
	c.mu.Lock()
	if c.detached || c.loader == nil || c.window == 0 || c.total == 0 {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	var pending []int
	for i := current - c.window; i <= current+c.window; i++ {
		if i == current || i < 0 || i >= c.total {
			continue
		}
		if _, occupied := c.states[i]; occupied {
			continue
		}
		c.states[i] = StateLoading
		pending = append(pending, i)
	}
	c.mu.Unlock()

	for _, index := range pending {
		go c.load(ctx, index, epoch)
	}
}

// Retry moves a failed index back to loading and issues one load for it. It
// reports whether a retry was started.
func (c *Coordinator) Retry(ctx context.Context, index int) bool {
	c.mu.Lock()
	if c.detached || c.states[index] != StateFailed {
		c.mu.Unlock()
		return false
	}
	c.states[index] = StateLoading
	epoch := c.epoch
	c.mu.Unlock()

	go c.load(ctx, index, epoch)
	return true
}

func (c *Coordinator) load(ctx context.Context, index int, epoch uint64) {
	data, err := c.loader.Load(ctx, index)
	c.complete(index, epoch, data, err)
}

func (c *Coordinator) complete(index int, epoch uint64, data []byte, err error) {
	c.mu.Lock()
	if epoch != c.epoch || c.detached {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.states[index] = StateFailed
	} else {
		c.states[index] = StateBuffered
		c.payloads[index] = data
	}
	c.mu.Unlock()

	if err != nil {
		logging.WarnWithContext(c.logger, "frame load failed", "frame_load_failed",
			logging.Int(logging.FieldFrameIndex, index),
			logging.Error(err),
			logging.String(logging.FieldImpact, "frame stays unbuffered until retried"),
			logging.String(logging.FieldErrorHint, "check the frame cache directory and retry the load"))
	}
}

// SetTotal installs a new frame count. The sequence contents may have changed
// with it, so all buffer state is dropped and in-flight loads are discarded.
func (c *Coordinator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.resetLocked()
}

// SetWindow changes the window radius. Existing buffer state stays valid;
// narrowing only limits what future updates request.
func (c *Coordinator) SetWindow(window int) {
	if window < 0 {
		window = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
}

// Reset drops all buffer state and discards in-flight loads.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Detach permanently stops the coordinator: state is dropped and any
// completion arriving afterwards is ignored.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	c.epoch++
	c.states = make(map[int]FrameState)
	c.payloads = make(map[int][]byte)
}

// State returns the buffer state for index, or idle ("") when untracked.
func (c *Coordinator) State(index int) FrameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[index]
}

// Payload returns the buffered bytes for index, if present.
func (c *Coordinator) Payload(index int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.payloads[index]
	return data, ok
}

// Snapshot copies the current buffer sets.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var snap Snapshot
	for index, state := range c.states {
		switch state {
		case StateBuffered:
			snap.Buffered = append(snap.Buffered, index)
		case StateLoading:
			snap.Loading = append(snap.Loading, index)
		case StateFailed:
			snap.Failed = append(snap.Failed, index)
		}
	}
	sort.Ints(snap.Buffered)
	sort.Ints(snap.Loading)
	sort.Ints(snap.Failed)
	return snap
}

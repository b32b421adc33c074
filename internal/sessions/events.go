package sessions

import (
	"context"
	"sync"

	"cine/internal/engine"
)

// sessionEventBuffer bounds how many engine events a session retains for
// pollers. Slow clients that fall further behind miss events rather than
// growing the buffer.
const sessionEventBuffer = 256

// SequencedEvent is one buffered engine notification stamped with the
// session-scoped sequence pollers resume from.
type SequencedEvent struct {
	Sequence uint64 `json:"seq"`
	engine.Event
}

// eventLog stores recent engine events and wakes waiters when new ones
// arrive. Sequence numbers start at 1 and never repeat within a session.
type eventLog struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []SequencedEvent
	nextSeq  uint64
	closed   bool
}

func newEventLog(capacity int) *eventLog {
	if capacity <= 0 {
		capacity = sessionEventBuffer
	}
	l := &eventLog{capacity: capacity}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// publish appends an event, evicting the oldest entry when full.
func (l *eventLog) publish(event engine.Event) {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.nextSeq++
	entry := SequencedEvent{Sequence: l.nextSeq, Event: event}
	if len(l.buffer) == l.capacity {
		copy(l.buffer, l.buffer[1:])
		l.buffer = l.buffer[:l.capacity-1]
	}
	l.buffer = append(l.buffer, entry)
	l.cond.Broadcast()
	l.mu.Unlock()
}

// close wakes blocked fetchers and drops later publishes.
func (l *eventLog) close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// fetch returns events with sequence greater than since, oldest first. When
// wait is true and nothing is pending, fetch blocks until an event arrives,
// the log closes, or the context ends.
func (l *eventLog) fetch(ctx context.Context, since uint64, limit int, wait bool) ([]SequencedEvent, uint64, error) {
	if l == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > l.capacity {
		limit = l.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				l.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		events, next := l.snapshotLocked(since, limit)
		if len(events) > 0 || !wait || l.closed {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		l.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

func (l *eventLog) snapshotLocked(since uint64, limit int) ([]SequencedEvent, uint64) {
	if len(l.buffer) == 0 {
		return nil, l.nextSeq
	}
	startIdx := -1
	for i, entry := range l.buffer {
		if entry.Sequence > since {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil, l.nextSeq
	}
	end := startIdx + limit
	if end > len(l.buffer) {
		end = len(l.buffer)
	}
	out := make([]SequencedEvent, end-startIdx)
	copy(out, l.buffer[startIdx:end])
	return out, out[len(out)-1].Sequence
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

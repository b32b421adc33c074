package engine

import "cine/internal/frameindex"

// EventType names the notifications an engine publishes.
type EventType string

const (
	EventSliceChanged    EventType = "slice_changed"
	EventAnimationStart  EventType = "animation_start"
	EventAnimationEnd    EventType = "animation_end"
	EventBoundaryReached EventType = "boundary_reached"
)

// Event is one engine notification. Index is set for slice_changed, Edge for
// boundary_reached.
type Event struct {
	Type  EventType       `json:"type"`
	Index int             `json:"index,omitempty"`
	Edge  frameindex.Edge `json:"edge,omitempty"`
}

// Subscribe registers fn for all future events and returns its cancel
// function. Events produced by one mutation are delivered in order on the
// mutating goroutine after the mutation completes; callbacks may call back
// into the engine.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// subscriberSnapshotLocked copies the current subscriber set for emission
// outside the lock.
func (e *Engine) subscriberSnapshotLocked() []func(Event) {
	if len(e.subscribers) == 0 {
		return nil
	}
	subs := make([]func(Event), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func emit(subs []func(Event), events []Event) {
	for _, event := range events {
		for _, fn := range subs {
			fn(event)
		}
	}
}

// changeEvents converts an index-store change record into engine events.
func changeEvents(ch frameindex.Change) []Event {
	var events []Event
	if ch.Moved {
		events = append(events, Event{Type: EventSliceChanged, Index: ch.Index})
	}
	if ch.Boundary {
		events = append(events, Event{Type: EventBoundaryReached, Edge: ch.Edge})
	}
	return events
}

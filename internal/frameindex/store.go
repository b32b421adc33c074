// Package frameindex tracks the visible frame position for one image sequence
// and applies boundary policy when steps run past either edge.
//
// The store is the single authority on the current index: every navigation
// source (keyboard, wheel, touch, cine ticks, momentum) mutates it through
// SetIndex or Step and nothing else, so concurrent inputs can never derive an
// index from stale state. The store itself carries no locks or callbacks; it
// returns Change records describing what moved and which events the caller
// should emit.
package frameindex

import "strings"

// Boundary governs what happens when a step would leave [0, total-1].
type Boundary string

const (
	// BoundaryStop clamps to the nearest edge and reports the boundary hit.
	BoundaryStop Boundary = "stop"
	// BoundaryWrap wraps modulo the frame count.
	BoundaryWrap Boundary = "wrap"
	// BoundaryBounce reflects back inside the range and asks the caller to
	// flip its travel direction.
	BoundaryBounce Boundary = "bounce"
)

var boundarySet = map[Boundary]struct{}{
	BoundaryStop:   {},
	BoundaryWrap:   {},
	BoundaryBounce: {},
}

// ParseBoundary converts a string into a known Boundary.
func ParseBoundary(value string) (Boundary, bool) {
	normalized := Boundary(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := boundarySet[normalized]
	return normalized, ok
}

// Edge identifies which end of the sequence a step ran into.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// Change describes the outcome of one mutation. Moved means the index changed
// and a slice-changed notification is due; Boundary means a stop-policy edge
// hit occurred and a boundary notification is due. FlipDirection is set by
// bounce reflections so the playback scheduler can reverse its travel.
type Change struct {
	Index         int
	Moved         bool
	Boundary      bool
	Edge          Edge
	FlipDirection bool
}

// Store holds the navigation state for one sequence.
type Store struct {
	current int
	total   int
}

// NewStore creates a store over total frames, clamping initial into range.
func NewStore(total, initial int) *Store {
	if total < 0 {
		total = 0
	}
	s := &Store{total: total}
	s.current = s.clamp(initial)
	return s
}

// Current returns the visible frame index.
func (s *Store) Current() int { return s.current }

// Total returns the number of frames in the sequence.
func (s *Store) Total() int { return s.total }

// SetIndex moves directly to i, clamped into range. With no frames it is a
// no-op.
func (s *Store) SetIndex(i int) Change {
	if s.total == 0 {
		return Change{Index: s.current}
	}
	target := s.clamp(i)
	change := Change{Index: target, Moved: target != s.current}
	s.current = target
	return change
}

// Step advances by delta and applies the boundary policy if the target falls
// outside the sequence.
func (s *Store) Step(delta int, boundary Boundary) Change {
	if s.total == 0 {
		return Change{Index: s.current}
	}
	target := s.current + delta
	if target >= 0 && target < s.total {
		change := Change{Index: target, Moved: target != s.current}
		s.current = target
		return change
	}

	edge := EdgeEnd
	if target < 0 {
		edge = EdgeStart
	}

	change := Change{Edge: edge}
	switch boundary {
	case BoundaryWrap:
		target = ((target % s.total) + s.total) % s.total
	case BoundaryBounce:
		if target < 0 {
			target = -target
		} else {
			target = 2*(s.total-1) - target
		}
		target = s.clamp(target)
		change.FlipDirection = true
	default: // BoundaryStop
		target = s.clamp(target)
		change.Boundary = true
	}

	change.Index = target
	change.Moved = target != s.current
	s.current = target
	return change
}

// SetTotal updates the frame count, re-clamping the current index when it now
// exceeds the end of the sequence.
func (s *Store) SetTotal(n int) Change {
	if n < 0 {
		n = 0
	}
	s.total = n
	target := s.clamp(s.current)
	change := Change{Index: target, Moved: target != s.current}
	s.current = target
	return change
}

func (s *Store) clamp(i int) int {
	if s.total == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= s.total {
		return s.total - 1
	}
	return i
}

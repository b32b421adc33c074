package playback

import (
	"strings"

	"cine/internal/frameindex"
)

// Mode governs what cine playback does when it reaches the end of the
// sequence.
type Mode string

const (
	// ModeOnce stops playback at the boundary.
	ModeOnce Mode = "once"
	// ModeLoop wraps to the opposite end and keeps going.
	ModeLoop Mode = "loop"
	// ModeBounce reverses direction at each end.
	ModeBounce Mode = "bounce"
)

var modeSet = map[Mode]struct{}{
	ModeOnce:   {},
	ModeLoop:   {},
	ModeBounce: {},
}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := modeSet[normalized]
	return normalized, ok
}

// Boundary returns the index-store policy cine ticks use under this mode.
func (m Mode) Boundary() frameindex.Boundary {
	switch m {
	case ModeLoop:
		return frameindex.BoundaryWrap
	case ModeBounce:
		return frameindex.BoundaryBounce
	default:
		return frameindex.BoundaryStop
	}
}

// Direction is the travel direction of cine playback.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// ParseDirection converts a string into a known Direction.
func ParseDirection(value string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(value))) {
	case DirectionForward:
		return DirectionForward, true
	case DirectionBackward:
		return DirectionBackward, true
	default:
		return "", false
	}
}

// Delta returns the per-tick index step for the direction.
func (d Direction) Delta() int {
	if d == DirectionBackward {
		return -1
	}
	return 1
}

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	if d == DirectionBackward {
		return DirectionForward
	}
	return DirectionBackward
}

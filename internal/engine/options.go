package engine

import (
	"time"

	"cine/internal/frameindex"
	"cine/internal/playback"
)

// Options configures one engine instance at construction. Invalid values are
// repaired by clamping, never reported.
type Options struct {
	TotalFrames       int
	CurrentFrame      int
	EnableKeyboard    bool
	EnableMouseWheel  bool
	EnableTouch       bool
	EnableMomentum    bool
	WheelSensitivity  float64
	TouchSensitivity  float64
	AnimationDuration time.Duration
	BoundaryBehavior  frameindex.Boundary
	MinFrameRate      float64
	MaxFrameRate      float64
	FrameRate         float64
	Mode              playback.Mode
	PreloadWindowSize int
}

// DefaultOptions returns the stand-alone engine defaults. Daemon-hosted
// engines derive these from the loaded config instead.
func DefaultOptions() Options {
	return Options{
		EnableKeyboard:    true,
		EnableMouseWheel:  true,
		EnableTouch:       true,
		EnableMomentum:    true,
		WheelSensitivity:  1.0,
		TouchSensitivity:  0.5,
		AnimationDuration: 200 * time.Millisecond,
		BoundaryBehavior:  frameindex.BoundaryStop,
		MinFrameRate:      1,
		MaxFrameRate:      60,
		FrameRate:         10,
		Mode:              playback.ModeLoop,
		PreloadWindowSize: 5,
	}
}

func (o Options) normalized() Options {
	if o.TotalFrames < 0 {
		o.TotalFrames = 0
	}
	if o.WheelSensitivity <= 0 {
		o.WheelSensitivity = 1.0
	}
	if o.TouchSensitivity <= 0 {
		o.TouchSensitivity = 0.5
	}
	if o.AnimationDuration < 0 {
		o.AnimationDuration = 0
	}
	if _, ok := frameindex.ParseBoundary(string(o.BoundaryBehavior)); !ok {
		o.BoundaryBehavior = frameindex.BoundaryStop
	}
	if _, ok := playback.ParseMode(string(o.Mode)); !ok {
		o.Mode = playback.ModeLoop
	}
	if o.PreloadWindowSize < 0 {
		o.PreloadWindowSize = 0
	}
	// Rate bounds are repaired by the controller itself; only the obviously
	// unusable zero value gets a default here.
	if o.MinFrameRate <= 0 && o.MaxFrameRate <= 0 && o.FrameRate <= 0 {
		o.MinFrameRate = 1
		o.MaxFrameRate = 60
		o.FrameRate = 10
	}
	return o
}

// ConfigUpdate carries a partial runtime reconfiguration. Nil fields are left
// untouched. Rate-bound or rate changes while playing restart the tick timer
// the same way SetFrameRate does.
type ConfigUpdate struct {
	TotalFrames       *int
	EnableKeyboard    *bool
	EnableMouseWheel  *bool
	EnableTouch       *bool
	EnableMomentum    *bool
	WheelSensitivity  *float64
	TouchSensitivity  *float64
	AnimationDuration *time.Duration
	BoundaryBehavior  *frameindex.Boundary
	MinFrameRate      *float64
	MaxFrameRate      *float64
	FrameRate         *float64
	Mode              *playback.Mode
	PreloadWindowSize *int
}

package api

import (
	"fmt"
	"strings"

	"cine/internal/engine"
	"cine/internal/playback"
	"cine/internal/services"
)

// Playback command names accepted by ApplyCommand.
const (
	CommandPlay      = "play"
	CommandPause     = "pause"
	CommandToggle    = "toggle"
	CommandNext      = "next"
	CommandPrevious  = "previous"
	CommandFirst     = "first"
	CommandLast      = "last"
	CommandGoTo      = "goto"
	CommandRate      = "rate"
	CommandMode      = "mode"
	CommandDirection = "direction"
	CommandRetry     = "retry"
)

// PlaybackCommand is one transport-issued control request for a session
// engine. Frame applies to goto and retry, Animate to the step and goto
// commands, Rate to rate, Mode to mode, and Direction to direction.
type PlaybackCommand struct {
	Name      string  `json:"name"`
	Frame     int     `json:"frame,omitempty"`
	Animate   bool    `json:"animate,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

// ApplyCommand routes a playback command to the engine and returns the state
// after it applied. Every transport dispatches through here so they all
// accept the same names and reject the same malformed requests.
func ApplyCommand(eng *engine.Engine, cmd PlaybackCommand) (PlaybackState, error) {
	if eng == nil {
		return PlaybackState{}, services.Wrap(services.ErrValidation, "api", "command", "no engine for session", nil)
	}
	switch strings.ToLower(strings.TrimSpace(cmd.Name)) {
	case CommandPlay:
		eng.Play()
	case CommandPause:
		eng.Pause()
	case CommandToggle:
		eng.TogglePlay()
	case CommandNext:
		eng.NextSlice(cmd.Animate)
	case CommandPrevious:
		eng.PreviousSlice(cmd.Animate)
	case CommandFirst:
		eng.FirstSlice()
	case CommandLast:
		eng.LastSlice()
	case CommandGoTo:
		eng.GoToSlice(cmd.Frame, cmd.Animate)
	case CommandRate:
		if cmd.Rate <= 0 {
			return PlaybackState{}, services.Wrap(services.ErrValidation, "api", "command", fmt.Sprintf("frame rate %v out of range", cmd.Rate), nil)
		}
		eng.SetFrameRate(cmd.Rate)
	case CommandMode:
		mode, ok := playback.ParseMode(cmd.Mode)
		if !ok {
			return PlaybackState{}, services.Wrap(services.ErrValidation, "api", "command", fmt.Sprintf("unknown playback mode %q", cmd.Mode), nil)
		}
		eng.SetPlaybackMode(mode)
	case CommandDirection:
		direction, ok := playback.ParseDirection(cmd.Direction)
		if !ok {
			return PlaybackState{}, services.Wrap(services.ErrValidation, "api", "command", fmt.Sprintf("unknown direction %q", cmd.Direction), nil)
		}
		eng.SetPlaybackDirection(direction)
	case CommandRetry:
		eng.Retry(cmd.Frame)
	default:
		return PlaybackState{}, services.Wrap(services.ErrValidation, "api", "command", fmt.Sprintf("unknown command %q", cmd.Name), nil)
	}
	return FromSnapshot(eng.Snapshot()), nil
}

// Input event kinds accepted by ApplyInput.
const (
	InputKey   = "key"
	InputWheel = "wheel"
	InputTouch = "touch"
)

// Touch phases within an InputEvent.
const (
	TouchBegin  = "begin"
	TouchMove   = "move"
	TouchEnd    = "end"
	TouchCancel = "cancel"
)

// InputEvent is one user gesture forwarded from a transport surface.
type InputEvent struct {
	Kind     string  `json:"kind"`
	Key      string  `json:"key,omitempty"`
	Delta    float64 `json:"delta,omitempty"`
	Phase    string  `json:"phase,omitempty"`
	Position float64 `json:"position,omitempty"`
}

// ApplyInput routes a gesture to the engine input handlers. Gestures the
// engine drops (disabled input kinds, unbound surfaces) are not reported as
// errors; only malformed events are.
func ApplyInput(eng *engine.Engine, event InputEvent) error {
	if eng == nil {
		return services.Wrap(services.ErrValidation, "api", "input", "no engine for session", nil)
	}
	switch strings.ToLower(strings.TrimSpace(event.Kind)) {
	case InputKey:
		eng.HandleKey(event.Key)
	case InputWheel:
		eng.HandleWheel(event.Delta)
	case InputTouch:
		switch strings.ToLower(strings.TrimSpace(event.Phase)) {
		case TouchBegin:
			eng.TouchBegin(event.Position)
		case TouchMove:
			eng.TouchMove(event.Position)
		case TouchEnd:
			eng.TouchEnd()
		case TouchCancel:
			eng.TouchCancel()
		default:
			return services.Wrap(services.ErrValidation, "api", "input", fmt.Sprintf("unknown touch phase %q", event.Phase), nil)
		}
	default:
		return services.Wrap(services.ErrValidation, "api", "input", fmt.Sprintf("unknown input kind %q", event.Kind), nil)
	}
	return nil
}

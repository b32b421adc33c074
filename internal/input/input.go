// Package input translates raw keyboard, wheel, and touch events into
// navigation actions and step counts.
//
// Translators are pure: they hold no timers and never touch the frame index
// themselves. Each one turns device events into commands for the engine's
// single mutation entry point, which is what keeps simultaneous input sources
// from racing each other. Timestamps come in as arguments so gesture logic is
// testable without a real clock.
package input

import "strings"

// Action is a discrete navigation command produced by the keyboard translator.
type Action string

const (
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionFirst      Action = "first"
	ActionLast       Action = "last"
	ActionTogglePlay Action = "toggle_play"
)

// DefaultBindings returns the stock key table: arrows step, Home/End jump,
// space toggles cine playback.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"arrowright": ActionNext,
		"arrowdown":  ActionNext,
		"arrowleft":  ActionPrevious,
		"arrowup":    ActionPrevious,
		"home":       ActionFirst,
		"end":        ActionLast,
		"space":      ActionTogglePlay,
		" ":          ActionTogglePlay,
	}
}

// Keyboard maps key identifiers to actions.
type Keyboard struct {
	bindings map[string]Action
}

// NewKeyboard creates a translator with the default key table.
func NewKeyboard() *Keyboard {
	return &Keyboard{bindings: DefaultBindings()}
}

// Translate resolves a key identifier to its bound action. Key matching is
// case-insensitive.
func (k *Keyboard) Translate(key string) (Action, bool) {
	action, ok := k.bindings[normalizeKey(key)]
	return action, ok
}

// Bind attaches an action to a key, replacing any existing binding.
func (k *Keyboard) Bind(key string, action Action) {
	normalized := normalizeKey(key)
	if normalized == "" {
		return
	}
	k.bindings[normalized] = action
}

// Unbind removes the binding for a key.
func (k *Keyboard) Unbind(key string) {
	delete(k.bindings, normalizeKey(key))
}

func normalizeKey(key string) string {
	if key == " " {
		return " "
	}
	return strings.ToLower(strings.TrimSpace(key))
}

package input

import (
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/input/event"
)

// Target receives Game Boy button state changes.
type Target interface {
	HandleAction(act action.Action, pressed bool)
}

// Manager dispatches actions: Game Boy buttons go to the emulator, emulator
// actions to registered callbacks.
type Manager struct {
	handlers map[action.Action]map[event.Type][]func()
	debounce *Handler
	target   Target
}

// NewManager returns a manager forwarding buttons to target. target may be
// nil, in which case buttons are dropped.
func NewManager(target Target) *Manager {
	return &Manager{
		handlers: make(map[action.Action]map[event.Type][]func()),
		debounce: NewHandler(),
		target:   target,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if !m.debounce.ProcessEvent(act, evt) {
		return
	}

	// GB controls go to the joypad
	if act.IsButton() {
		if m.target != nil {
			m.target.HandleAction(act, evt.Pressed())
		}
		return
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

package action

import "fmt"

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorQuit
)

var names = map[Action]string{
	GBButtonA:           "a",
	GBButtonB:           "b",
	GBButtonStart:       "start",
	GBButtonSelect:      "select",
	GBDPadUp:            "up",
	GBDPadDown:          "down",
	GBDPadLeft:          "left",
	GBDPadRight:         "right",
	EmulatorSnapshot:    "snapshot",
	EmulatorPauseToggle: "pause",
	EmulatorStepFrame:   "step",
	EmulatorQuit:        "quit",
}

func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// IsButton reports whether a is one of the eight Game Boy buttons.
func (a Action) IsButton() bool {
	return a >= GBButtonA && a <= GBDPadRight
}

// Parse returns the action named s, as printed by String.
func Parse(s string) (Action, error) {
	for act, name := range names {
		if name == s {
			return act, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

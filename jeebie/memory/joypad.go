package memory

import "github.com/valerio/jeebie-color/jeebie/bit"

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Keys is a set of pressed keys, one bit per JoypadKey.
type Keys uint8

// With returns the set with key pressed or released.
func (k Keys) With(key JoypadKey, pressed bool) Keys {
	return Keys(bit.SetTo(uint8(key), uint8(k), pressed))
}

// Pressed reports whether key is in the set.
func (k Keys) Pressed(key JoypadKey) bool {
	return bit.IsSet(uint8(key), uint8(k))
}

// dpad and buttons return the active-low nibble for each selection group.
func (k Keys) dpad() uint8    { return ^uint8(k) & 0x0F }
func (k Keys) buttons() uint8 { return ^uint8(k>>4) & 0x0F }

const (
	selectDpad    = 0x10
	selectButtons = 0x20
)

// Joypad implements the P1 register.
//
// P1 is a selector: clearing bit 4 maps the d-pad to bits 0-3, clearing bit 5
// maps A/B/Select/Start; with both selected the lines are ANDed. A key reads
// as 0 when pressed. Bits 6-7 always read as 1.
type Joypad struct {
	keys      Keys
	selection uint8

	// OnPress is called when a key in a selected group goes down.
	OnPress func()
}

// NewJoypad creates a new Joypad instance
func NewJoypad(onPress func()) *Joypad {
	return &Joypad{
		selection: selectDpad | selectButtons,
		OnPress:   onPress,
	}
}

func (j *Joypad) lines(keys Keys) uint8 {
	result := uint8(0x0F)
	if j.selection&selectDpad == 0 {
		result &= keys.dpad()
	}
	if j.selection&selectButtons == 0 {
		result &= keys.buttons()
	}
	return result
}

// Read returns the P1 register value.
func (j *Joypad) Read() uint8 {
	return 0xC0 | j.selection | j.lines(j.keys)
}

// Write sets the selection bits, the only writable part of P1.
func (j *Joypad) Write(value uint8) {
	j.selection = value & (selectDpad | selectButtons)
}

// SetKeys replaces the pressed key set. Any selected line going from high to
// low raises the joypad interrupt.
func (j *Joypad) SetKeys(keys Keys) {
	before := j.lines(j.keys)
	after := j.lines(keys)
	j.keys = keys

	if before&^after != 0 && j.OnPress != nil {
		j.OnPress()
	}
}

// Keys returns the currently pressed keys.
func (j *Joypad) Keys() Keys {
	return j.keys
}

// Press updates the joypad state when a key is pressed
func (j *Joypad) Press(key JoypadKey) {
	j.SetKeys(j.keys.With(key, true))
}

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) {
	j.SetKeys(j.keys.With(key, false))
}

// Package interrupt models the interrupt sources shared by IE/IF and the
// CPU's interrupt master enable.
package interrupt

import "fmt"

// Source is one of the five interrupt lines, ordered by priority (highest first).
type Source uint8

const (
	// VBlank is fired when the PPU enters line 144.
	VBlank Source = iota
	// LCDStat is fired based on one of the conditions enabled in STAT.
	LCDStat
	// Timer is fired when TIMA overflows.
	Timer
	// Serial is fired when a serial transfer has completed.
	Serial
	// Joypad is fired when a selected key goes from high to low.
	Joypad

	count
)

const (
	baseVector uint16 = 0x40
	// Mask covers every valid IE/IF bit.
	Mask uint8 = 0x1F
	// ServiceCycles is the cost of dispatching to a vector.
	ServiceCycles = 20
)

func (s Source) valid() bool {
	return s < count
}

// Bit returns the IE/IF mask for this source.
func (s Source) Bit() uint8 {
	if !s.valid() {
		panic(fmt.Sprintf("invalid interrupt source: %d", s))
	}
	return 1 << s
}

// Vector returns the handler address: 0x40, 0x48, 0x50, 0x58, 0x60.
func (s Source) Vector() uint16 {
	if !s.valid() {
		panic(fmt.Sprintf("invalid interrupt source: %d", s))
	}
	return baseVector + uint16(s)*8
}

func (s Source) String() string {
	switch s {
	case VBlank:
		return "VBlank"
	case LCDStat:
		return "LCDStat"
	case Timer:
		return "Timer"
	case Serial:
		return "Serial"
	case Joypad:
		return "Joypad"
	}
	return fmt.Sprintf("Source(%d)", uint8(s))
}

// Highest returns the highest priority source that is both enabled and
// requested. ok is false when nothing is pending.
func Highest(ie, flags uint8) (src Source, ok bool) {
	pending := ie & flags & Mask
	if pending == 0 {
		return 0, false
	}
	for s := VBlank; s < count; s++ {
		if pending&s.Bit() != 0 {
			return s, true
		}
	}
	panic(fmt.Sprintf("unreachable: pending mask 0x%02X has no source", pending))
}

// Pending reports whether any enabled interrupt is requested.
func Pending(ie, flags uint8) bool {
	return ie&flags&Mask != 0
}

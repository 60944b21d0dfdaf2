package memory

import (
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
)

// tacLookup maps TAC input clock select (bits 1-0) to the bit of the
// internal divider whose falling edge clocks TIMA.
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

const tacUnusedBits = 0xF8

// Timer encapsulates the DIV/TIMA/TMA/TAC registers.
//
// The divider is a 16 bit counter incremented every cycle, DIV exposes its
// upper 8 bits. TIMA counts falling edges of the divider bit selected by TAC,
// so writing DIV (which zeroes the whole counter) can itself clock TIMA.
type Timer struct {
	divider uint16
	tima    uint8
	tma     uint8
	tac     uint8

	// OnOverflow is called when TIMA wraps, should request the Timer interrupt.
	OnOverflow func()
}

// SetSeed initializes the internal divider, used to match post-boot state.
func (t *Timer) SetSeed(seed uint16) {
	t.divider = seed
}

func (t *Timer) enabled() bool {
	return bit.IsSet(2, t.tac)
}

// input is the current level of the signal feeding TIMA.
func (t *Timer) input() bool {
	return t.enabled() && bit.IsSet16(tacLookup[t.tac&0x03], t.divider)
}

// Tick advances the timer by the given number of cycles.
func (t *Timer) Tick(cycles int) {
	for range cycles {
		before := t.input()
		t.divider++
		if before && !t.input() {
			t.incrementTIMA()
		}
	}
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima != 0 {
		return
	}
	t.tima = t.tma
	if t.OnOverflow != nil {
		t.OnOverflow()
	}
}

// update applies a change that may drop the TIMA input from high to low.
func (t *Timer) update(change func()) {
	before := t.input()
	change()
	if before && !t.input() {
		t.incrementTIMA()
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return bit.High(t.divider)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | tacUnusedBits
	}
	return 0xFF
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.update(func() { t.divider = 0 })
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.update(func() { t.tac = value &^ tacUnusedBits })
	}
}

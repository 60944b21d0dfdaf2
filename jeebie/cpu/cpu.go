package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
)

// Bus is everything the CPU can reach. IE and IF are read and written through
// it like any other address.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	// SwitchSpeed performs an armed CGB speed switch, reporting whether one happened.
	SwitchSpeed() bool
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// State is the run state of the CPU.
type State uint8

const (
	// Running executes one instruction per step.
	Running State = iota
	// Halted idles until an enabled interrupt is requested.
	Halted
	// Stopped idles until a joypad interrupt is requested.
	Stopped
	// Locked is entered by an illegal opcode; only a reset recovers.
	Locked
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Stopped:
		return "Stopped"
	case Locked:
		return "Locked"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// idleCycles is what a step costs while the CPU is not executing.
const idleCycles = 4

// CPU is the main struct holding LR35902 state
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	ime    interrupt.IME
	state  State
	cycles uint64
	opcode uint16

	// haltBug makes the next fetch read the opcode without advancing PC.
	// Set by HALT when IME is off and an interrupt is already pending.
	haltBug bool

	bus Bus
}

// New returns a CPU with the registers left by the DMG or CGB boot ROM,
// ready to run the cartridge at 0x0100.
func New(bus Bus, cgb bool) *CPU {
	cpu := &CPU{bus: bus}

	if cgb {
		cpu.setAF(0x1180)
		cpu.setBC(0x0000)
		cpu.setDE(0xFF56)
		cpu.setHL(0x000D)
	} else {
		cpu.setAF(0x01B0)
		cpu.setBC(0x0013)
		cpu.setDE(0x00D8)
		cpu.setHL(0x014D)
	}
	cpu.sp = 0xFFFE
	cpu.pc = 0x0100

	return cpu
}

// NewAtReset returns a CPU in its power-on state, for running a boot ROM.
func NewAtReset(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Step services a pending interrupt or executes a single instruction.
// Returns the amount of cycles that it has taken.
func (c *CPU) Step() int {
	var cycles int
	switch c.state {
	case Locked:
		cycles = idleCycles
	case Stopped:
		cycles = c.stepStopped()
	default:
		cycles = c.stepRunning()
	}
	c.cycles += uint64(cycles)
	return cycles
}

func (c *CPU) stepRunning() int {
	// EI takes effect after the instruction that follows it
	if ime, promoted := c.ime.Promote(); promoted {
		c.ime = ime
		return c.execute()
	}

	if cycles, serviced := c.handleInterrupts(); serviced {
		return cycles
	}

	if c.state == Halted {
		return idleCycles
	}
	return c.execute()
}

func (c *CPU) stepStopped() int {
	if c.bus.Read(addr.IF)&interrupt.Joypad.Bit() == 0 {
		return idleCycles
	}
	c.state = Running
	return c.stepRunning()
}

// handleInterrupts wakes the CPU from HALT when an enabled interrupt is
// requested and, if IME is on, dispatches the highest priority one.
func (c *CPU) handleInterrupts() (int, bool) {
	ie := c.bus.Read(addr.IE)
	flags := c.bus.Read(addr.IF)

	src, ok := interrupt.Highest(ie, flags)
	if !ok {
		return 0, false
	}

	if c.state == Halted {
		c.state = Running
	}
	if c.ime != interrupt.Enabled {
		// HALT exits without servicing, IF is left alone
		return 0, false
	}

	c.bus.Write(addr.IF, flags&^src.Bit())
	c.ime = c.ime.Disable()
	c.pushStack(c.pc)
	c.pc = src.Vector()

	return interrupt.ServiceCycles, true
}

// execute fetches, decodes and runs one instruction.
func (c *CPU) execute() int {
	op := c.bus.Read(c.pc)
	if c.haltBug {
		// the byte after HALT is read twice
		c.haltBug = false
	} else {
		c.pc++
	}

	c.opcode = uint16(op)
	return opcodes[op](c)
}

// illegal handles the 11 unused opcodes, which hang the real hardware.
func illegal(c *CPU) int {
	slog.Error("Illegal opcode, CPU locked",
		"opcode", fmt.Sprintf("0x%02X", c.opcode),
		"pc", fmt.Sprintf("0x%04X", c.pc-1))
	c.state = Locked
	return idleCycles
}

// readImmediate returns the byte at PC ('n' in mnemonics) and advances PC
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord returns the little-endian word at PC ('nn' in mnemonics)
// and advances PC twice
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate returns the signed byte at PC ('e' in mnemonics)
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
		return
	}
	c.resetFlag(flag)
}

// setFlags replaces all four flags at once.
func (c *CPU) setFlags(z, n, h, cy bool) {
	c.f = 0
	c.setFlagToCondition(zeroFlag, z)
	c.setFlagToCondition(subFlag, n)
	c.setFlagToCondition(halfCarryFlag, h)
	c.setFlagToCondition(carryFlag, cy)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// SP returns the stack pointer.
func (c *CPU) SP() uint16 { return c.sp }

// AF returns the accumulator and flags.
func (c *CPU) AF() uint16 { return c.getAF() }

// Cycles returns the total cycles executed so far.
func (c *CPU) Cycles() uint64 { return c.cycles }

// State returns the current run state.
func (c *CPU) State() State { return c.state }

// IME returns the interrupt master enable state.
func (c *CPU) IME() interrupt.IME { return c.ime }

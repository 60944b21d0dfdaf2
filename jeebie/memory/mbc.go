package memory

import (
	"fmt"
	"time"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000

	// ramEnableValue is the low nibble that enables external RAM.
	ramEnableValue = 0x0A
)

// MBC represents a Memory Bank Controller. It receives every access to the
// ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF) windows.
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write writes a byte to the specified address. Writes to the ROM window
	// update bank registers, writes outside any register window are ignored.
	Write(addr uint16, value uint8)
}

// Battery is implemented by controllers whose RAM survives power off.
type Battery interface {
	// RAM returns a dump of the persistent state.
	RAM() []byte
	// LoadRAM restores a dump previously returned by RAM.
	LoadRAM(data []byte)
}

// Clock is the time source for the MBC3 real time clock.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

func newMBC(h *Header, rom []byte, clock Clock) MBC {
	switch h.MBC {
	case NoMBCType:
		return NewNoMBC(rom, h.RAMSize)
	case MBC1Type:
		return NewMBC1(rom, h.RAMSize)
	case MBC2Type:
		return NewMBC2(rom)
	case MBC3Type:
		return NewMBC3(rom, h.RAMSize, h.HasRTC, clock)
	case MBC5Type:
		return NewMBC5(rom, h.RAMSize, h.HasRumble)
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", h.MBC))
	}
}

// bankOffset computes bank*size + addr%size, wrapped to the backing store
// length so undersized images and out of range banks stay in bounds.
func bankOffset(bank int, size int, addr uint16, length int) int {
	return (bank*size + int(addr)%size) % length
}

func readBanked(data []byte, bank, size int, addr uint16) uint8 {
	if len(data) == 0 {
		return 0xFF
	}
	return data[bankOffset(bank, size, addr, len(data))]
}

func writeBanked(data []byte, bank, size int, addr uint16, value uint8) {
	if len(data) == 0 {
		return
	}
	data[bankOffset(bank, size, addr, len(data))] = value
}

func isROM(addr uint16) bool {
	return addr < 0x8000
}

func isExtRAM(addr uint16) bool {
	return addr >= 0xA000 && addr < 0xC000
}

// NoMBC represents cartridges with no memory banking capabilities: 32KB of
// ROM mapped directly, plus up to 8KB of RAM that is always enabled.
type NoMBC struct {
	rom []uint8
	ram []uint8
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(romData []uint8, ramSize int) *NoMBC {
	return &NoMBC{
		rom: romData,
		ram: make([]uint8, ramSize),
	}
}

func (m *NoMBC) Read(addr uint16) uint8 {
	switch {
	case isROM(addr):
		return readBanked(m.rom, 0, 0x8000, addr)
	case isExtRAM(addr):
		return readBanked(m.ram, 0, ramBankSize, addr)
	}
	return 0xFF
}

func (m *NoMBC) Write(addr uint16, value uint8) {
	if isExtRAM(addr) {
		writeBanked(m.ram, 0, ramBankSize, addr, value)
	}
}

func (m *NoMBC) RAM() []byte         { return cloneBytes(m.ram) }
func (m *NoMBC) LoadRAM(data []byte) { copy(m.ram, data) }

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package memory

const mbc2RAMSize = 512

// MBC2 supports up to 256KB ROM and has 512x4 bits of RAM built in.
// Address bit 8 decides whether a write to 0x0000-0x3FFF is a RAM enable
// (bit clear) or a ROM bank select (bit set). The RAM is mirrored across the
// whole 0xA000-0xBFFF window and only the low nibble of each cell exists.
type MBC2 struct {
	rom       []uint8
	ram       []uint8
	romBank   uint8
	ramEnable uint8
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(romData []uint8) *MBC2 {
	return &MBC2{
		rom:     romData,
		ram:     make([]uint8, mbc2RAMSize),
		romBank: 1,
	}
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return readBanked(m.rom, 0, romBankSize, addr)
	case addr < 0x8000:
		return readBanked(m.rom, int(m.romBank), romBankSize, addr)
	case isExtRAM(addr):
		if m.ramEnable != ramEnableValue {
			return 0xFF
		}
		return 0xF0 | m.ram[addr&0x1FF]
	}
	return 0xFF
}

func (m *MBC2) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			m.ramEnable = value & 0x0F
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case isExtRAM(addr):
		if m.ramEnable == ramEnableValue {
			m.ram[addr&0x1FF] = value & 0x0F
		}
	}
}

func (m *MBC2) RAM() []byte         { return cloneBytes(m.ram) }
func (m *MBC2) LoadRAM(data []byte) { copy(m.ram, data) }

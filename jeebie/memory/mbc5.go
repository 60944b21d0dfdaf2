package memory

// MBC5 supports up to 8MB ROM (9 bit bank number) and 128KB RAM.
// Unlike the other controllers, ROM bank 0 can be mapped at 0x4000.
// On rumble cartridges bit 3 of the RAM bank register drives the motor.
type MBC5 struct {
	rom       []uint8
	ram       []uint8
	romBank   uint16
	ramBank   uint8
	ramEnable uint8
	hasRumble bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(romData []uint8, ramSize int, hasRumble bool) *MBC5 {
	return &MBC5{
		rom:       romData,
		ram:       make([]uint8, ramSize),
		romBank:   1,
		hasRumble: hasRumble,
	}
}

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return readBanked(m.rom, 0, romBankSize, addr)
	case addr < 0x8000:
		return readBanked(m.rom, int(m.romBank), romBankSize, addr)
	case isExtRAM(addr):
		if m.ramEnable != ramEnableValue {
			return 0xFF
		}
		return readBanked(m.ram, int(m.ramBank), ramBankSize, addr)
	}
	return 0xFF
}

func (m *MBC5) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value & 0x0F
	case addr < 0x3000:
		m.romBank = m.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case addr < 0x6000:
		m.ramBank = value & 0x0F
		if m.hasRumble {
			m.ramBank &= 0x07
		}
	case isExtRAM(addr):
		if m.ramEnable == ramEnableValue {
			writeBanked(m.ram, int(m.ramBank), ramBankSize, addr, value)
		}
	}
}

func (m *MBC5) RAM() []byte         { return cloneBytes(m.ram) }
func (m *MBC5) LoadRAM(data []byte) { copy(m.ram, data) }

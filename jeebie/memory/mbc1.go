package memory

import "github.com/valerio/jeebie-color/jeebie/bit"

// MBC1 is the first and most common MBC chip.
//
// All its bank state lives in one packed byte:
//
//	bit 7    banking mode
//	bits 5-6 high bank field (RAM bank, or ROM bank bits 5-6)
//	bits 0-4 low ROM bank field
//
// In mode 0 the high field only extends the switchable ROM bank; 0x0000-0x3FFF
// shows bank 0 and RAM is fixed to bank 0. In mode 1 the high field also
// selects the bank at 0x0000-0x3FFF and the RAM bank.
type MBC1 struct {
	rom       []uint8
	ram       []uint8
	ramEnable uint8
	bank      uint8
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(romData []uint8, ramSize int) *MBC1 {
	return &MBC1{
		rom: romData,
		ram: make([]uint8, ramSize),
	}
}

func (m *MBC1) mode() uint8 {
	return bit.Value(7, m.bank)
}

func (m *MBC1) high() int {
	return int(bit.ExtractBits(m.bank, 6, 5))
}

func (m *MBC1) low() int {
	low := int(m.bank & 0x1F)
	if low == 0 {
		// only the 5 bit field is checked, so 0x20/0x40/0x60 become 0x21/0x41/0x61
		low = 1
	}
	return low
}

func (m *MBC1) romBank0() int {
	if m.mode() == 1 {
		return m.high() << 5
	}
	return 0
}

func (m *MBC1) romBankN() int {
	return m.high()<<5 | m.low()
}

func (m *MBC1) ramBank() int {
	if m.mode() == 1 {
		return m.high()
	}
	return 0
}

func (m *MBC1) ramEnabled() bool {
	return m.ramEnable == ramEnableValue
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return readBanked(m.rom, m.romBank0(), romBankSize, addr)
	case addr < 0x8000:
		return readBanked(m.rom, m.romBankN(), romBankSize, addr)
	case isExtRAM(addr):
		if !m.ramEnabled() {
			return 0xFF
		}
		return readBanked(m.ram, m.ramBank(), ramBankSize, addr)
	}
	return 0xFF
}

func (m *MBC1) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnable = value & 0x0F
	case addr < 0x4000:
		m.bank = m.bank&0xE0 | value&0x1F
	case addr < 0x6000:
		m.bank = m.bank&0x9F | (value&0x03)<<5
	case addr < 0x8000:
		m.bank = m.bank&0x7F | (value&0x01)<<7
	case isExtRAM(addr):
		if m.ramEnabled() {
			writeBanked(m.ram, m.ramBank(), ramBankSize, addr, value)
		}
	}
}

func (m *MBC1) RAM() []byte         { return cloneBytes(m.ram) }
func (m *MBC1) LoadRAM(data []byte) { copy(m.ram, data) }

package memory

import (
	"github.com/valerio/jeebie-color/jeebie/addr"
)

// initIO wires the register file. Anything not listed here is unmapped.
func (m *MMU) initIO() {
	for i := range m.io {
		m.io[i] = unmappedReg
	}

	m.delegate(addr.P1, func(uint16) uint8 { return m.Joypad.Read() },
		func(_ uint16, v uint8) { m.Joypad.Write(v) })

	for _, a := range []uint16{addr.SB, addr.SC} {
		m.delegate(a, m.Serial.Read, m.Serial.Write)
	}
	for _, a := range []uint16{addr.DIV, addr.TIMA, addr.TMA, addr.TAC} {
		m.delegate(a, m.timer.Read, m.timer.Write)
	}

	*m.ioReg(addr.IF) = ioReg{Unused: 0xE0, RoMask: 0xE0}

	for a := addr.AudioStart; a <= addr.WaveRAMEnd; a++ {
		m.delegate(a, m.APU.ReadRegister, m.APU.WriteRegister)
	}

	for _, a := range []uint16{addr.LCDC, addr.SCY, addr.SCX, addr.BGP, addr.OBP0, addr.OBP1, addr.WY, addr.WX} {
		*m.ioReg(a) = ioReg{}
	}
	// mode and coincidence bits belong to the PPU
	*m.ioReg(addr.STAT) = ioReg{Unused: 0x80, RoMask: 0x07}
	*m.ioReg(addr.LY) = ioReg{RoMask: 0xFF}
	*m.ioReg(addr.LYC) = ioReg{WriteCb: func(_, _ uint8) { m.compareLYC() }}
	*m.ioReg(addr.DMA) = ioReg{WriteCb: func(_, v uint8) { m.oamDMA(v) }}

	boot := m.ioReg(addr.BOOT)
	*boot = ioReg{
		Unused: 0xFE,
		WriteCb: func(old, v uint8) {
			// once unmapped the boot ROM stays gone
			boot.Value = (old | v) & 0x01
			if boot.Value != 0 {
				m.bootMapped = false
			}
		},
	}

	if m.model != ModelCGB {
		return
	}

	*m.ioReg(addr.KEY1) = ioReg{Unused: 0x7E, RoMask: 0x80}
	*m.ioReg(addr.VBK) = ioReg{
		Unused:  0xFE,
		WriteCb: func(_, v uint8) { m.vramBank = v & 0x01 },
	}
	*m.ioReg(addr.SVBK) = ioReg{
		Unused: 0xF8,
		WriteCb: func(_, v uint8) {
			m.wramBank = v & 0x07
			if m.wramBank == 0 {
				m.wramBank = 1
			}
		},
	}

	// source and destination are write only
	for _, a := range []uint16{addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4} {
		*m.ioReg(a) = ioReg{Unused: 0xFF}
	}
	*m.ioReg(addr.HDMA5) = ioReg{
		ReadCb:  func(uint8) uint8 { return m.hdma.status },
		WriteCb: func(_, v uint8) { m.startHDMA(v) },
	}

	m.colorRAM(addr.BCPS, addr.BCPD, &m.bgPalette)
	m.colorRAM(addr.OCPS, addr.OCPD, &m.objPalette)
}

// delegate routes a register to a component that owns its state.
func (m *MMU) delegate(a uint16, read func(uint16) uint8, write func(uint16, uint8)) {
	*m.ioReg(a) = ioReg{
		ReadCb:  func(uint8) uint8 { return read(a) },
		WriteCb: func(_, v uint8) { write(a, v) },
	}
}

func (m *MMU) colorRAM(index, data uint16, c *ColorRAM) {
	*m.ioReg(index) = ioReg{
		Unused:  0x40,
		ReadCb:  func(uint8) uint8 { return c.readIndex() },
		WriteCb: func(_, v uint8) { c.writeIndex(v) },
	}
	*m.ioReg(data) = ioReg{
		ReadCb:  func(uint8) uint8 { return c.readData() },
		WriteCb: func(_, v uint8) { c.writeData(v) },
	}
}

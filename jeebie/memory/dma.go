package memory

import (
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
)

const (
	oamSize     = 0xA0
	hdmaBlock   = 0x10
	hdmaIdle    = 0xFF
	hdmaHBlank  = 0x80
	hdmaLenMask = 0x7F
)

// oamDMA copies 160 bytes from value<<8 into OAM. The copy goes through the
// regular read path so the source can be ROM, any RAM or a banked window.
func (m *MMU) oamDMA(value uint8) {
	source := uint16(value) << 8
	if source >= addr.EchoStart {
		// sources above 0xDFFF hit the echo region
		source -= 0x2000
	}
	for i := range uint16(oamSize) {
		m.oam[i] = m.Read(source + i)
	}
}

// vramDMA holds the state of a CGB general purpose or HBlank transfer.
type vramDMA struct {
	source    uint16
	dest      uint16
	remaining uint8 // blocks left minus one
	active    bool  // an HBlank transfer is in progress
	status    uint8 // value read from HDMA5
}

func (m *MMU) hdmaSource() uint16 {
	return bit.Combine(m.io[addr.HDMA1-addr.IOStart].Value, m.io[addr.HDMA2-addr.IOStart].Value) & 0xFFF0
}

func (m *MMU) hdmaDest() uint16 {
	return bit.Combine(m.io[addr.HDMA3-addr.IOStart].Value, m.io[addr.HDMA4-addr.IOStart].Value)&0x1FF0 | addr.VRAMStart
}

// startHDMA handles writes to HDMA5.
func (m *MMU) startHDMA(value uint8) {
	if m.hdma.active && value&hdmaHBlank == 0 {
		// cancel, the remaining length stays readable with bit 7 set
		m.hdma.active = false
		m.hdma.status = hdmaHBlank | m.hdma.remaining
		return
	}

	m.hdma.source = m.hdmaSource()
	m.hdma.dest = m.hdmaDest()
	m.hdma.remaining = value & hdmaLenMask

	if value&hdmaHBlank == 0 {
		// general purpose DMA runs to completion right away
		for {
			m.copyHDMABlock()
			if m.hdma.remaining == 0 {
				break
			}
			m.hdma.remaining--
		}
		m.hdma.status = hdmaIdle
		return
	}

	m.hdma.active = true
	m.hdma.status = m.hdma.remaining
}

// hblankDMA transfers one block, called on every HBlank entry.
func (m *MMU) hblankDMA() {
	if !m.hdma.active {
		return
	}
	m.copyHDMABlock()
	if m.hdma.remaining == 0 {
		m.hdma.active = false
		m.hdma.status = hdmaIdle
		return
	}
	m.hdma.remaining--
	m.hdma.status = m.hdma.remaining
}

func (m *MMU) copyHDMABlock() {
	for range hdmaBlock {
		value := m.Read(m.hdma.source)
		m.vram[m.vramBank][m.hdma.dest&0x1FFF] = value
		m.hdma.source++
		m.hdma.dest = addr.VRAMStart | (m.hdma.dest+1)&0x1FFF
	}
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
)

func newTestMMU(t *testing.T, model Model) *MMU {
	t.Helper()
	cart, err := NewCartridge(testROM(0x1B, 0x02, 0x03), newFakeClock())
	require.NoError(t, err)
	return NewWithCartridge(cart, model)
}

func TestMMUPostBoot(t *testing.T) {
	m := newTestMMU(t, ModelDMG)

	assert.Equal(t, uint8(0x91), m.Read(addr.LCDC))
	assert.Equal(t, uint8(0xFC), m.Read(addr.BGP))
	assert.Equal(t, uint8(0xE1), m.Read(addr.IF))
	assert.Equal(t, uint8(0xF1), m.Read(addr.NR52))
	assert.Equal(t, uint8(0xFF), m.Read(addr.P1))
	assert.Equal(t, uint8(0xAB), m.Read(addr.DIV))
}

func TestMMUMemoryMap(t *testing.T) {
	m := newTestMMU(t, ModelDMG)

	t.Run("echo mirrors WRAM", func(t *testing.T) {
		m.Write(0xC123, 0x42)
		assert.Equal(t, uint8(0x42), m.Read(0xE123))
		m.Write(0xFDFF, 0x24)
		assert.Equal(t, uint8(0x24), m.Read(0xDDFF))
	})

	t.Run("unusable area", func(t *testing.T) {
		m.Write(0xFEA0, 0x12)
		assert.Equal(t, uint8(0xFF), m.Read(0xFEA0))
		assert.Equal(t, uint8(0xFF), m.Read(0xFEFF))
	})

	t.Run("HRAM and IE", func(t *testing.T) {
		m.Write(0xFF80, 0x01)
		m.Write(0xFFFE, 0x02)
		m.Write(addr.IE, 0x1F)
		assert.Equal(t, uint8(0x01), m.Read(0xFF80))
		assert.Equal(t, uint8(0x02), m.Read(0xFFFE))
		assert.Equal(t, uint8(0x1F), m.Read(addr.IE))
	})

	t.Run("unmapped registers", func(t *testing.T) {
		for _, a := range []uint16{0xFF03, 0xFF08, 0xFF4C, 0xFF7F} {
			m.Write(a, 0x00)
			assert.Equal(t, uint8(0xFF), m.Read(a), "0x%04X", a)
		}
	})

	t.Run("IF upper bits read as 1", func(t *testing.T) {
		m.Write(addr.IF, 0x00)
		assert.Equal(t, uint8(0xE0), m.Read(addr.IF))
		m.Write(addr.IF, 0xFF)
		assert.Equal(t, uint8(0xFF), m.Read(addr.IF))
	})

	t.Run("cartridge RAM", func(t *testing.T) {
		m.Write(0x0000, 0x0A)
		m.Write(0xA000, 0x99)
		assert.Equal(t, uint8(0x99), m.Read(0xA000))
	})

	t.Run("STAT low bits are read only", func(t *testing.T) {
		m.SetMode(3)
		m.Write(addr.STAT, 0x00)
		assert.Equal(t, uint8(0x83), m.Read(addr.STAT)&0x83)
	})
}

func TestMMUInterruptSources(t *testing.T) {
	tests := []struct {
		name    string
		trigger func(m *MMU)
		want    interrupt.Source
	}{
		{"timer", func(m *MMU) {
			m.SetTimerSeed(0)
			m.Write(addr.TAC, 0x05)
			m.Write(addr.TIMA, 0xFF)
			m.Tick(16)
		}, interrupt.Timer},
		{"serial", func(m *MMU) {
			m.Write(addr.SB, 'A')
			m.Write(addr.SC, 0x81)
		}, interrupt.Serial},
		{"joypad", func(m *MMU) {
			m.Write(addr.P1, 0x10)
			m.Joypad.Press(JoypadA)
		}, interrupt.Joypad},
		{"LYC written to match LY", func(m *MMU) {
			m.Write(addr.STAT, 0x40)
			m.SetLY(5)
			m.Write(addr.IF, 0x00)
			m.Write(addr.LYC, 5)
		}, interrupt.LCDStat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMMU(t, ModelDMG)
			m.Write(addr.IF, 0x00)
			tt.trigger(m)
			assert.Equal(t, 0xE0|tt.want.Bit(), m.Read(addr.IF))
		})
	}
}

func TestMMUCoincidence(t *testing.T) {
	m := newTestMMU(t, ModelDMG)
	m.Write(addr.LYC, 10)
	m.Write(addr.STAT, 0x40)
	m.Write(addr.IF, 0x00)

	m.SetLY(9)
	assert.Zero(t, m.Read(addr.STAT)&0x04)
	m.SetLY(10)
	assert.Equal(t, uint8(0x04), m.Read(addr.STAT)&0x04)
	assert.Equal(t, uint8(0xE2), m.Read(addr.IF))

	// no new edge while LY stays equal
	m.Write(addr.IF, 0x00)
	m.SetLY(10)
	assert.Equal(t, uint8(0xE0), m.Read(addr.IF))
}

func TestMMUOAMDMA(t *testing.T) {
	m := newTestMMU(t, ModelDMG)
	for i := range uint16(oamSize) {
		m.Write(0xC100+i, uint8(i))
	}

	m.Write(addr.DMA, 0xC1)
	for i := range oamSize {
		assert.Equal(t, uint8(i), m.ReadOAM(i))
	}

	// 0xE1 is the echo of 0xC1
	m.Write(0xC100, 0x55)
	m.Write(addr.DMA, 0xE1)
	assert.Equal(t, uint8(0x55), m.ReadOAM(0))
}

func TestMMUBanking(t *testing.T) {
	t.Run("CGB WRAM", func(t *testing.T) {
		m := newTestMMU(t, ModelCGB)
		m.Write(0xC000, 0xAA)
		for bank := uint8(1); bank < 8; bank++ {
			m.Write(addr.SVBK, bank)
			m.Write(0xD000, bank)
		}
		for bank := uint8(1); bank < 8; bank++ {
			m.Write(addr.SVBK, bank)
			assert.Equal(t, bank, m.Read(0xD000))
			assert.Equal(t, uint8(0xAA), m.Read(0xC000))
		}

		m.Write(addr.SVBK, 0)
		assert.Equal(t, uint8(1), m.Read(0xD000), "bank 0 selects bank 1")
		assert.Equal(t, uint8(0xF8), m.Read(addr.SVBK))
	})

	t.Run("CGB VRAM", func(t *testing.T) {
		m := newTestMMU(t, ModelCGB)
		m.Write(addr.VBK, 1)
		m.Write(0x8000, 0x05)
		assert.Equal(t, uint8(0xFF), m.Read(addr.VBK))

		m.Write(addr.VBK, 0)
		assert.Equal(t, uint8(0x00), m.Read(0x8000))
		assert.Equal(t, uint8(0x05), m.ReadVRAM(1, 0x8000))
		assert.Equal(t, uint8(0xFE), m.Read(addr.VBK))
	})

	t.Run("DMG ignores bank registers", func(t *testing.T) {
		m := newTestMMU(t, ModelDMG)
		m.Write(0xD000, 0x11)
		m.Write(addr.SVBK, 3)
		m.Write(addr.VBK, 1)
		assert.Equal(t, uint8(0x11), m.Read(0xD000))
		assert.Equal(t, uint8(0xFF), m.Read(addr.SVBK))
		assert.Equal(t, uint8(0xFF), m.Read(addr.VBK))
	})
}

func TestMMUColorRAM(t *testing.T) {
	m := newTestMMU(t, ModelCGB)

	m.Write(addr.BCPS, 0x80)
	assert.Equal(t, uint8(0xC0), m.Read(addr.BCPS))
	m.Write(addr.BCPD, 0x1F)
	m.Write(addr.BCPD, 0x00)
	assert.Equal(t, uint8(0xC2), m.Read(addr.BCPS))
	assert.Equal(t, uint16(0x001F), m.BGPalette().Color(0, 0))

	// wraps at 64 and keeps the increment flag
	m.Write(addr.OCPS, 0xBF)
	m.Write(addr.OCPD, 0x12)
	assert.Equal(t, uint8(0xC0), m.Read(addr.OCPS))
	assert.Equal(t, uint8(0x12), m.OBJPalette().Byte(63))

	// without auto increment the index stays
	m.Write(addr.BCPS, 0x04)
	m.Write(addr.BCPD, 0xE0)
	m.Write(addr.BCPD, 0x03)
	assert.Equal(t, uint8(0x44), m.Read(addr.BCPS))
	assert.Equal(t, uint8(0x03), m.Read(addr.BCPD))

	t.Run("unmapped on DMG", func(t *testing.T) {
		m := newTestMMU(t, ModelDMG)
		m.Write(addr.BCPS, 0x80)
		assert.Equal(t, uint8(0xFF), m.Read(addr.BCPS))
	})
}

func TestMMUVRAMDMA(t *testing.T) {
	setup := func(t *testing.T) *MMU {
		m := newTestMMU(t, ModelCGB)
		for i := range uint16(0x40) {
			m.Write(0xC000+i, uint8(i+1))
		}
		m.Write(addr.HDMA1, 0xC0)
		m.Write(addr.HDMA2, 0x00)
		m.Write(addr.HDMA3, 0x01)
		m.Write(addr.HDMA4, 0x00)
		return m
	}

	t.Run("general purpose", func(t *testing.T) {
		m := setup(t)
		m.Write(addr.HDMA5, 0x01)

		for i := range uint16(0x20) {
			assert.Equal(t, uint8(i+1), m.Read(0x8100+i))
		}
		assert.Equal(t, uint8(0x00), m.Read(0x8120))
		assert.Equal(t, uint8(0xFF), m.Read(addr.HDMA5))
		assert.Equal(t, uint8(0xFF), m.Read(addr.HDMA1), "source registers are write only")
	})

	t.Run("HBlank", func(t *testing.T) {
		m := setup(t)
		m.Write(addr.HDMA5, 0x81)
		assert.Equal(t, uint8(0x01), m.Read(addr.HDMA5))
		assert.Equal(t, uint8(0x00), m.Read(0x8100))

		m.SetMode(0)
		assert.Equal(t, uint8(0x00), m.Read(addr.HDMA5))
		assert.Equal(t, uint8(0x10), m.Read(0x810F))
		assert.Equal(t, uint8(0x00), m.Read(0x8110))

		m.SetMode(2)
		m.SetMode(0)
		assert.Equal(t, uint8(0xFF), m.Read(addr.HDMA5))
		assert.Equal(t, uint8(0x20), m.Read(0x811F))

		m.SetMode(0)
		assert.Equal(t, uint8(0x00), m.Read(0x8120), "transfer is over")
	})

	t.Run("cancel", func(t *testing.T) {
		m := setup(t)
		m.Write(addr.HDMA5, 0x83)
		m.SetMode(0)
		m.Write(addr.HDMA5, 0x00)
		assert.Equal(t, uint8(0x82), m.Read(addr.HDMA5))

		m.SetMode(0)
		assert.Equal(t, uint8(0x00), m.Read(0x8110))
	})
}

func TestMMUBootROM(t *testing.T) {
	m := newTestMMU(t, ModelDMG)
	boot := make([]byte, dmgBootSize)
	for i := range boot {
		boot[i] = 0xAA
	}

	m.SetBootROM(boot)
	assert.Equal(t, uint8(0xAA), m.Read(0x0000))
	assert.Equal(t, uint8(0xAA), m.Read(0x00FF))
	assert.Equal(t, uint8(0x00), m.Read(0x0100), "header shows through")
	assert.Equal(t, uint8(0x00), m.Read(addr.LCDC))

	m.Write(addr.BOOT, 0x01)
	assert.Equal(t, uint8(0x00), m.Read(0x0000))
	assert.Equal(t, uint8(0xFF), m.Read(addr.BOOT))

	m.Write(addr.BOOT, 0x00)
	assert.Equal(t, uint8(0x00), m.Read(0x0000), "cannot be mapped back")
}

func TestMMUSpeedSwitch(t *testing.T) {
	t.Run("CGB", func(t *testing.T) {
		m := newTestMMU(t, ModelCGB)
		assert.False(t, m.SwitchSpeed(), "not armed")

		m.Write(addr.KEY1, 0x01)
		assert.Equal(t, uint8(0x7F), m.Read(addr.KEY1))

		require.True(t, m.SwitchSpeed())
		assert.True(t, m.DoubleSpeed())
		assert.Equal(t, uint8(0xFE), m.Read(addr.KEY1))
		assert.Equal(t, uint8(0x00), m.Read(addr.DIV))

		m.Write(addr.KEY1, 0x01)
		require.True(t, m.SwitchSpeed())
		assert.False(t, m.DoubleSpeed())
	})

	t.Run("DMG", func(t *testing.T) {
		m := newTestMMU(t, ModelDMG)
		m.Write(addr.KEY1, 0x01)
		assert.False(t, m.SwitchSpeed())
		assert.False(t, m.DoubleSpeed())
	})
}

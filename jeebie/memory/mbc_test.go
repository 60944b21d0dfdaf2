package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bankedROM returns a ROM of n 16KB banks where each byte holds its bank number.
func bankedROM(n int) []byte {
	rom := make([]byte, n*romBankSize)
	for i := range rom {
		rom[i] = uint8(i / romBankSize)
	}
	return rom
}

func TestNoMBC(t *testing.T) {
	rom := bankedROM(2)
	mbc := NewNoMBC(rom, 0x2000)

	assert.Equal(t, uint8(0), mbc.Read(0x0000))
	assert.Equal(t, uint8(1), mbc.Read(0x7FFF))

	// bank writes are ignored
	mbc.Write(0x2000, 0x05)
	assert.Equal(t, uint8(1), mbc.Read(0x4000))

	mbc.Write(0xA010, 0x42)
	assert.Equal(t, uint8(0x42), mbc.Read(0xA010))

	t.Run("no RAM reads 0xFF", func(t *testing.T) {
		mbc := NewNoMBC(rom, 0)
		mbc.Write(0xA000, 0x42)
		assert.Equal(t, uint8(0xFF), mbc.Read(0xA000))
	})
}

func TestMBC1(t *testing.T) {
	t.Run("ROM Bank 0 (Fixed)", func(t *testing.T) {
		rom := make([]uint8, 0x8000)
		for i := range rom {
			rom[i] = uint8(i & 0xFF)
		}

		mbc := NewMBC1(rom, 0)

		for addr := uint16(0x0000); addr < 0x4000; addr++ {
			require.Equal(t, uint8(addr&0xFF), mbc.Read(addr), "Read(0x%04X)", addr)
		}
	})

	t.Run("ROM Bank Switching", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(128), 0)

		tests := []struct {
			name  string
			low   uint8
			high  uint8
			want0 uint8
			wantN uint8
		}{
			{"bank 0 maps to 1", 0x00, 0, 0, 1},
			{"bank 1", 0x01, 0, 0, 1},
			{"bank 3", 0x03, 0, 0, 3},
			{"only 5 bits are used", 0xE3, 0, 0, 3},
			{"high bits extend the bank", 0x02, 1, 0, 0x22},
			{"0x20 becomes 0x21", 0x00, 1, 0, 0x21},
			{"0x60 becomes 0x61", 0x00, 3, 0, 0x61},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mbc.Write(0x2000, tt.low)
				mbc.Write(0x4000, tt.high)
				assert.Equal(t, tt.want0, mbc.Read(0x0000))
				assert.Equal(t, tt.wantN, mbc.Read(0x4000))
			})
		}
	})

	t.Run("RAM Enable", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(4), 0x8000)

		mbc.Write(0xA000, 0x42)
		assert.Equal(t, uint8(0xFF), mbc.Read(0xA000), "RAM is disabled at power on")

		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x42)
		assert.Equal(t, uint8(0x42), mbc.Read(0xA000))

		// only the low nibble is compared
		mbc.Write(0x1FFF, 0xFA)
		assert.Equal(t, uint8(0x42), mbc.Read(0xA000))

		mbc.Write(0x0000, 0x00)
		assert.Equal(t, uint8(0xFF), mbc.Read(0xA000))
	})

	t.Run("packed bank register, mode 1 high 0", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(64), 0x8000)
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x11)

		// bank byte 0b1_00_00001
		mbc.Write(0x6000, 0x01)
		mbc.Write(0x4000, 0x00)
		mbc.Write(0x2000, 0x01)
		assert.Equal(t, uint8(0b1_00_00001), mbc.bank)

		assert.Equal(t, 0, mbc.romBank0())
		assert.Equal(t, 1, mbc.romBankN())
		assert.Equal(t, 0, mbc.ramBank())
		assert.Equal(t, uint8(0x11), mbc.Read(0xA000))
	})

	t.Run("mode 1 switches RAM and the low window", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(64), 0x8000)
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x11)

		mbc.Write(0x4000, 0x01)
		assert.Equal(t, uint8(0), mbc.Read(0x0000), "mode 0 keeps bank 0 low")
		assert.Equal(t, uint8(0x11), mbc.Read(0xA000), "mode 0 keeps RAM bank 0")

		mbc.Write(0x6000, 0x01)
		assert.Equal(t, uint8(0x20), mbc.Read(0x0000))
		assert.Equal(t, uint8(0x21), mbc.Read(0x4000))
		assert.Equal(t, 1, mbc.ramBank())

		mbc.Write(0xA000, 0x22)
		mbc.Write(0x6000, 0x00)
		assert.Equal(t, uint8(0x11), mbc.Read(0xA000))
		mbc.Write(0x6000, 0x01)
		assert.Equal(t, uint8(0x22), mbc.Read(0xA000))
	})

	t.Run("banks wrap to the ROM size", func(t *testing.T) {
		mbc := NewMBC1(bankedROM(4), 0)
		mbc.Write(0x2000, 0x05)
		assert.Equal(t, uint8(1), mbc.Read(0x4000))
	})
}

func TestMBC2(t *testing.T) {
	mbc := NewMBC2(bankedROM(16))

	t.Run("address bit 8 selects the register", func(t *testing.T) {
		mbc.Write(0x2100, 0x05)
		assert.Equal(t, uint8(5), mbc.Read(0x4000))

		// bit 8 clear is RAM enable, the bank stays
		mbc.Write(0x2000, 0x0A)
		assert.Equal(t, uint8(5), mbc.Read(0x4000))

		mbc.Write(0x0100, 0x00)
		assert.Equal(t, uint8(1), mbc.Read(0x4000), "bank 0 maps to 1")
	})

	t.Run("half byte RAM mirrored across the window", func(t *testing.T) {
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA001, 0xAB)
		assert.Equal(t, uint8(0xFB), mbc.Read(0xA001))
		assert.Equal(t, uint8(0xFB), mbc.Read(0xA201))
		assert.Equal(t, uint8(0xFB), mbc.Read(0xBE01))
	})
}

func TestMBC3(t *testing.T) {
	t.Run("ROM and RAM banks", func(t *testing.T) {
		mbc := NewMBC3(bankedROM(128), 0x8000, false, newFakeClock())

		mbc.Write(0x2000, 0x00)
		assert.Equal(t, uint8(1), mbc.Read(0x4000))
		mbc.Write(0x2000, 0x7F)
		assert.Equal(t, uint8(0x7F), mbc.Read(0x4000))

		mbc.Write(0x0000, 0x0A)
		mbc.Write(0x4000, 0x02)
		mbc.Write(0xA000, 0x33)
		mbc.Write(0x4000, 0x00)
		assert.Equal(t, uint8(0x00), mbc.Read(0xA000))
		mbc.Write(0x4000, 0x02)
		assert.Equal(t, uint8(0x33), mbc.Read(0xA000))

		// RTC registers do not exist without a clock
		mbc.Write(0x4000, 0x08)
		assert.Equal(t, uint8(0xFF), mbc.Read(0xA000))
	})

	readRTC := func(mbc *MBC3, reg uint8) uint8 {
		mbc.Write(0x4000, 0x08+reg)
		return mbc.Read(0xA000)
	}
	latch := func(mbc *MBC3) {
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
	}

	t.Run("latched clock", func(t *testing.T) {
		clock := newFakeClock()
		mbc := NewMBC3(bankedROM(4), 0x2000, true, clock)
		mbc.Write(0x0000, 0x0A)

		clock.Advance(24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second)
		latch(mbc)

		assert.Equal(t, uint8(4), readRTC(mbc, rtcSeconds))
		assert.Equal(t, uint8(3), readRTC(mbc, rtcMinutes))
		assert.Equal(t, uint8(2), readRTC(mbc, rtcHours))
		assert.Equal(t, uint8(1), readRTC(mbc, rtcDaysLow))
		assert.Equal(t, uint8(0), readRTC(mbc, rtcDaysHigh))

		clock.Advance(10 * time.Second)
		assert.Equal(t, uint8(4), readRTC(mbc, rtcSeconds), "reads see the latched copy")

		// writing 0x01 twice does not latch again
		mbc.Write(0x6000, 0x01)
		assert.Equal(t, uint8(4), readRTC(mbc, rtcSeconds))

		latch(mbc)
		assert.Equal(t, uint8(14), readRTC(mbc, rtcSeconds))
	})

	t.Run("halt stops the clock", func(t *testing.T) {
		clock := newFakeClock()
		mbc := NewMBC3(bankedROM(4), 0x2000, true, clock)
		mbc.Write(0x0000, 0x0A)

		mbc.Write(0x4000, 0x0C)
		mbc.Write(0xA000, rtcHaltBit)
		clock.Advance(time.Hour)
		latch(mbc)
		assert.Equal(t, uint8(0), readRTC(mbc, rtcSeconds))
		assert.Equal(t, uint8(0), readRTC(mbc, rtcHours))

		mbc.Write(0x4000, 0x0C)
		mbc.Write(0xA000, 0x00)
		clock.Advance(5 * time.Second)
		latch(mbc)
		assert.Equal(t, uint8(5), readRTC(mbc, rtcSeconds))
	})

	t.Run("day counter carry", func(t *testing.T) {
		clock := newFakeClock()
		mbc := NewMBC3(bankedROM(4), 0x2000, true, clock)
		mbc.Write(0x0000, 0x0A)

		mbc.Write(0x4000, 0x0B)
		mbc.Write(0xA000, 0xFF)
		mbc.Write(0x4000, 0x0C)
		mbc.Write(0xA000, 0x01)

		clock.Advance(24 * time.Hour)
		latch(mbc)
		assert.Equal(t, uint8(0), readRTC(mbc, rtcDaysLow))
		assert.Equal(t, uint8(rtcCarryBit), readRTC(mbc, rtcDaysHigh))
	})

	t.Run("battery dump carries the clock", func(t *testing.T) {
		clock := newFakeClock()
		mbc := NewMBC3(bankedROM(4), 0x2000, true, clock)
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0x4000, 0x00)
		mbc.Write(0xA000, 0x5A)
		clock.Advance(90 * time.Second)

		dump := mbc.RAM()
		require.Len(t, dump, 0x2000+rtcSaveSize)

		// an hour passes while the game is off
		clock.Advance(time.Hour)
		restored := NewMBC3(bankedROM(4), 0x2000, true, clock)
		restored.LoadRAM(dump)
		restored.Write(0x0000, 0x0A)
		latch(restored)

		assert.Equal(t, uint8(0x5A), restored.Read(0xA000))
		assert.Equal(t, uint8(30), readRTC(restored, rtcSeconds))
		assert.Equal(t, uint8(1), readRTC(restored, rtcMinutes))
		assert.Equal(t, uint8(1), readRTC(restored, rtcHours))
	})
}

func TestMBC5(t *testing.T) {
	mbc := NewMBC5(bankedROM(512), 0x20000, false)

	t.Run("bank 0 can be mapped high", func(t *testing.T) {
		mbc.Write(0x2000, 0x00)
		assert.Equal(t, uint8(0), mbc.Read(0x4000))
	})

	t.Run("9 bit ROM bank", func(t *testing.T) {
		rom := bankedROM(512)
		// mark the high banks so they differ from their low 8 bits
		rom[0x101*romBankSize] = 0xAB
		mbc := NewMBC5(rom, 0, false)

		mbc.Write(0x2000, 0x01)
		mbc.Write(0x3000, 0x01)
		assert.Equal(t, uint8(0xAB), mbc.Read(0x4000))

		mbc.Write(0x3000, 0x00)
		assert.Equal(t, uint8(0x01), mbc.Read(0x4000))
	})

	t.Run("16 RAM banks", func(t *testing.T) {
		mbc.Write(0x0000, 0x0A)
		for bank := range uint8(16) {
			mbc.Write(0x4000, bank)
			mbc.Write(0xA000, bank+0x10)
		}
		for bank := range uint8(16) {
			mbc.Write(0x4000, bank)
			assert.Equal(t, bank+0x10, mbc.Read(0xA000))
		}
	})

	t.Run("rumble bit is not a bank bit", func(t *testing.T) {
		mbc := NewMBC5(bankedROM(4), 0x20000, true)
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0x4000, 0x01)
		mbc.Write(0xA000, 0x77)
		mbc.Write(0x4000, 0x09)
		assert.Equal(t, uint8(0x77), mbc.Read(0xA000))
	})
}

func TestBattery(t *testing.T) {
	controllers := map[string]MBC{
		"NoMBC": NewNoMBC(bankedROM(2), 0x2000),
		"MBC1":  NewMBC1(bankedROM(4), 0x2000),
		"MBC2":  NewMBC2(bankedROM(4)),
		"MBC3":  NewMBC3(bankedROM(4), 0x2000, false, nil),
		"MBC5":  NewMBC5(bankedROM(4), 0x2000, false),
	}

	for name, mbc := range controllers {
		t.Run(name, func(t *testing.T) {
			battery, ok := mbc.(Battery)
			require.True(t, ok)

			mbc.Write(0x0000, 0x0A)
			mbc.Write(0xA000, 0x05)
			dump := battery.RAM()

			mbc.Write(0xA000, 0x00)
			battery.LoadRAM(dump)
			assert.Equal(t, uint8(0x05), mbc.Read(0xA000)&0x0F)
		})
	}
}

func TestRAMEnableLowNibble(t *testing.T) {
	// only the low 4 bits of the enable byte are decoded
	values := []struct {
		value   uint8
		enabled bool
	}{
		{0x0A, true},
		{0x1A, true},
		{0xFA, true},
		{0x0B, false},
		{0xA0, false},
		{0x00, false},
	}

	controllers := map[string]func() MBC{
		"MBC1": func() MBC { return NewMBC1(bankedROM(4), 0x2000) },
		"MBC2": func() MBC { return NewMBC2(bankedROM(4)) },
		"MBC3": func() MBC { return NewMBC3(bankedROM(4), 0x2000, false, nil) },
		"MBC5": func() MBC { return NewMBC5(bankedROM(4), 0x2000, false) },
	}

	for name, newMBC := range controllers {
		for _, tt := range values {
			t.Run(fmt.Sprintf("%s/0x%02X", name, tt.value), func(t *testing.T) {
				mbc := newMBC()
				mbc.Write(0x0000, 0x0A)
				mbc.Write(0xA000, 0x05)

				mbc.Write(0x0000, tt.value)
				want := uint8(0x0F)
				if tt.enabled {
					want = 0x05
				}
				assert.Equal(t, want, mbc.Read(0xA000)&0x0F)
			})
		}
	}
}

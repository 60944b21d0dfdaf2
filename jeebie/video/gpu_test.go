package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-color/jeebie/addr"
)

func TestModeTimeline(t *testing.T) {
	mmu := newTestMMU(false)
	g := NewGpu(mmu)

	steps := []struct {
		cycles int
		mode   GpuMode
		ly     int
	}{
		{0, oamRead, 0},
		{79, oamRead, 0},
		{1, vramRead, 0},
		{171, vramRead, 0},
		{1, hblank, 0},
		{203, hblank, 0},
		{1, oamRead, 1},
		{456 * 143, vblank, 144},
		{456*10 - 1, vblank, 153},
		{1, oamRead, 0},
	}

	for _, s := range steps {
		g.Step(s.cycles)
		require.Equal(t, s.mode, g.Mode(), "after +%d", s.cycles)
		require.Equal(t, s.ly, g.Line())
		assert.Equal(t, uint8(s.mode), mmu.Read(addr.STAT)&0x03)
		assert.Equal(t, uint8(s.ly), mmu.Read(addr.LY))
	}
}

func TestFrameLength(t *testing.T) {
	g := NewGpu(newTestMMU(false))

	cycles := 0
	for {
		cycles += 4
		if g.Step(4) {
			break
		}
		require.Less(t, g.FrameCycle(), FrameCycles)
	}
	assert.Equal(t, FrameCycles, cycles)
	assert.Equal(t, 0, g.FrameCycle())

	t.Run("large steps cross several boundaries", func(t *testing.T) {
		g := NewGpu(newTestMMU(false))
		assert.False(t, g.Step(FrameCycles-1))
		assert.True(t, g.Step(1))
	})
}

func TestInterrupts(t *testing.T) {
	t.Run("VBlank at line 144", func(t *testing.T) {
		mmu := newTestMMU(false)
		g := NewGpu(mmu)
		mmu.Write(addr.IF, 0)

		g.Step(456*144 - 4)
		assert.Equal(t, uint8(0), mmu.Read(addr.IF)&0x01)
		g.Step(4)
		assert.Equal(t, uint8(0x01), mmu.Read(addr.IF)&0x01)
	})

	tests := []struct {
		name   string
		enable uint8
		cycles int
	}{
		{"HBlank", 1 << statHBlankIRQ, hblankStart},
		{"VBlank", 1 << statVBlankIRQ, 456 * 144},
		{"OAM", 1 << statOAMIRQ, 456},
	}
	for _, tt := range tests {
		t.Run("STAT "+tt.name, func(t *testing.T) {
			mmu := newTestMMU(false)
			g := NewGpu(mmu)
			mmu.Write(addr.STAT, tt.enable)
			mmu.Write(addr.IF, 0)

			g.Step(tt.cycles - 1)
			assert.Equal(t, uint8(0), mmu.Read(addr.IF)&0x02)
			g.Step(1)
			assert.Equal(t, uint8(0x02), mmu.Read(addr.IF)&0x02)
		})
	}

	t.Run("LY=LYC", func(t *testing.T) {
		mmu := newTestMMU(false)
		g := NewGpu(mmu)
		mmu.Write(addr.LYC, 5)
		mmu.Write(addr.STAT, 0x40)
		mmu.Write(addr.IF, 0)

		g.Step(456*5 - 4)
		assert.Equal(t, uint8(0), mmu.Read(addr.IF)&0x02)
		g.Step(4)
		assert.Equal(t, uint8(0x02), mmu.Read(addr.IF)&0x02)
		assert.Equal(t, uint8(0x04), mmu.Read(addr.STAT)&0x04)
	})
}

func TestLCDOff(t *testing.T) {
	mmu := newTestMMU(false)
	g := NewGpu(mmu)
	writeTile(mmu, 0, 0xFF, 0xFF)
	runFrame(g)
	require.Equal(t, uint32(BlackColor), g.FrameBuffer().GetPixel(0, 0))

	g.Step(456 * 10)
	mmu.Write(addr.LCDC, 0x11)
	mmu.Write(addr.IF, 0)

	assert.False(t, g.Step(4))
	assert.Equal(t, uint8(0), mmu.Read(addr.LY))
	assert.Equal(t, uint8(0), mmu.Read(addr.STAT)&0x03)
	for _, px := range g.FrameBuffer().ToSlice() {
		require.Equal(t, uint32(WhiteColor), px)
	}

	assert.True(t, g.Step(FrameCycles-4), "frames keep their length with the LCD off")
	assert.Equal(t, uint8(0), mmu.Read(addr.IF)&0x03)

	mmu.Write(addr.LCDC, 0x91)
	g.Step(4)
	assert.Equal(t, oamRead, g.Mode())
	assert.Equal(t, 0, g.Line())
	runFrame(g)
	assert.Equal(t, uint32(BlackColor), g.FrameBuffer().GetPixel(0, 0))
}

func TestCGBColorExpansion(t *testing.T) {
	tests := []struct {
		in   uint16
		want GBColor
	}{
		{0x0000, 0x000000FF},
		{0x7FFF, 0xFFFFFFFF},
		{0x001F, 0xFF0000FF},
		{0x03E0, 0x00FF00FF},
		{0x7C00, 0x0000FFFF},
		{0x0010, 0x840000FF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cgbColor(tt.in), "0x%04X", tt.in)
	}
}

func TestShade(t *testing.T) {
	assert.Equal(t, uint8(0), shade(0xE4, 0))
	assert.Equal(t, uint8(1), shade(0xE4, 1))
	assert.Equal(t, uint8(3), shade(0xE4, 3))
	assert.Equal(t, uint8(0), shade(0x1B, 3))
}

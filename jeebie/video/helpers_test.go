package video

import (
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/memory"
)

var _ Bus = (*memory.MMU)(nil)

func newTestMMU(cgb bool) *memory.MMU {
	if !cgb {
		mmu := memory.New()
		for _, a := range []uint16{addr.BGP, addr.OBP0, addr.OBP1} {
			mmu.Write(a, 0xE4)
		}
		return mmu
	}
	rom := make([]byte, 0x8000)
	cart := &memory.Cartridge{
		Header: &memory.Header{Title: "TEST", MBC: memory.NoMBCType, ROMSize: len(rom)},
		ROM:    rom,
		MBC:    memory.NewNoMBC(rom, 0),
	}
	return memory.NewWithCartridge(cart, memory.ModelCGB)
}

// writeTile fills all 8 rows of tile n (from 0x8000) with the same bytes.
func writeTile(mmu *memory.MMU, n int, low, high uint8) {
	base := addr.VRAMStart + uint16(n*16)
	for row := range 8 {
		mmu.Write(base+uint16(row*2), low)
		mmu.Write(base+uint16(row*2)+1, high)
	}
}

// fillMap sets every entry of the tile map at base to tile.
func fillMap(mmu *memory.MMU, base uint16, tile uint8) {
	for i := range uint16(32 * 32) {
		mmu.Write(base+i, tile)
	}
}

// writeSprite stores sprite i at screen position (x, y).
func writeSprite(mmu *memory.MMU, i, x, y int, tile, flags uint8) {
	base := addr.OAMStart + uint16(i*4)
	mmu.Write(base, uint8(y+spriteYOffset))
	mmu.Write(base+1, uint8(x+spriteXOffset))
	mmu.Write(base+2, tile)
	mmu.Write(base+3, flags)
}

// writeColor stores a 15 bit color through the auto-incrementing palette port.
func writeColor(mmu *memory.MMU, index, data uint16, palette, color int, value uint16) {
	mmu.Write(index, 0x80|uint8(palette*8+color*2))
	mmu.Write(data, uint8(value))
	mmu.Write(data, uint8(value>>8))
}

func runFrame(g *GPU) {
	for !g.Step(4) {
	}
}

// testMMU shortens setup code in table tests.
type testMMU struct {
	*memory.MMU
}

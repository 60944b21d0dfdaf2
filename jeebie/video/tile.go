package video

import "github.com/valerio/jeebie-color/jeebie/bit"

// TileRow represents one row of a tile pattern (8 pixels).
//
// Game Boy tiles are 8x8 pixels, with 2 bits per pixel allowing 4 colors.
// Each tile row uses 2 bytes in a bit-plane format:
//
//	Byte 1 (Low):  Bit plane 0 - provides bit 0 of each pixel's color
//	Byte 2 (High): Bit plane 1 - provides bit 1 of each pixel's color
//
// Bit 7 represents the leftmost pixel, bit 0 the rightmost:
//
//	Bit:     7 6 5 4 3 2 1 0
//	Pixel:   0 1 2 3 4 5 6 7
//
// Example: Bytes $3C and $7E represent a row:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// On CGB the same pattern can live in either VRAM bank, the tile attribute
// (background) or sprite flags pick which one.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a pixel color (0-3) from the tile row.
// pixelX should be 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) uint8 {
	return t.pixelAt(uint8(7 - pixelX))
}

// GetPixelFlipped extracts a pixel color with horizontal flip.
func (t TileRow) GetPixelFlipped(pixelX int) uint8 {
	return t.pixelAt(uint8(pixelX))
}

// Pixel returns the color of pixelX, mirrored when flip is set.
func (t TileRow) Pixel(pixelX int, flip bool) uint8 {
	if flip {
		return t.GetPixelFlipped(pixelX)
	}
	return t.GetPixel(pixelX)
}

func (t TileRow) pixelAt(bitIndex uint8) uint8 {
	return bit.Value(bitIndex, t.Low) | bit.Value(bitIndex, t.High)<<1
}

// VRAMReader reads a VRAM bank directly, bypassing VBK.
type VRAMReader interface {
	ReadVRAM(bank int, address uint16) byte
}

// fetchTileRow reads row (0-15 for tall sprites) of the tile starting at
// tileAddr in the given VRAM bank.
func fetchTileRow(vram VRAMReader, bank int, tileAddr uint16, row int) TileRow {
	rowAddr := tileAddr + uint16(row*2)
	return TileRow{
		Low:  vram.ReadVRAM(bank, rowAddr),
		High: vram.ReadVRAM(bank, rowAddr+1),
	}
}

// bgTileAddress resolves a tile number through the tile data area chosen by
// LCDC bit 4: unsigned from 0x8000, or signed around 0x9000.
func bgTileAddress(tileNum uint8, unsignedArea bool) uint16 {
	if unsignedArea {
		return 0x8000 + uint16(tileNum)*16
	}
	return uint16(0x9000 + int(int8(tileNum))*16)
}

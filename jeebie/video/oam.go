package video

import (
	"github.com/valerio/jeebie-color/jeebie/bit"
)

const (
	spriteCount      = 40
	maxLineSprites   = 10
	spriteYOffset    = 16
	spriteXOffset    = 8
	oamBytesPerEntry = 4
)

// Sprite represents a single sprite/object in OAM memory.
// The Game Boy has 40 sprites stored in OAM (Object Attribute Memory) from 0xFE00-0xFE9F.
type Sprite struct {
	Y         int   // Y position on screen (OAM value - 16), may be negative
	X         int   // X position on screen (OAM value - 8), may be negative
	TileIndex uint8 // Tile/pattern number (0-255)
	Flags     uint8 // Attribute flags byte
	OAMIndex  int   // OAM index (0-39)
	Height    int   // Sprite height (8 or 16 pixels, from LCDC bit 2)

	// parsed attribute flags for convenience
	PaletteOBP1 bool  // DMG: false = OBP0, true = OBP1
	FlipX       bool  // horizontally flip the sprite
	FlipY       bool  // vertically flip the sprite
	BehindBG    bool  // true = sprite is behind background colors 1-3
	VRAMBank    int   // CGB: tile data bank
	CGBPalette  uint8 // CGB: object palette 0-7
}

func (s *Sprite) parseFlags() {
	s.CGBPalette = s.Flags & 0x07
	s.VRAMBank = int(bit.Value(3, s.Flags))
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// tileRowFor returns the tile and row inside the tile for a screen line the
// sprite covers, applying vertical flip and the 8x16 tile pairing.
func (s *Sprite) tileRowFor(line int) (tile uint8, row int) {
	row = line - s.Y
	if s.FlipY {
		row = s.Height - 1 - row
	}
	tile = s.TileIndex
	if s.Height == 16 {
		// the low bit is ignored, the pair is (tile&0xFE, tile|0x01)
		tile &= 0xFE
	}
	return tile, row
}

// OAMBus is the interface OAM needs for memory access
type OAMBus interface {
	ReadOAM(i int) byte
}

// OAM scans Object Attribute Memory for the sprites of a scanline.
type OAM struct {
	bus          OAMBus
	spriteBuffer [maxLineSprites]Sprite // scanline sprites (hardware limit is 10)
}

func NewOAM(bus OAMBus) *OAM {
	return &OAM{
		bus: bus,
	}
}

// GetSpritesForScanline returns, in OAM order, the first 10 sprites whose
// vertical extent covers scanline. Sprites off screen horizontally still
// count towards the limit.
func (o *OAM) GetSpritesForScanline(scanline, spriteHeight int) []Sprite {
	sprites := o.spriteBuffer[:0]

	for i := range spriteCount {
		spriteY := int(o.bus.ReadOAM(i*oamBytesPerEntry)) - spriteYOffset

		// sprite is visible if: spriteY <= scanline < spriteY + height
		if spriteY > scanline || scanline >= spriteY+spriteHeight {
			continue
		}

		sprites = append(sprites, o.readSprite(i, spriteHeight))
		if len(sprites) == maxLineSprites {
			break
		}
	}

	return sprites
}

func (o *OAM) readSprite(index, spriteHeight int) Sprite {
	base := index * oamBytesPerEntry

	sprite := Sprite{
		Y:         int(o.bus.ReadOAM(base)) - spriteYOffset,
		X:         int(o.bus.ReadOAM(base+1)) - spriteXOffset,
		TileIndex: o.bus.ReadOAM(base + 2),
		Flags:     o.bus.ReadOAM(base + 3),
		OAMIndex:  index,
		Height:    spriteHeight,
	}
	sprite.parseFlags()

	return sprite
}

// GetSprite returns a pointer to the sprite at the given index (0-39)
func (o *OAM) GetSprite(index, spriteHeight int) *Sprite {
	if index < 0 || index >= spriteCount {
		return nil
	}
	sprite := o.readSprite(index, spriteHeight)
	return &sprite
}

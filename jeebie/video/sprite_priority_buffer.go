package video

// SpritePriorityBuffer resolves which sprite is drawn on each pixel of a
// scanline, see https://gbdev.io/pandocs/OAM.html#drawing-priority.
//
// In DMG mode:
//   - sprites with lower X coordinates have priority
//   - when X coordinates match, lower OAM indices win.
//
// In CGB mode only the OAM index counts.
//
// Example: overlap with different X coordinates (DMG)
//
//	Pixels:     0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15 16 17
//	Sprite 0:                  [-----A-----]                    (X=5, OAM=0)
//	Sprite 1:                           [-----B-----]           (X=10, OAM=1)
//	Result:                    [-----A-----]--B-----]
//
// Only opaque pixels are offered to the buffer, so a transparent pixel of a
// higher priority sprite lets a lower priority one show through. Whatever
// wins here is then checked against the background.
type SpritePriorityBuffer struct {
	// ownerIndex tracks which sprite (by OAM index) owns each pixel
	// -1 means no sprite owns this pixel
	ownerIndex [FramebufferWidth]int

	// ownerX tracks the X coordinate of the sprite that owns each pixel
	ownerX [FramebufferWidth]int

	pixels  [FramebufferWidth]spritePixel
	byIndex bool
}

// spritePixel is what a sprite contributes to one screen pixel.
type spritePixel struct {
	color    uint8 // 1-3
	palette  uint8 // OBP0/OBP1 on DMG, 0-7 on CGB
	behindBG bool
}

// Clear resets the buffer for a new scanline. byIndex selects CGB ordering.
func (s *SpritePriorityBuffer) Clear(byIndex bool) {
	s.byIndex = byIndex
	for i := range FramebufferWidth {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// TryClaimPixel attempts to claim ownership of a pixel for a sprite.
// Returns true if the sprite wins priority and claims the pixel.
func (s *SpritePriorityBuffer) TryClaimPixel(pixelX int, sprite *Sprite, px spritePixel) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	if !s.wins(pixelX, sprite.OAMIndex, sprite.X) {
		return false
	}
	s.ownerIndex[pixelX] = sprite.OAMIndex
	s.ownerX[pixelX] = sprite.X
	s.pixels[pixelX] = px
	return true
}

func (s *SpritePriorityBuffer) wins(pixelX, spriteIndex, spriteX int) bool {
	currentOwner := s.ownerIndex[pixelX]
	if currentOwner == -1 {
		return true
	}
	if s.byIndex {
		return spriteIndex < currentOwner
	}

	currentX := s.ownerX[pixelX]
	if spriteX != currentX {
		return spriteX < currentX
	}
	return spriteIndex < currentOwner
}

// GetOwner returns the sprite index that owns a pixel, or -1 if none
func (s *SpritePriorityBuffer) GetOwner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}

// pixel returns the winning sprite pixel at pixelX, if any.
func (s *SpritePriorityBuffer) pixel(pixelX int) (spritePixel, bool) {
	if s.ownerIndex[pixelX] == -1 {
		return spritePixel{}, false
	}
	return s.pixels[pixelX], true
}

package video

import (
	"encoding/binary"
	"image"
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// GBColor is a pixel in 0xRRGGBBAA form.
type GBColor uint32

// DMG shades, lightest first.
const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// DefaultShades maps DMG color numbers 0-3 to screen colors.
var DefaultShades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// cgbColor converts a 15 bit BGR color RAM entry, expanding each 5 bit
// channel to 8 bits.
func cgbColor(c uint16) GBColor {
	expand := func(v uint16) uint32 {
		v &= 0x1F
		return uint32(v<<3 | v>>2)
	}
	r, g, b := expand(c), expand(c>>5), expand(c>>10)
	return GBColor(r<<24 | g<<16 | b<<8 | 0xFF)
}

type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

// NewFrameBuffer creates a screen sized frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferSize),
	}
}

func (fb *FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

// Fill sets every pixel to color.
func (fb *FrameBuffer) Fill(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(color)
	}
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// RGBA returns the pixels as R, G, B, A bytes, row by row.
func (fb *FrameBuffer) RGBA() []byte {
	out := make([]byte, len(fb.buffer)*4)
	for i, px := range fb.buffer {
		binary.BigEndian.PutUint32(out[i*4:], px)
	}
	return out
}

// Image returns a copy of the frame as an image.RGBA.
func (fb *FrameBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(fb.width), int(fb.height)))
	copy(img.Pix, fb.RGBA())
	return img
}

// Clone returns an independent copy of the frame.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	c := *fb
	c.buffer = append([]uint32(nil), fb.buffer...)
	return &c
}

package memory

const colorRAMSize = 64

// ColorRAM is one of the two CGB palette memories: 8 palettes of 4 colors,
// each color a little-endian 15 bit BGR value (5 bits per channel).
//
// It is reached through an index register (BCPS/OCPS) and a data register
// (BCPD/OCPD). Bit 7 of the index makes it advance after every data write.
type ColorRAM struct {
	data  [colorRAMSize]uint8
	index uint8
}

const autoIncrement = 0x80

func (c *ColorRAM) readIndex() uint8 {
	return c.index
}

func (c *ColorRAM) writeIndex(value uint8) {
	c.index = value & (autoIncrement | 0x3F)
}

func (c *ColorRAM) readData() uint8 {
	return c.data[c.index&0x3F]
}

func (c *ColorRAM) writeData(value uint8) {
	c.data[c.index&0x3F] = value
	if c.index&autoIncrement != 0 {
		c.index = c.index&autoIncrement | (c.index+1)&0x3F
	}
}

// Byte returns the raw byte at position i (0-63).
func (c *ColorRAM) Byte(i int) uint8 {
	return c.data[i&0x3F]
}

// Color returns the 15 bit color for a palette (0-7) and color index (0-3).
func (c *ColorRAM) Color(palette, index int) uint16 {
	offset := (palette&0x07)*8 + (index&0x03)*2
	return uint16(c.data[offset]) | uint16(c.data[offset+1])<<8
}

func (c *ColorRAM) fill(value uint8) {
	for i := range c.data {
		c.data[i] = value
	}
}

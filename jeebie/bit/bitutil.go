package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return (value>>index)&1 == 1
}

// IsSet16 is IsSet for 16 bit values.
func IsSet16(index, value uint16) bool {
	return (value>>index)&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Clear returns value with the bit at index set to 0.
func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// SetTo sets or clears the bit at index depending on cond.
func SetTo(index, value uint8, cond bool) uint8 {
	if cond {
		return Set(index, value)
	}
	return Clear(index, value)
}

// Value returns 1 if the bit at index is set, 0 otherwise.
func Value(index, value uint8) uint8 {
	return (value >> index) & 1
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> lowBit) & mask
}

// Reverse mirrors the bit order of a byte, used for horizontally flipped tiles.
func Reverse(value uint8) uint8 {
	value = (value&0xF0)>>4 | (value&0x0F)<<4
	value = (value&0xCC)>>2 | (value&0x33)<<2
	value = (value&0xAA)>>1 | (value&0x55)<<1
	return value
}

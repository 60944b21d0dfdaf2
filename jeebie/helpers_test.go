package jeebie

const (
	testCartType = 0x03 // MBC1+RAM+BATTERY
	testROMCode  = 0x00 // 32KB
	testRAMCode  = 0x02 // 8KB
)

// setupProgram sets BGP to E4, fills tile 1 with a row pattern that uses
// all four colors and puts tile 1 across the first row of the 9800 map.
var setupProgram = []byte{
	0x3E, 0xE4, // LD A,0xE4
	0xE0, 0x47, // LDH (BGP),A
	0x21, 0x10, 0x80, // LD HL,0x8010
	0x06, 0x08, // LD B,8
	0x3E, 0x55, // loop: LD A,0x55
	0x22,       // LD (HL+),A
	0x3E, 0x33, // LD A,0x33
	0x22,       // LD (HL+),A
	0x05,       // DEC B
	0x20, 0xF7, // JR NZ,loop
	0x21, 0x00, 0x98, // LD HL,0x9800
	0x3E, 0x01, // LD A,1
	0x06, 0x20, // LD B,32
	0x22,       // loop: LD (HL+),A
	0x05,       // DEC B
	0x20, 0xFC, // JR NZ,loop
}

// idleLoop spins forever.
var idleLoop = []byte{0x18, 0xFE}

// joypadScroll copies the d-pad lines into SCX forever, so the picture
// depends on the keys.
var joypadScroll = []byte{
	0x3E, 0x20, // loop: LD A,0x20
	0xE0, 0x00, // LDH (P1),A
	0xF0, 0x00, // LDH A,(P1)
	0xE0, 0x43, // LDH (SCX),A
	0x18, 0xF6, // JR loop
}

// buildROM assembles a 32KB image with a valid header that jumps from the
// entry point to code placed at 0x150.
func buildROM(cartType, ramCode uint8, code ...[]byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x100:], []byte{0x00, 0xC3, 0x50, 0x01}) // NOP; JP 0x0150
	copy(rom[0x134:], "JEEBIETEST")
	rom[0x147] = cartType
	rom[0x148] = testROMCode
	rom[0x149] = ramCode

	pc := 0x150
	for _, c := range code {
		pc += copy(rom[pc:], c)
	}

	var x uint8
	for _, b := range rom[0x134:0x14D] {
		x = x - b - 1
	}
	rom[0x14D] = x

	var sum uint16
	for i, b := range rom {
		if i == 0x14E || i == 0x14F {
			continue
		}
		sum += uint16(b)
	}
	rom[0x14E] = uint8(sum >> 8)
	rom[0x14F] = uint8(sum)
	return rom
}

package addr

// memory map boundaries
const (
	ROMBank0Start uint16 = 0x0000
	ROMBankNStart uint16 = 0x4000
	VRAMStart     uint16 = 0x8000
	ExtRAMStart   uint16 = 0xA000
	WRAMStart     uint16 = 0xC000
	WRAMBankN     uint16 = 0xD000
	EchoStart     uint16 = 0xE000
	// OAMStart is the start of OAM memory (40 sprites * 4 bytes each)
	OAMStart uint16 = 0xFE00
	// OAMEnd is the end of OAM memory
	OAMEnd      uint16 = 0xFE9F
	UnusedStart uint16 = 0xFEA0
	IOStart     uint16 = 0xFF00
	HRAMStart   uint16 = 0xFF80
	HRAMEnd     uint16 = 0xFFFE
)

// lcd registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate (readonly) register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register (DMG).
	BGP uint16 = 0xFF47
	// Object Palette 0 register (DMG).
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register (DMG).
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register (minus 7).
	WX uint16 = 0xFF4B
)

// CGB only registers
const (
	// KEY1 prepares a speed switch: bit 0 arms it, bit 7 is the current speed.
	KEY1 uint16 = 0xFF4D
	// VBK selects the VRAM bank mapped at 0x8000.
	VBK uint16 = 0xFF4F
	// BOOT unmaps the boot ROM when written with a non-zero value.
	BOOT uint16 = 0xFF50
	// HDMA1 and HDMA2 hold the VRAM DMA source (high, low).
	HDMA1 uint16 = 0xFF51
	HDMA2 uint16 = 0xFF52
	// HDMA3 and HDMA4 hold the VRAM DMA destination (high, low).
	HDMA3 uint16 = 0xFF53
	HDMA4 uint16 = 0xFF54
	// HDMA5 starts a VRAM DMA and holds its length/mode.
	HDMA5 uint16 = 0xFF55
	// BCPS is the background palette index (bit 7 auto-increments).
	BCPS uint16 = 0xFF68
	// BCPD is the background palette data at BCPS.
	BCPD uint16 = 0xFF69
	// OCPS is the object palette index (bit 7 auto-increments).
	OCPS uint16 = 0xFF6A
	// OCPD is the object palette data at OCPS.
	OCPD uint16 = 0xFF6B
	// SVBK selects the WRAM bank mapped at 0xD000.
	SVBK uint16 = 0xFF70
)

// Audio registers, the APU owns everything in this range.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // Channel 1 sweep
	NR11 uint16 = 0xFF11 // Channel 1 length timer & duty cycle
	NR12 uint16 = 0xFF12 // Channel 1 volume & envelope
	NR13 uint16 = 0xFF13 // Channel 1 period low
	NR14 uint16 = 0xFF14 // Channel 1 period high & control
	NR21 uint16 = 0xFF16 // Channel 2 length timer & duty cycle
	NR22 uint16 = 0xFF17 // Channel 2 volume & envelope
	NR23 uint16 = 0xFF18 // Channel 2 period low
	NR24 uint16 = 0xFF19 // Channel 2 period high & control
	NR30 uint16 = 0xFF1A // Channel 3 DAC enable
	NR31 uint16 = 0xFF1B // Channel 3 length timer
	NR32 uint16 = 0xFF1C // Channel 3 output level
	NR33 uint16 = 0xFF1D // Channel 3 period low
	NR34 uint16 = 0xFF1E // Channel 3 period high & control
	NR41 uint16 = 0xFF20 // Channel 4 length timer
	NR42 uint16 = 0xFF21 // Channel 4 volume & envelope
	NR43 uint16 = 0xFF22 // Channel 4 frequency & randomness
	NR44 uint16 = 0xFF23 // Channel 4 control
	NR50 uint16 = 0xFF24 // Master volume & VIN panning
	NR51 uint16 = 0xFF25 // Sound panning
	NR52 uint16 = 0xFF26 // Sound on/off

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// tile data and tile maps
const (
	// TileData0 is the start of unsigned tile data (tiles 0-255)
	TileData0 uint16 = 0x8000
	// TileData2 is the base of signed tile data (tiles -128 to 127)
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB holds the byte being shifted out; after a transfer it holds the received byte.
	SB uint16 = 0xFF01
	// SC controls the transfer: bit 7 starts it, bit 0 selects the internal clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Incremented 16384 times/s, writing to it resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. When TIMA overflows, this data will be loaded.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Used to start/stop and control the timer clock.
	TAC uint16 = 0xFF07
)

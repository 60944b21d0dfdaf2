package memory

import (
	"fmt"

	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/audio"
	"github.com/valerio/jeebie-color/jeebie/bit"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
	"github.com/valerio/jeebie-color/jeebie/serial"
)

// Model selects the hardware being emulated.
type Model uint8

const (
	ModelDMG Model = iota
	ModelCGB
)

func (m Model) String() string {
	if m == ModelCGB {
		return "CGB"
	}
	return "DMG"
}

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

const (
	vramBankSize = 0x2000
	wramBankSize = 0x1000
	hramSize     = 0x7F
	ioSize       = 0x80

	// dmgBootSize is the 256 byte boot image; the CGB one is 2304 bytes with
	// a hole at 0x100-0x1FF where the cartridge header shows through.
	dmgBootSize = 0x100
	cgbBootSize = 0x900
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU is the bus: every memory mapped component is reached through Read and
// Write, so bank switching, DMA and palette auto increment can't be bypassed.
type MMU struct {
	model     Model
	cart      *Cartridge
	regionMap [256]memRegion

	boot       []byte
	bootMapped bool

	vram     [2][vramBankSize]byte
	wram     [8][wramBankSize]byte
	oam      [oamSize]byte
	hram     [hramSize]byte
	io       [ioSize]ioReg
	ie       byte
	vramBank uint8
	wramBank uint8

	bgPalette  ColorRAM
	objPalette ColorRAM
	hdma       vramDMA

	doubleSpeed bool
	lycLine     bool

	APU    *audio.APU
	Serial SerialPort
	Joypad *Joypad
	timer  Timer
}

// New creates a new memory unit with no cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	return NewWithCartridge(emptyCartridge(), ModelDMG)
}

// NewWithCartridge creates a new memory unit with the provided cartridge
// loaded and the I/O registers in their post-boot state.
func NewWithCartridge(cart *Cartridge, model Model) *MMU {
	m := &MMU{
		model:    model,
		cart:     cart,
		APU:      audio.New(),
		wramBank: 1,
	}

	var serialOpts []serial.LogSinkOption
	if model == ModelCGB {
		serialOpts = append(serialOpts, serial.WithCGB())
	}
	m.Serial = serial.NewLogSink(func() { m.RequestInterrupt(interrupt.Serial) }, serialOpts...)
	m.Joypad = NewJoypad(func() { m.RequestInterrupt(interrupt.Joypad) })
	m.timer.OnOverflow = func() { m.RequestInterrupt(interrupt.Timer) }
	m.hdma.status = hdmaIdle

	initRegionMap(m)
	m.initIO()
	m.initPostBoot()
	return m
}

func initRegionMap(m *MMU) {
	for i := range m.regionMap {
		switch {
		case i <= 0x7F:
			m.regionMap[i] = regionROM
		case i <= 0x9F:
			m.regionMap[i] = regionVRAM
		case i <= 0xBF:
			m.regionMap[i] = regionExtRAM
		case i <= 0xDF:
			m.regionMap[i] = regionWRAM
		case i <= 0xFD:
			m.regionMap[i] = regionEcho
		case i == 0xFE:
			m.regionMap[i] = regionOAM
		default:
			m.regionMap[i] = regionIO
		}
	}
}

// initPostBoot puts the registers in the state the boot ROM leaves them.
func (m *MMU) initPostBoot() {
	m.ioReg(addr.LCDC).Value = 0x91
	m.ioReg(addr.BGP).Value = 0xFC
	m.ioReg(addr.OBP0).Value = 0xFF
	m.ioReg(addr.OBP1).Value = 0xFF
	m.ioReg(addr.IF).Value = 0x01
	m.ioReg(addr.BOOT).Value = 0x01
	m.bootMapped = false

	if m.model == ModelCGB {
		m.timer.SetSeed(0x1EA0)
		// the boot ROM leaves every color white
		m.bgPalette.fill(0xFF)
		m.objPalette.fill(0xFF)
	} else {
		m.timer.SetSeed(0xABCC)
	}
	m.compareLYC()
}

// SetBootROM maps a boot image over the cartridge until 0xFF50 is written,
// and resets the registers to their power-on state.
func (m *MMU) SetBootROM(boot []byte) {
	m.boot = boot
	m.bootMapped = len(boot) > 0
	if !m.bootMapped {
		return
	}
	m.ioReg(addr.LCDC).Value = 0x00
	m.ioReg(addr.STAT).Value = 0x00
	m.ioReg(addr.BGP).Value = 0x00
	m.ioReg(addr.IF).Value = 0x00
	m.ioReg(addr.BOOT).Value = 0x00
	m.bgPalette.fill(0x00)
	m.objPalette.fill(0x00)
	m.timer.SetSeed(0)
}

func (m *MMU) ioReg(address uint16) *ioReg {
	return &m.io[address-addr.IOStart]
}

// Model returns the hardware model this bus was built for.
func (m *MMU) Model() Model {
	return m.model
}

// CGB reports whether CGB features are active.
func (m *MMU) CGB() bool {
	return m.model == ModelCGB
}

// Cartridge returns the loaded cartridge.
func (m *MMU) Cartridge() *Cartridge {
	return m.cart
}

// Tick advances the components clocked at CPU speed.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	m.Serial.Tick(cycles)
}

// SetTimerSeed initializes the internal timer divider.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(src interrupt.Source) {
	m.ioReg(addr.IF).Value |= src.Bit()
}

// DoubleSpeed reports whether the CPU runs at twice the base clock.
func (m *MMU) DoubleSpeed() bool {
	return m.doubleSpeed
}

// SwitchSpeed performs the speed switch armed through KEY1. It returns false
// when no switch was requested, in which case STOP behaves normally.
func (m *MMU) SwitchSpeed() bool {
	key1 := m.ioReg(addr.KEY1)
	if m.model != ModelCGB || !bit.IsSet(0, key1.Value) {
		return false
	}
	m.doubleSpeed = !m.doubleSpeed
	key1.Value = 0
	if m.doubleSpeed {
		key1.Value = 0x80
	}
	// the divider is reset by STOP
	m.timer.Write(addr.DIV, 0)
	return true
}

// inBootROM reports whether address is served by the boot image.
func (m *MMU) inBootROM(address uint16) bool {
	if !m.bootMapped {
		return false
	}
	if address < dmgBootSize {
		return int(address) < len(m.boot)
	}
	return len(m.boot) >= cgbBootSize && address >= 0x200 && address < cgbBootSize
}

func (m *MMU) wramIndex(address uint16) (bank uint8, offset uint16) {
	if address < addr.WRAMBankN {
		return 0, address - addr.WRAMStart
	}
	return m.wramBank, address - addr.WRAMBankN
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.inBootROM(address) {
			return m.boot[address]
		}
		return m.cart.MBC.Read(address)
	case regionVRAM:
		return m.vram[m.vramBank][address-addr.VRAMStart]
	case regionExtRAM:
		return m.cart.MBC.Read(address)
	case regionWRAM:
		bank, offset := m.wramIndex(address)
		return m.wram[bank][offset]
	case regionEcho:
		return m.Read(address - 0x2000)
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.oam[address-addr.OAMStart]
		}
		// unusable area 0xFEA0-0xFEFF
		return 0xFF
	case regionIO:
		switch {
		case address == addr.IE:
			return m.ie
		case address >= addr.HRAMStart:
			return m.hram[address-addr.HRAMStart]
		default:
			return m.ioReg(address).read()
		}
	}
	panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.cart.MBC.Write(address, value)
	case regionVRAM:
		m.vram[m.vramBank][address-addr.VRAMStart] = value
	case regionWRAM:
		bank, offset := m.wramIndex(address)
		m.wram[bank][offset] = value
	case regionEcho:
		m.Write(address-0x2000, value)
	case regionOAM:
		if address <= addr.OAMEnd {
			m.oam[address-addr.OAMStart] = value
		}
	case regionIO:
		switch {
		case address == addr.IE:
			m.ie = value
		case address >= addr.HRAMStart:
			m.hram[address-addr.HRAMStart] = value
		default:
			m.ioReg(address).write(value)
		}
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

// ReadVRAM reads from a specific VRAM bank regardless of VBK.
func (m *MMU) ReadVRAM(bank int, address uint16) byte {
	return m.vram[bank&1][address&0x1FFF]
}

// ReadOAM reads OAM byte i (0-159).
func (m *MMU) ReadOAM(i int) byte {
	return m.oam[i]
}

// BGPalette returns the CGB background color RAM.
func (m *MMU) BGPalette() *ColorRAM {
	return &m.bgPalette
}

// OBJPalette returns the CGB object color RAM.
func (m *MMU) OBJPalette() *ColorRAM {
	return &m.objPalette
}

// SetLY is the PPU's write path into the read-only LY register.
func (m *MMU) SetLY(ly uint8) {
	m.ioReg(addr.LY).Value = ly
	m.compareLYC()
}

// SetMode updates the mode bits of STAT. Entering HBlank advances an
// active HBlank DMA.
func (m *MMU) SetMode(mode uint8) {
	stat := m.ioReg(addr.STAT)
	stat.Value = stat.Value&^0x03 | mode&0x03
	if mode == 0 {
		m.hblankDMA()
	}
}

// compareLYC updates the coincidence flag and requests LCD STAT on the
// rising edge of LY == LYC when STAT bit 6 enables it.
func (m *MMU) compareLYC() {
	stat := m.ioReg(addr.STAT)
	equal := m.ioReg(addr.LY).Value == m.ioReg(addr.LYC).Value
	stat.Value = bit.SetTo(2, stat.Value, equal)

	if equal && !m.lycLine && bit.IsSet(6, stat.Value) {
		m.RequestInterrupt(interrupt.LCDStat)
	}
	m.lycLine = equal
}

// LCDOff parks LY at 0 and STAT in mode 0 while the display is disabled.
// No interrupt is requested.
func (m *MMU) LCDOff() {
	m.ioReg(addr.LY).Value = 0
	stat := m.ioReg(addr.STAT)
	equal := m.ioReg(addr.LYC).Value == 0
	stat.Value = bit.SetTo(2, stat.Value&^0x03, equal)
	m.lycLine = equal
}

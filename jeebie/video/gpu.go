package video

import (
	"fmt"

	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
	"github.com/valerio/jeebie-color/jeebie/memory"
)

// GpuMode is the PPU mode, numbered as it appears in STAT bits 0-1.
type GpuMode uint8

const (
	hblank GpuMode = iota
	vblank
	oamRead
	vramRead
)

func (m GpuMode) String() string {
	switch m {
	case hblank:
		return "HBlank"
	case vblank:
		return "VBlank"
	case oamRead:
		return "OAM"
	case vramRead:
		return "Transfer"
	}
	return fmt.Sprintf("GpuMode(%d)", uint8(m))
}

const (
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = 456
	hblankStart        = oamScanlineCycles + vramScanlineCycles

	visibleLines = 144
	totalLines   = 154

	// FrameCycles is the length of a frame in PPU cycles.
	FrameCycles = scanlineCycles * totalLines
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (DMG) / BG master priority (CGB)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

// STAT interrupt enable bits.
const (
	statHBlankIRQ = 3
	statVBlankIRQ = 4
	statOAMIRQ    = 5
)

const (
	tileMap0 uint16 = 0x9800
	tileMap1 uint16 = 0x9C00
)

// Bus is the part of the MMU the GPU uses. LY and the STAT mode bits are
// read only to the CPU, so the GPU updates them through dedicated setters.
type Bus interface {
	Read(address uint16) byte
	ReadVRAM(bank int, address uint16) byte
	ReadOAM(i int) byte
	BGPalette() *memory.ColorRAM
	OBJPalette() *memory.ColorRAM
	CGB() bool
	RequestInterrupt(src interrupt.Source)
	SetLY(ly uint8)
	SetMode(mode uint8)
	LCDOff()
}

// bgPixel is a background or window pixel before palette lookup.
type bgPixel struct {
	color    uint8
	palette  uint8
	priority bool // CGB tile attribute bit 7
}

// GPU is the picture processing unit: it walks the scanline mode machine and
// draws each line into the framebuffer when it enters HBlank.
type GPU struct {
	bus         Bus
	oam         *OAM
	framebuffer *FrameBuffer
	sprites     SpritePriorityBuffer
	line        [FramebufferWidth]bgPixel
	shades      [4]GBColor

	ly         int
	cycles     int // position within the current line
	mode       GpuMode
	windowLine int // internal window counter, advances only when drawn
	lcdOn      bool
	offCycles  int // frame pacing while the LCD is off
}

func NewGpu(bus Bus) *GPU {
	g := &GPU{
		bus:         bus,
		oam:         NewOAM(bus),
		framebuffer: NewFrameBuffer(),
		shades:      DefaultShades,
	}
	g.lcdOn = g.readLCDCVariable(lcdDisplayEnable) == 1
	if g.lcdOn {
		g.mode = oamRead
		bus.SetMode(uint8(oamRead))
	} else {
		g.framebuffer.Fill(WhiteColor)
	}
	return g
}

// SetShades replaces the four DMG shades.
func (g *GPU) SetShades(shades [4]GBColor) {
	g.shades = shades
}

// FrameBuffer returns the buffer the GPU draws into.
func (g *GPU) FrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Mode returns the current mode.
func (g *GPU) Mode() GpuMode {
	return g.mode
}

// Line returns the current scanline (LY).
func (g *GPU) Line() int {
	return g.ly
}

// FrameCycle returns the position within the frame, always below FrameCycles.
func (g *GPU) FrameCycle() int {
	if !g.lcdOn {
		return g.offCycles
	}
	return g.ly*scanlineCycles + g.cycles
}

// Step simulates gpu behaviour for a certain amount of clock cycles.
// It returns true when a frame has been completed.
func (g *GPU) Step(cycles int) bool {
	if g.readLCDCVariable(lcdDisplayEnable) == 0 {
		if g.lcdOn {
			g.turnOff()
		}
		g.offCycles += cycles
		if g.offCycles >= FrameCycles {
			g.offCycles -= FrameCycles
			return true
		}
		return false
	}
	if !g.lcdOn {
		g.turnOn()
	}

	frameDone := false
	for cycles > 0 {
		n := min(cycles, g.nextEvent()-g.cycles)
		g.cycles += n
		cycles -= n
		if g.advance() {
			frameDone = true
		}
	}
	return frameDone
}

// nextEvent is the line cycle of the next mode change.
func (g *GPU) nextEvent() int {
	switch g.mode {
	case oamRead:
		return oamScanlineCycles
	case vramRead:
		return hblankStart
	default:
		return scanlineCycles
	}
}

// advance handles a mode boundary if one was reached. It reports whether
// the last line of the frame was completed.
func (g *GPU) advance() bool {
	if g.cycles < g.nextEvent() {
		return false
	}

	switch g.mode {
	case oamRead:
		g.setMode(vramRead)
	case vramRead:
		g.drawScanline()
		g.setMode(hblank)
	default:
		g.cycles = 0
		return g.nextLine()
	}
	return false
}

func (g *GPU) nextLine() bool {
	g.ly++

	switch {
	case g.ly == visibleLines:
		g.bus.SetLY(uint8(g.ly))
		g.setMode(vblank)
		g.bus.RequestInterrupt(interrupt.VBlank)
		return false
	case g.ly == totalLines:
		g.ly = 0
		g.windowLine = 0
		g.bus.SetLY(0)
		g.setMode(oamRead)
		return true
	case g.ly > visibleLines:
		g.bus.SetLY(uint8(g.ly))
		return false
	default:
		g.bus.SetLY(uint8(g.ly))
		g.setMode(oamRead)
		return false
	}
}

// setMode enters mode and fires the matching STAT interrupt if enabled.
func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	g.bus.SetMode(uint8(mode))

	irq := -1
	switch mode {
	case hblank:
		irq = statHBlankIRQ
	case vblank:
		irq = statVBlankIRQ
	case oamRead:
		irq = statOAMIRQ
	}
	if irq >= 0 && bit.IsSet(uint8(irq), g.bus.Read(addr.STAT)) {
		g.bus.RequestInterrupt(interrupt.LCDStat)
	}
}

func (g *GPU) turnOff() {
	g.lcdOn = false
	g.ly = 0
	g.cycles = 0
	g.mode = hblank
	g.offCycles = 0
	g.bus.LCDOff()
	g.framebuffer.Fill(WhiteColor)
}

func (g *GPU) turnOn() {
	g.lcdOn = true
	g.ly = 0
	g.cycles = 0
	g.windowLine = 0
	g.mode = oamRead
	g.bus.SetLY(0)
	g.bus.SetMode(uint8(oamRead))
}

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	return bit.Value(uint8(flag), g.bus.Read(addr.LCDC))
}

// drawScanline composes background, window and sprites for the current line.
func (g *GPU) drawScanline() {
	lcdc := g.bus.Read(addr.LCDC)
	cgb := g.bus.CGB()

	// on DMG bit 0 blanks background and window, on CGB it is the master priority
	bgOn := cgb || bit.IsSet(uint8(bgDisplay), lcdc)

	g.line = [FramebufferWidth]bgPixel{}
	if bgOn {
		g.drawBackground(lcdc, cgb)
		g.drawWindow(lcdc, cgb)
	}

	spritesOn := bit.IsSet(uint8(spriteDisplayEnable), lcdc)
	if spritesOn {
		g.drawSprites(lcdc, cgb)
	}

	g.compose(lcdc, cgb, spritesOn)
}

func (g *GPU) drawBackground(lcdc uint8, cgb bool) {
	mapBase := tileMap0
	if bit.IsSet(uint8(bgTileMapDisplaySelect), lcdc) {
		mapBase = tileMap1
	}
	scx := int(g.bus.Read(addr.SCX))
	y := (g.ly + int(g.bus.Read(addr.SCY))) & 0xFF

	for x := range FramebufferWidth {
		g.line[x] = g.tilePixel(mapBase, (x+scx)&0xFF, y, lcdc, cgb)
	}
}

func (g *GPU) drawWindow(lcdc uint8, cgb bool) {
	if !bit.IsSet(uint8(windowDisplayEnable), lcdc) {
		return
	}
	wy := int(g.bus.Read(addr.WY))
	wx := int(g.bus.Read(addr.WX)) - 7
	if g.ly < wy || wx >= FramebufferWidth {
		return
	}

	mapBase := tileMap0
	if bit.IsSet(uint8(windowTileMapSelect), lcdc) {
		mapBase = tileMap1
	}
	for x := max(wx, 0); x < FramebufferWidth; x++ {
		g.line[x] = g.tilePixel(mapBase, x-wx, g.windowLine, lcdc, cgb)
	}
	g.windowLine++
}

// tilePixel fetches the pixel at (x, y) of the 256x256 map at mapBase.
func (g *GPU) tilePixel(mapBase uint16, x, y int, lcdc uint8, cgb bool) bgPixel {
	mapAddr := mapBase + uint16(y/8*32+x/8)
	tileNum := g.bus.ReadVRAM(0, mapAddr)

	var attr uint8
	if cgb {
		attr = g.bus.ReadVRAM(1, mapAddr)
	}

	row := y % 8
	if bit.IsSet(6, attr) {
		row = 7 - row
	}
	tileAddr := bgTileAddress(tileNum, bit.IsSet(uint8(bgWindowTileDataSelect), lcdc))
	tile := fetchTileRow(g.bus, int(bit.Value(3, attr)), tileAddr, row)

	return bgPixel{
		color:    tile.Pixel(x%8, bit.IsSet(5, attr)),
		palette:  attr & 0x07,
		priority: bit.IsSet(7, attr),
	}
}

func (g *GPU) drawSprites(lcdc uint8, cgb bool) {
	height := 8
	if bit.IsSet(uint8(spriteSize), lcdc) {
		height = 16
	}

	g.sprites.Clear(cgb)
	sprites := g.oam.GetSpritesForScanline(g.ly, height)
	for i := range sprites {
		s := &sprites[i]
		tile, row := s.tileRowFor(g.ly)

		bank := 0
		palette := bit.Value(4, s.Flags)
		if cgb {
			bank = s.VRAMBank
			palette = s.CGBPalette
		}
		pattern := fetchTileRow(g.bus, bank, 0x8000+uint16(tile)*16, row)

		for px := range 8 {
			color := pattern.Pixel(px, s.FlipX)
			if color == 0 {
				continue
			}
			g.sprites.TryClaimPixel(s.X+px, s, spritePixel{
				color:    color,
				palette:  palette,
				behindBG: s.BehindBG,
			})
		}
	}
}

// compose resolves background against sprites and writes the final colors.
func (g *GPU) compose(lcdc uint8, cgb bool, spritesOn bool) {
	masterPriority := bit.IsSet(uint8(bgDisplay), lcdc)
	bgp := g.bus.Read(addr.BGP)
	y := uint(g.ly)

	for x := range FramebufferWidth {
		bg := g.line[x]

		sp, ok := spritePixel{}, false
		if spritesOn {
			sp, ok = g.sprites.pixel(x)
		}
		if ok && bg.color != 0 {
			if cgb {
				// with the master priority bit clear sprites are always on top
				ok = !masterPriority || !(bg.priority || sp.behindBG)
			} else {
				ok = !sp.behindBG
			}
		}

		var color GBColor
		switch {
		case ok && cgb:
			color = cgbColor(g.bus.OBJPalette().Color(int(sp.palette), int(sp.color)))
		case ok:
			obp := g.bus.Read(addr.OBP0)
			if sp.palette == 1 {
				obp = g.bus.Read(addr.OBP1)
			}
			color = g.shades[shade(obp, sp.color)]
		case cgb:
			color = cgbColor(g.bus.BGPalette().Color(int(bg.palette), int(bg.color)))
		default:
			color = g.shades[shade(bgp, bg.color)]
		}
		g.framebuffer.SetPixel(uint(x), y, color)
	}
}

// shade maps a color number through a DMG palette register.
func shade(palette, color uint8) uint8 {
	return palette >> (color * 2) & 0x03
}

package jeebie

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/valerio/jeebie-color/jeebie/cpu"
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
	"github.com/valerio/jeebie-color/jeebie/memory"
	"github.com/valerio/jeebie-color/jeebie/serial"
	"github.com/valerio/jeebie-color/jeebie/video"
)

var (
	// ErrNoBattery is returned when restoring RAM into a cartridge that has
	// no battery backed memory.
	ErrNoBattery = errors.New("cartridge has no battery")
	// ErrCGBOnly is returned when a CGB only cartridge is forced onto a DMG.
	ErrCGBOnly = errors.New("cartridge requires a Game Boy Color")
)

// ModelAuto picks the model from the cartridge header.
const ModelAuto = -1

type options struct {
	model   int
	bootROM []byte
	clock   memory.Clock
	shades  *[4]video.GBColor
	serial  *slog.Logger
}

// Option configures a GameBoy at construction.
type Option func(*options)

// WithModel forces the emulated hardware instead of following the header.
func WithModel(m memory.Model) Option {
	return func(o *options) { o.model = int(m) }
}

// WithBootROM runs the given boot image before the cartridge.
func WithBootROM(data []byte) Option {
	return func(o *options) { o.bootROM = data }
}

// WithClock sets the time source of the MBC3 real time clock.
func WithClock(c memory.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithShades replaces the four DMG grey levels.
func WithShades(shades [4]video.GBColor) Option {
	return func(o *options) { o.shades = &shades }
}

// WithSerialLogger routes link cable output to l.
func WithSerialLogger(l *slog.Logger) Option {
	return func(o *options) { o.serial = l }
}

// GameBoy is one emulated console with a cartridge inserted.
type GameBoy struct {
	bus      *Bus
	cart     *memory.Cartridge
	keys     memory.Keys
	frames   uint64
	identity string
}

// Load reads a ROM image (optionally compressed) and powers on a GameBoy
// with it.
func Load(path string, opts ...Option) (*GameBoy, error) {
	rom, err := memory.ReadROMFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading rom: %w", err)
	}
	return New(rom, opts...)
}

// New powers on a GameBoy with the given ROM image.
func New(rom []byte, opts ...Option) (*GameBoy, error) {
	o := options{model: ModelAuto}
	for _, opt := range opts {
		opt(&o)
	}

	cart, err := memory.NewCartridge(rom, o.clock)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	model := memory.ModelDMG
	switch {
	case o.model == ModelAuto:
		if cart.Header.CGBSupported() {
			model = memory.ModelCGB
		}
	case memory.Model(o.model) == memory.ModelDMG && cart.Header.CGBOnly():
		return nil, fmt.Errorf("%w: %s", ErrCGBOnly, cart.Header.Title)
	default:
		model = memory.Model(o.model)
	}

	mmu := memory.NewWithCartridge(cart, model)
	if o.serial != nil {
		var serialOpts []serial.LogSinkOption
		if model == memory.ModelCGB {
			serialOpts = append(serialOpts, serial.WithCGB())
		}
		serialOpts = append(serialOpts, serial.WithLogger(o.serial))
		mmu.Serial = serial.NewLogSink(func() { mmu.RequestInterrupt(interrupt.Serial) }, serialOpts...)
	}

	var c *cpu.CPU
	if len(o.bootROM) > 0 {
		mmu.SetBootROM(o.bootROM)
		c = cpu.NewAtReset(mmu)
	} else {
		c = cpu.New(mmu, model == memory.ModelCGB)
	}

	gb := &GameBoy{
		bus:      NewBus(mmu, c),
		cart:     cart,
		identity: CartridgeIdentity(cart.Header, cart.ROM),
	}
	if o.shades != nil {
		gb.bus.GPU.SetShades(*o.shades)
	}

	slog.Info("Powered on", "model", model, "title", cart.Header.Title, "boot_rom", len(o.bootROM) > 0)
	return gb, nil
}

// Simulate runs until the GPU completes one frame. Keys are sampled once,
// on entry, and the sample buffer starts over.
func (gb *GameBoy) Simulate() {
	gb.bus.MMU.Joypad.SetKeys(gb.keys)
	gb.bus.MMU.APU.BeginFrame()
	for {
		if _, frame := gb.bus.TickInstruction(); frame {
			break
		}
	}
	gb.frames++
}

// Screen returns the framebuffer of the last completed frame.
func (gb *GameBoy) Screen() *video.FrameBuffer {
	return gb.bus.GPU.FrameBuffer()
}

// Sound returns the samples produced by the last Simulate.
func (gb *GameBoy) Sound() []int16 {
	return gb.bus.MMU.APU.Samples()
}

// SetKeys replaces the set of pressed keys used by the next Simulate.
func (gb *GameBoy) SetKeys(keys memory.Keys) {
	gb.keys = keys
}

// Keys returns the set of pressed keys used by the next Simulate.
func (gb *GameBoy) Keys() memory.Keys {
	return gb.keys
}

// HandleAction presses or releases the button bound to act. Actions that
// are not Game Boy buttons are ignored.
func (gb *GameBoy) HandleAction(act action.Action, pressed bool) {
	key, ok := joypadKeys[act]
	if !ok {
		return
	}
	gb.keys = gb.keys.With(key, pressed)
}

var joypadKeys = map[action.Action]memory.JoypadKey{
	action.GBButtonA:      memory.JoypadA,
	action.GBButtonB:      memory.JoypadB,
	action.GBButtonStart:  memory.JoypadStart,
	action.GBButtonSelect: memory.JoypadSelect,
	action.GBDPadUp:       memory.JoypadUp,
	action.GBDPadDown:     memory.JoypadDown,
	action.GBDPadLeft:     memory.JoypadLeft,
	action.GBDPadRight:    memory.JoypadRight,
}

// HasBattery reports whether the cartridge keeps its RAM across power off.
func (gb *GameBoy) HasBattery() bool {
	_, ok := gb.cart.MBC.(memory.Battery)
	return ok && gb.cart.Header.HasBattery
}

// BatteryRAM dumps the battery backed memory. The second value is false
// when the cartridge has none.
func (gb *GameBoy) BatteryRAM() ([]byte, bool) {
	if !gb.HasBattery() {
		return nil, false
	}
	return gb.cart.MBC.(memory.Battery).RAM(), true
}

// LoadBatteryRAM restores a dump returned by BatteryRAM.
func (gb *GameBoy) LoadBatteryRAM(data []byte) error {
	if !gb.HasBattery() {
		return fmt.Errorf("%w: %s", ErrNoBattery, gb.cart.Header.Title)
	}
	gb.cart.MBC.(memory.Battery).LoadRAM(data)
	return nil
}

// Identity names the cartridge for save files: the title followed by a hash
// of the whole image, so revisions of one game don't share saves.
func (gb *GameBoy) Identity() string {
	return gb.identity
}

// Header returns the parsed cartridge header.
func (gb *GameBoy) Header() *memory.Header {
	return gb.cart.Header
}

// Model returns the emulated hardware.
func (gb *GameBoy) Model() memory.Model {
	return gb.bus.MMU.Model()
}

// Frames returns the number of completed Simulate calls.
func (gb *GameBoy) Frames() uint64 {
	return gb.frames
}

// CPU exposes the processor for inspection.
func (gb *GameBoy) CPU() *cpu.CPU {
	return gb.bus.CPU
}

// SerialOutput returns every byte sent over the link cable so far.
func (gb *GameBoy) SerialOutput() []byte {
	if sink, ok := gb.bus.MMU.Serial.(*serial.LogSink); ok {
		return sink.Output()
	}
	return nil
}

// CartridgeIdentity is the identity of a ROM image with header h, as returned
// by GameBoy.Identity.
func CartridgeIdentity(h *memory.Header, rom []byte) string {
	title := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		}
		return -1
	}, h.Title)
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("%s-%016x", title, xxhash.Sum64(rom))
}

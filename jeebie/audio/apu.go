package audio

import (
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
)

// readMasks holds, for FF10-FF2F, the bits that always read back as 1.
// Reference: https://gbdev.io/pandocs/Audio_Registers.html
var readMasks = [0x20]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // FF27-FF2F
}

// triggerRegisters are NRx4 for each channel, dacRegisters the register
// whose upper bits gate the channel's DAC.
var (
	triggerRegisters = [4]uint16{addr.NR14, addr.NR24, addr.NR34, addr.NR44}
	dacRegisters     = [4]uint16{addr.NR12, addr.NR22, addr.NR30, addr.NR42}
)

// APU latches the audio registers and fills one buffer of interleaved
// stereo samples per emulated frame. The buffer is reset by BeginFrame.
//
// Channel synthesis is not emulated: the buffer carries silence at the right
// rate so consumers can pace themselves on it.
type APU struct {
	registers [0x20]uint8
	waveRAM   [waveRAMSize]uint8
	powered   bool
	channels  uint8 // NR52 bits 0-3

	sampleClock int
	samples     []int16
}

// New creates a new APU instance with post-boot register values.
func New() *APU {
	a := &APU{
		samples: make([]int16, 0, samplesPerFrame*2),
	}
	a.initRegisters()
	return a
}

func (a *APU) initRegisters() {
	a.powered = true
	a.channels = 0x01
	a.registers[addr.NR10-addr.AudioStart] = 0x80
	a.registers[addr.NR11-addr.AudioStart] = 0xBF
	a.registers[addr.NR12-addr.AudioStart] = 0xF3
	a.registers[addr.NR14-addr.AudioStart] = 0xBF
	a.registers[addr.NR21-addr.AudioStart] = 0x3F
	a.registers[addr.NR24-addr.AudioStart] = 0xBF
	a.registers[addr.NR30-addr.AudioStart] = 0x7F
	a.registers[addr.NR31-addr.AudioStart] = 0xFF
	a.registers[addr.NR32-addr.AudioStart] = 0x9F
	a.registers[addr.NR34-addr.AudioStart] = 0xBF
	a.registers[addr.NR41-addr.AudioStart] = 0xFF
	a.registers[addr.NR44-addr.AudioStart] = 0xBF
	a.registers[addr.NR50-addr.AudioStart] = 0x77
	a.registers[addr.NR51-addr.AudioStart] = 0xF3
}

// Tick advances the sample clock by the given number of (single speed) cycles.
func (a *APU) Tick(cycles int) {
	a.sampleClock += cycles * SampleRate
	for a.sampleClock >= cpuFrequency {
		a.sampleClock -= cpuFrequency
		// left, right
		a.samples = append(a.samples, 0, 0)
	}
}

// ReadRegister reads from FF10-FF3F.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	if address < addr.AudioStart || address >= addr.WaveRAMStart {
		return 0xFF
	}

	index := address - addr.AudioStart
	if address == addr.NR52 {
		power := uint8(0)
		if a.powered {
			power = 0x80
		}
		return power | a.channels | readMasks[index]
	}
	return a.registers[index] | readMasks[index]
}

// WriteRegister writes to FF10-FF3F. While powered off only NR52 and wave
// RAM accept writes.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}
	if address < addr.AudioStart || address >= addr.WaveRAMStart {
		return
	}

	if address == addr.NR52 {
		a.setPower(bit.IsSet(7, value))
		return
	}
	if !a.powered {
		return
	}

	a.registers[address-addr.AudioStart] = value

	for ch, reg := range dacRegisters {
		if reg == address && !a.dacOn(ch) {
			a.channels = bit.Clear(uint8(ch), a.channels)
		}
	}
	for ch, reg := range triggerRegisters {
		if reg == address && bit.IsSet(7, value) && a.dacOn(ch) {
			a.channels = bit.Set(uint8(ch), a.channels)
		}
	}
}

func (a *APU) dacOn(ch int) bool {
	value := a.registers[dacRegisters[ch]-addr.AudioStart]
	if ch == 2 {
		return bit.IsSet(7, value)
	}
	return value&0xF8 != 0
}

func (a *APU) setPower(on bool) {
	if a.powered && !on {
		a.registers = [0x20]uint8{}
		a.channels = 0
	}
	a.powered = on
}

// BeginFrame discards the samples of the previous frame.
func (a *APU) BeginFrame() {
	a.samples = a.samples[:0]
}

// Samples returns a copy of the samples produced since BeginFrame,
// interleaved left/right.
func (a *APU) Samples() []int16 {
	out := make([]int16, len(a.samples))
	copy(out, a.samples)
	return out
}

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/interrupt"
)

func TestEILatency(t *testing.T) {
	cpu, bus := newTestCPU(0xFB, 0x00, 0x00) // EI; NOP; NOP
	bus.mem[addr.IE] = 0x01
	bus.mem[addr.IF] = 0x01

	assert.Equal(t, 4, cpu.Step())
	assert.Equal(t, interrupt.Scheduled, cpu.IME())

	// the instruction after EI runs first
	assert.Equal(t, 4, cpu.Step())
	assert.Equal(t, uint16(0x0102), cpu.PC())
	assert.Equal(t, interrupt.Enabled, cpu.IME())

	assert.Equal(t, interrupt.ServiceCycles, cpu.Step())
	assert.Equal(t, uint16(0x0040), cpu.PC())
	assert.Equal(t, interrupt.Disabled, cpu.IME())
	assert.Equal(t, uint8(0x00), bus.mem[addr.IF])
	assert.Equal(t, uint16(0x0102), cpu.popStack())
}

func TestEIThenDI(t *testing.T) {
	cpu, bus := newTestCPU(0xFB, 0xF3, 0x00) // EI; DI; NOP
	bus.mem[addr.IE] = 0x01
	bus.mem[addr.IF] = 0x01

	cpu.Step()
	cpu.Step()
	assert.Equal(t, interrupt.Disabled, cpu.IME())

	assert.Equal(t, 4, cpu.Step())
	assert.Equal(t, uint16(0x0103), cpu.PC())
	assert.Equal(t, uint8(0x01), bus.mem[addr.IF])
}

func TestInterruptPriority(t *testing.T) {
	tests := []struct {
		name   string
		ie, rf uint8
		vector uint16
		leftIF uint8
	}{
		{"VBlank over Timer", 0x1F, 0x05, 0x0040, 0x04},
		{"STAT over Serial", 0x1F, 0x0A, 0x0048, 0x08},
		{"Timer", 0x1F, 0x04, 0x0050, 0x00},
		{"Joypad", 0x1F, 0x10, 0x0060, 0x00},
		{"masked VBlank", 0x04, 0x05, 0x0050, 0x01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, bus := newTestCPU(0x00)
			bus.mem[addr.IE] = tt.ie
			bus.mem[addr.IF] = tt.rf
			cpu.ime = interrupt.Enabled

			assert.Equal(t, interrupt.ServiceCycles, cpu.Step())
			assert.Equal(t, tt.vector, cpu.PC())
			assert.Equal(t, tt.leftIF, bus.mem[addr.IF])
		})
	}
}

func TestNothingServicedWhenMasked(t *testing.T) {
	cpu, bus := newTestCPU(0x00)
	bus.mem[addr.IE] = 0x00
	bus.mem[addr.IF] = 0x1F
	cpu.ime = interrupt.Enabled

	assert.Equal(t, 4, cpu.Step())
	assert.Equal(t, uint16(0x0101), cpu.PC())
}

func TestRETIEnablesImmediately(t *testing.T) {
	cpu, bus := newTestCPU(0xD9) // RETI
	bus.mem[addr.IE] = 0x01
	bus.mem[addr.IF] = 0x01
	cpu.pushStack(0x1234)

	assert.Equal(t, 16, cpu.Step())
	assert.Equal(t, uint16(0x1234), cpu.PC())
	assert.Equal(t, interrupt.Enabled, cpu.IME())

	assert.Equal(t, interrupt.ServiceCycles, cpu.Step())
	assert.Equal(t, uint16(0x0040), cpu.PC())
}

func TestHalt(t *testing.T) {
	t.Run("wakes without IME and keeps IF", func(t *testing.T) {
		cpu, bus := newTestCPU(0x76, 0x00) // HALT; NOP
		bus.mem[addr.IE] = 0x04

		cpu.Step()
		require.Equal(t, Halted, cpu.State())

		for range 3 {
			assert.Equal(t, 4, cpu.Step())
		}
		assert.Equal(t, Halted, cpu.State())
		assert.Equal(t, uint16(0x0101), cpu.PC())

		bus.mem[addr.IF] = 0x04
		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, Running, cpu.State())
		assert.Equal(t, uint16(0x0102), cpu.PC())
		assert.Equal(t, uint8(0x04), bus.mem[addr.IF])
	})

	t.Run("wakes into the handler with IME", func(t *testing.T) {
		cpu, bus := newTestCPU(0x76, 0x00)
		bus.mem[addr.IE] = 0x04
		cpu.ime = interrupt.Enabled

		cpu.Step()
		bus.mem[addr.IF] = 0x04

		assert.Equal(t, interrupt.ServiceCycles, cpu.Step())
		assert.Equal(t, Running, cpu.State())
		assert.Equal(t, uint16(0x0050), cpu.PC())
		assert.Equal(t, uint16(0x0101), cpu.popStack())
	})

	t.Run("disabled sources do not wake", func(t *testing.T) {
		cpu, bus := newTestCPU(0x76, 0x00)
		bus.mem[addr.IE] = 0x01

		cpu.Step()
		bus.mem[addr.IF] = 0x04
		cpu.Step()
		assert.Equal(t, Halted, cpu.State())
	})

	t.Run("halt bug repeats the next byte", func(t *testing.T) {
		cpu, bus := newTestCPU(0x76, 0x3C, 0x00) // HALT; INC A; NOP
		bus.mem[addr.IE] = 0x01
		bus.mem[addr.IF] = 0x01
		cpu.a = 0x01

		cpu.Step()
		assert.Equal(t, Running, cpu.State())

		cpu.Step()
		assert.Equal(t, uint16(0x0101), cpu.PC())
		cpu.Step()
		assert.Equal(t, uint16(0x0102), cpu.PC())
		assert.Equal(t, uint8(0x03), cpu.a)
	})
}

func TestStop(t *testing.T) {
	t.Run("speed switch", func(t *testing.T) {
		cpu, bus := newTestCPU(0x10, 0x00, 0x00)
		bus.speedArmed = true

		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, Running, cpu.State())
		assert.Equal(t, uint16(0x0102), cpu.PC())
		assert.Equal(t, 1, bus.switches)
	})

	t.Run("waits for joypad", func(t *testing.T) {
		cpu, bus := newTestCPU(0x10, 0x00, 0x00)

		cpu.Step()
		require.Equal(t, Stopped, cpu.State())

		bus.mem[addr.IF] = 0x01
		assert.Equal(t, 4, cpu.Step())
		assert.Equal(t, Stopped, cpu.State(), "only the joypad line wakes STOP")

		bus.mem[addr.IF] = 0x10
		cpu.Step()
		assert.Equal(t, Running, cpu.State())
		assert.Equal(t, uint16(0x0103), cpu.PC())
	})
}

func TestCyclesAccumulate(t *testing.T) {
	cpu, _ := newTestCPU(0x00, 0x06, 0x01, 0xC3, 0x00, 0x01)

	cpu.Step()
	cpu.Step()
	cpu.Step()
	assert.Equal(t, uint64(4+8+16), cpu.Cycles())
}

package jeebie

import (
	"github.com/valerio/jeebie-color/jeebie/cpu"
	"github.com/valerio/jeebie-color/jeebie/memory"
	"github.com/valerio/jeebie-color/jeebie/video"
)

// Bus ties the clocked components together. Everything memory mapped is
// reached through the MMU, the CPU and GPU only hold it as their bus.
type Bus struct {
	CPU *cpu.CPU
	MMU *memory.MMU
	GPU *video.GPU
}

// NewBus wires a CPU and GPU onto mmu.
func NewBus(mmu *memory.MMU, c *cpu.CPU) *Bus {
	return &Bus{
		CPU: c,
		MMU: mmu,
		GPU: video.NewGpu(mmu),
	}
}

// TickInstruction executes one CPU instruction (or services one interrupt)
// and advances every other component by the time it took.
// The timer and serial port run on CPU cycles, the GPU and APU on the base
// clock, so in double speed mode they see half as many.
// Returns the cycles consumed and whether the GPU completed a frame.
func (b *Bus) TickInstruction() (int, bool) {
	cycles := b.CPU.Step()
	b.MMU.Tick(cycles)

	dots := cycles
	if b.MMU.DoubleSpeed() {
		dots >>= 1
	}
	frame := b.GPU.Step(dots)
	b.MMU.APU.Tick(dots)
	return cycles, frame
}

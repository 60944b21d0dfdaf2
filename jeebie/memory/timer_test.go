package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/jeebie-color/jeebie/addr"
)

func TestTimerDIV(t *testing.T) {
	var timer Timer

	timer.Tick(255)
	assert.Equal(t, uint8(0), timer.Read(addr.DIV))
	timer.Tick(1)
	assert.Equal(t, uint8(1), timer.Read(addr.DIV))

	timer.Tick(256 * 9)
	assert.Equal(t, uint8(10), timer.Read(addr.DIV))

	timer.Write(addr.DIV, 0x77)
	assert.Equal(t, uint8(0), timer.Read(addr.DIV), "any write resets DIV")
}

func TestTimerDIVRate(t *testing.T) {
	// one Tick(4) is one machine cycle; DIV counts at 16384 Hz
	tests := []struct {
		name    string
		mcycles int
		want    uint8
	}{
		{"63 machine cycles", 63, 0},
		{"64 machine cycles", 64, 1},
		{"256 machine cycles", 256, 4},
		{"wraps after 16384", 64 * 256, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var timer Timer
			for range tt.mcycles {
				timer.Tick(4)
			}
			assert.Equal(t, tt.want, timer.Read(addr.DIV))
		})
	}
}

func TestTimerTIMA(t *testing.T) {
	tests := []struct {
		name   string
		tac    uint8
		period int
	}{
		{"4096 Hz", 0x04, 1024},
		{"262144 Hz", 0x05, 16},
		{"65536 Hz", 0x06, 64},
		{"16384 Hz", 0x07, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var timer Timer
			timer.Write(addr.TAC, tt.tac)

			timer.Tick(tt.period - 1)
			assert.Equal(t, uint8(0), timer.Read(addr.TIMA))
			timer.Tick(1)
			assert.Equal(t, uint8(1), timer.Read(addr.TIMA))
			timer.Tick(tt.period * 3)
			assert.Equal(t, uint8(4), timer.Read(addr.TIMA))
		})
	}

	t.Run("disabled", func(t *testing.T) {
		var timer Timer
		timer.Write(addr.TAC, 0x01)
		timer.Tick(4096)
		assert.Equal(t, uint8(0), timer.Read(addr.TIMA))
		assert.Equal(t, uint8(0xF9), timer.Read(addr.TAC))
	})
}

func TestTimerOverflow(t *testing.T) {
	overflows := 0
	timer := Timer{OnOverflow: func() { overflows++ }}
	timer.Write(addr.TAC, 0x05)
	timer.Write(addr.TMA, 0x42)
	timer.Write(addr.TIMA, 0xFF)

	timer.Tick(15)
	assert.Equal(t, 0, overflows)
	timer.Tick(1)
	assert.Equal(t, 1, overflows)
	assert.Equal(t, uint8(0x42), timer.Read(addr.TIMA))
}

func TestTimerFallingEdgeOnWrite(t *testing.T) {
	t.Run("DIV reset", func(t *testing.T) {
		var timer Timer
		timer.Write(addr.TAC, 0x05)
		timer.Tick(8) // bit 3 now set
		timer.Write(addr.DIV, 0)
		assert.Equal(t, uint8(1), timer.Read(addr.TIMA))
	})

	t.Run("TAC disable", func(t *testing.T) {
		var timer Timer
		timer.Write(addr.TAC, 0x05)
		timer.Tick(8)
		timer.Write(addr.TAC, 0x01)
		assert.Equal(t, uint8(1), timer.Read(addr.TIMA))
	})
}

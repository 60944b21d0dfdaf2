package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/jeebie-color/jeebie/addr"
)

func TestLogSinkImmediate(t *testing.T) {
	irqs := 0
	s := NewLogSink(func() { irqs++ })

	for _, b := range []byte("ok\n") {
		s.Write(addr.SB, b)
		s.Write(addr.SC, 0x81)
	}

	assert.Equal(t, 3, irqs)
	assert.Equal(t, []byte("ok\n"), s.Output())
	assert.Equal(t, uint8(0xFF), s.Read(addr.SB))
	assert.Equal(t, uint8(0x7F), s.Read(addr.SC), "start bit cleared, unused bits set")
}

func TestLogSinkExternalClockNeverCompletes(t *testing.T) {
	irqs := 0
	s := NewLogSink(func() { irqs++ }, WithFixedTiming())

	s.Write(addr.SB, 'x')
	s.Write(addr.SC, 0x80)
	s.Tick(100000)

	assert.Equal(t, 0, irqs)
	assert.Empty(t, s.Output())
}

func TestLogSinkFixedTiming(t *testing.T) {
	tests := []struct {
		name   string
		opts   []LogSinkOption
		sc     uint8
		cycles int
	}{
		{"normal clock", nil, 0x81, normalTransferCycles},
		{"fast clock ignored on DMG", nil, 0x83, normalTransferCycles},
		{"fast clock on CGB", []LogSinkOption{WithCGB()}, 0x83, fastTransferCycles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			irqs := 0
			s := NewLogSink(func() { irqs++ }, append(tt.opts, WithFixedTiming())...)

			s.Write(addr.SB, 'a')
			s.Write(addr.SC, tt.sc)
			s.Tick(tt.cycles - 1)
			assert.Equal(t, 0, irqs)
			assert.True(t, s.Read(addr.SC)&0x80 != 0)

			s.Tick(1)
			assert.Equal(t, 1, irqs)
			assert.True(t, s.Read(addr.SC)&0x80 == 0)
		})
	}
}

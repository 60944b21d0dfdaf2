package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoypadRead(t *testing.T) {
	j := NewJoypad(nil)
	assert.Equal(t, uint8(0xFF), j.Read(), "nothing selected")

	j.Press(JoypadRight)
	j.Press(JoypadStart)

	tests := []struct {
		name string
		sel  uint8
		want uint8
	}{
		{"d-pad", 0x20, 0xEE},
		{"buttons", 0x10, 0xD7},
		{"both", 0x00, 0xC6},
		{"none", 0x30, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j.Write(tt.sel)
			assert.Equal(t, tt.want, j.Read())
		})
	}
}

func TestJoypadInterrupt(t *testing.T) {
	irqs := 0
	j := NewJoypad(func() { irqs++ })

	j.Write(0x20)
	j.Press(JoypadA)
	assert.Equal(t, 0, irqs, "buttons are not selected")

	j.Press(JoypadDown)
	assert.Equal(t, 1, irqs)

	j.Press(JoypadDown)
	assert.Equal(t, 1, irqs, "already low")

	j.Release(JoypadDown)
	assert.Equal(t, 1, irqs, "releases never interrupt")

	j.SetKeys(Keys(0).With(JoypadUp, true).With(JoypadLeft, true))
	assert.Equal(t, 2, irqs)
	assert.True(t, j.Keys().Pressed(JoypadUp))
	assert.False(t, j.Keys().Pressed(JoypadA))
}

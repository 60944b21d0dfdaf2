package jeebie

import (
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/video"
)

// Emulator is what a front-end drives: one Simulate per displayed frame.
type Emulator interface {
	Simulate()
	Screen() *video.FrameBuffer
	Sound() []int16
	HandleAction(act action.Action, pressed bool)
}

var _ Emulator = (*GameBoy)(nil)

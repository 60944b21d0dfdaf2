package timing

import (
	"fmt"
	"time"

	"github.com/valerio/jeebie-color/jeebie/video"
)

// Limiter paces the emulation loop to the real hardware frame rate.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}

// New returns the limiter called name: "adaptive", "ticker" or "none".
func New(name string) (Limiter, error) {
	switch name {
	case "adaptive", "":
		return NewAdaptiveLimiter(), nil
	case "ticker":
		return NewTickerLimiter(), nil
	case "none":
		return NewNoOpLimiter(), nil
	}
	return nil, fmt.Errorf("unknown frame limiter %q", name)
}

// CPUFrequency is the base clock in Hz. Double speed mode doesn't change the
// frame rate, the PPU keeps running on the base clock.
const CPUFrequency = 4194304

// TargetFPS calculates the exact Game Boy frame rate, about 59.73.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(video.FrameCycles)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

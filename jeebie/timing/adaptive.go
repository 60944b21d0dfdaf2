package timing

import (
	"log/slog"
	"time"
)

const (
	// below this the remaining wait is spun instead of slept
	spinThreshold = 2 * time.Millisecond
	// falling further behind than this drops the missed frames
	maxLag = 5 * time.Millisecond
	// how often drift is measured
	driftWindow = 60
	maxDrift    = 10 * time.Millisecond
)

// AdaptiveLimiter sleeps for most of the wait and spins for the last
// couple of milliseconds, correcting drift once a second.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return newAdaptiveLimiter(time.Now, time.Sleep)
}

func newAdaptiveLimiter(now func() time.Time, sleep func(time.Duration)) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   now(),
		now:             now,
		sleep:           sleep,
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	wait := a.nextFrameTime.Sub(now)

	switch {
	case wait > spinThreshold:
		a.sleep(wait - time.Millisecond)
		a.spin()
	case wait > 0:
		a.spin()
	case wait < -maxLag:
		// too far behind, don't try to catch up
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%driftWindow == 0 {
		drift := a.now().Sub(a.nextFrameTime)
		if drift.Abs() > maxDrift {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("Frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) spin() {
	for a.now().Before(a.nextFrameTime) {
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = a.now()
	a.frameCounter = 0
}

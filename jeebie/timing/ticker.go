package timing

import "time"

// TickerLimiter waits on a time.Ticker. Simpler than AdaptiveLimiter but
// the ticker drops ticks when the loop falls behind.
type TickerLimiter struct {
	ticker *time.Ticker
}

func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

// Reset restarts the period and discards a tick that piled up while paused.
func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
	select {
	case <-t.ticker.C:
	default:
	}
}

// Stop releases the ticker.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}

package input

import (
	"time"

	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/input/event"
)

// debounceDuration is the minimum time between two presses of the same
// emulator action.
const debounceDuration = 300 * time.Millisecond

// Handler applies debouncing to emulator actions. Game Boy buttons always
// pass, games poll them every frame and rely on fast repeats.
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
	now            func() time.Time
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  debounceDuration,
		now:            time.Now,
	}
}

// ProcessEvent reports whether the event should be handled, false if it was
// debounced. Only Press events of emulator actions are debounced.
func (h *Handler) ProcessEvent(act action.Action, evt event.Type) bool {
	if act.IsButton() || evt != event.Press {
		return true
	}

	now := h.now()
	if last, ok := h.lastActionTime[act]; ok && now.Sub(last) < h.debounceDelay {
		return false
	}
	h.lastActionTime[act] = now
	return true
}

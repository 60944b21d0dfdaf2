package backend

import (
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/input/event"
	"github.com/valerio/jeebie-color/jeebie/video"
)

// Backend represents a front-end platform: it shows frames and produces
// input events.
type Backend interface {
	// Init configures the backend. This is a required step before calling
	// Update.
	Init(config BackendConfig) error

	// Update renders the frame and returns the input events collected since
	// the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// InputEvent is an action triggered on the backend side.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title string
	// Bindings maps backend key names to actions.
	Bindings map[string]action.Action
}

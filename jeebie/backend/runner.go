package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/jeebie-color/jeebie"
	"github.com/valerio/jeebie-color/jeebie/input"
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/input/event"
	"github.com/valerio/jeebie-color/jeebie/timing"
)

// Runner drives an emulator with a backend, one Simulate per Update.
type Runner struct {
	Emulator jeebie.Emulator
	Backend  Backend
	Limiter  timing.Limiter

	// SnapshotDir and SnapshotScale configure the snapshot action.
	SnapshotDir   string
	SnapshotScale int
	SnapshotName  string

	// OnFrame is called after every emulated frame with the frame count.
	OnFrame func(frame uint64) error

	input  *input.Manager
	paused bool
	step   bool
	quit   bool
	frames uint64
}

// NewRunner wires the emulator as the target of the input manager.
func NewRunner(emu jeebie.Emulator, b Backend, limiter timing.Limiter) *Runner {
	r := &Runner{
		Emulator:      emu,
		Backend:       b,
		Limiter:       limiter,
		SnapshotScale: 1,
		SnapshotName:  "jeebie",
		input:         input.NewManager(emu),
	}
	r.input.On(action.EmulatorQuit, event.Press, func() { r.quit = true })
	r.input.On(action.EmulatorPauseToggle, event.Press, r.togglePause)
	r.input.On(action.EmulatorStepFrame, event.Press, func() { r.step = true })
	r.input.On(action.EmulatorSnapshot, event.Press, r.snapshot)
	return r
}

// Input returns the manager used to dispatch backend events.
func (r *Runner) Input() *input.Manager {
	return r.input
}

// Frames returns the number of frames emulated so far.
func (r *Runner) Frames() uint64 {
	return r.frames
}

// Run loops until the backend asks to quit or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.Limiter == nil {
		r.Limiter = timing.NewNoOpLimiter()
	}

	for !r.quit {
		if err := ctx.Err(); err != nil {
			slog.Info("Stopping", "reason", err)
			return nil
		}

		if !r.paused || r.step {
			r.step = false
			r.Emulator.Simulate()
			r.frames++
			if r.OnFrame != nil {
				if err := r.OnFrame(r.frames); err != nil {
					return fmt.Errorf("frame %d: %w", r.frames, err)
				}
			}
		}

		events, err := r.Backend.Update(r.Emulator.Screen())
		if err != nil {
			return fmt.Errorf("backend update: %w", err)
		}
		for _, evt := range events {
			r.input.Trigger(evt.Action, evt.Type)
		}

		r.Limiter.WaitForNextFrame()
	}
	return nil
}

func (r *Runner) togglePause() {
	r.paused = !r.paused
	if !r.paused {
		r.Limiter.Reset()
	}
	slog.Info("Pause toggled", "paused", r.paused, "frame", r.frames)
}

func (r *Runner) snapshot() {
	name := fmt.Sprintf("%s_%s_frame_%d", r.SnapshotName, time.Now().Format("20060102_150405"), r.frames)
	if _, err := SaveSnapshot(r.Emulator.Screen(), r.SnapshotDir, name, r.SnapshotScale); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}

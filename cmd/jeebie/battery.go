package main

import (
	"errors"
	"log/slog"

	"github.com/valerio/jeebie-color/jeebie"
	"github.com/valerio/jeebie-color/jeebie/saves"
)

// batterySaver keeps the cartridge RAM of a GameBoy in a save store.
type batterySaver struct {
	gb    *jeebie.GameBoy
	store *saves.Store
	every uint64
}

// newBatterySaver restores the save of gb, if there is one. every is the
// flush period in frames, 0 flushes only on exit.
func newBatterySaver(gb *jeebie.GameBoy, dir string, every int) (*batterySaver, error) {
	s := &batterySaver{gb: gb, every: uint64(every)}
	if !gb.HasBattery() {
		return s, nil
	}

	store, err := saves.NewStore(dir)
	if err != nil {
		return nil, err
	}
	s.store = store

	data, err := store.Load(gb.Identity())
	switch {
	case errors.Is(err, saves.ErrNoSave):
		slog.Info("No save found", "identity", gb.Identity())
		return s, nil
	case err != nil:
		return nil, err
	}
	if err := gb.LoadBatteryRAM(data); err != nil {
		return nil, err
	}
	slog.Info("Save restored", "path", store.Path(gb.Identity()), "bytes", len(data))
	return s, nil
}

// OnFrame flushes the RAM every s.every frames.
func (s *batterySaver) OnFrame(frame uint64) error {
	if s.every == 0 || frame%s.every != 0 {
		return nil
	}
	return s.Flush()
}

// Flush writes the RAM if it changed since the last write.
func (s *batterySaver) Flush() error {
	if s.store == nil {
		return nil
	}
	data, ok := s.gb.BatteryRAM()
	if !ok {
		return nil
	}
	written, err := s.store.SaveIfChanged(s.gb.Identity(), data)
	if err != nil {
		return err
	}
	if written {
		slog.Debug("Battery RAM saved", "identity", s.gb.Identity())
	}
	return nil
}

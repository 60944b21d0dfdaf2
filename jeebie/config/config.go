package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/memory"
	"github.com/valerio/jeebie-color/jeebie/video"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

const (
	appName     = "jeebie"
	cfgFilename = "config.toml"
)

type Config struct {
	Emulator EmulatorConfig `toml:"emulator"`
	Video    VideoConfig    `toml:"video"`
	Input    InputConfig    `toml:"input"`
}

type EmulatorConfig struct {
	// Model is "auto", "dmg" or "cgb".
	Model   string `toml:"model"`
	BootROM string `toml:"boot_rom"`
	SaveDir string `toml:"save_dir"`
	// SaveEvery flushes battery RAM every n frames, 0 only saves on exit.
	SaveEvery int `toml:"save_every_frames"`
}

type VideoConfig struct {
	// Palette holds the four DMG shades, lightest first, as RRGGBB hex.
	Palette []string `toml:"palette"`
	// Scale is the integer upscale applied to PNG snapshots.
	Scale int `toml:"snapshot_scale"`
	// Limiter is "adaptive", "ticker" or "none".
	Limiter string `toml:"limiter"`
}

type InputConfig struct {
	// Keys maps a key name to an action name, on top of the defaults.
	Keys map[string]string `toml:"keys"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Emulator: EmulatorConfig{
			Model:     "auto",
			SaveDir:   filepath.Join(Dir(), "saves"),
			SaveEvery: 600,
		},
		Video: VideoConfig{
			Palette: []string{"FFFFFF", "989898", "4C4C4C", "000000"},
			Scale:   4,
			Limiter: "adaptive",
		},
		Input: InputConfig{Keys: map[string]string{}},
	}
}

// Dir is where the config file and saves live by default.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(dir, appName)
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), cfgFilename)
}

// Load decodes the file at path over the defaults, so a partial file only
// overrides what it names.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("%w: unknown keys %v", ErrInvalid, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to the defaults when the file is
// missing. Other errors are returned together with the defaults.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("saving config %s: %w", path, err)
	}
	return f.Close()
}

// Validate checks every field that is parsed later.
func (c Config) Validate() error {
	if _, _, err := c.Model(); err != nil {
		return err
	}
	if _, err := c.Shades(); err != nil {
		return err
	}
	if _, err := c.KeyBindings(nil); err != nil {
		return err
	}
	if c.Video.Scale < 1 {
		return fmt.Errorf("%w: snapshot_scale must be at least 1, got %d", ErrInvalid, c.Video.Scale)
	}
	if c.Emulator.SaveEvery < 0 {
		return fmt.Errorf("%w: save_every_frames is negative", ErrInvalid)
	}
	switch c.Video.Limiter {
	case "adaptive", "ticker", "none":
	default:
		return fmt.Errorf("%w: unknown limiter %q", ErrInvalid, c.Video.Limiter)
	}
	return nil
}

// Model returns the hardware to emulate. forced is false for "auto", which
// leaves the choice to the cartridge header.
func (c Config) Model() (model memory.Model, forced bool, err error) {
	switch strings.ToLower(c.Emulator.Model) {
	case "", "auto":
		return memory.ModelDMG, false, nil
	case "dmg":
		return memory.ModelDMG, true, nil
	case "cgb":
		return memory.ModelCGB, true, nil
	}
	return 0, false, fmt.Errorf("%w: unknown model %q", ErrInvalid, c.Emulator.Model)
}

// Shades parses the DMG palette.
func (c Config) Shades() ([4]video.GBColor, error) {
	var shades [4]video.GBColor
	if len(c.Video.Palette) != len(shades) {
		return shades, fmt.Errorf("%w: palette needs 4 colors, got %d", ErrInvalid, len(c.Video.Palette))
	}
	for i, s := range c.Video.Palette {
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
		if err != nil || len(strings.TrimPrefix(s, "#")) != 6 {
			return shades, fmt.Errorf("%w: palette color %q is not RRGGBB", ErrInvalid, s)
		}
		shades[i] = video.GBColor(uint32(v)<<8 | 0xFF)
	}
	return shades, nil
}

// KeyBindings returns base extended with the configured overrides. base is
// not modified.
func (c Config) KeyBindings(base map[string]action.Action) (map[string]action.Action, error) {
	out := make(map[string]action.Action, len(base)+len(c.Input.Keys))
	for k, v := range base {
		out[k] = v
	}
	for key, name := range c.Input.Keys {
		act, err := action.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrInvalid, key, err)
		}
		out[key] = act
	}
	return out, nil
}

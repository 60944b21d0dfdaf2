package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/valerio/jeebie-color/jeebie"
	"github.com/valerio/jeebie-color/jeebie/backend"
	"github.com/valerio/jeebie-color/jeebie/backend/headless"
	"github.com/valerio/jeebie-color/jeebie/backend/terminal"
	"github.com/valerio/jeebie-color/jeebie/config"
	"github.com/valerio/jeebie-color/jeebie/input"
	"github.com/valerio/jeebie-color/jeebie/timing"
)

var romFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "model",
		Usage: "Hardware to emulate: auto, dmg or cgb (overrides the config)",
	},
	cli.StringFlag{
		Name:  "boot-rom",
		Usage: "Path to a boot ROM image to run before the cartridge",
	},
	cli.BoolFlag{
		Name:  "serial",
		Usage: "Log bytes sent over the link cable",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "jeebie"
	app.Description = "A Game Boy and Game Boy Color emulator"
	app.Usage = "jeebie [options] <ROM file>"
	app.Version = "2.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to the TOML config file",
			Value: config.DefaultPath(),
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
			Value: "info",
		},
	}
	app.Before = setupLogging
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Play a ROM in the terminal",
			ArgsUsage: "<ROM file>",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "snapshot-dir",
					Usage: "Directory for snapshots taken with F9",
				},
			}, romFlags...),
			Action: runTerminal,
		},
		{
			Name:      "headless",
			Usage:     "Run a ROM for a number of frames without a display",
			ArgsUsage: "<ROM file>",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "frames",
					Usage: "Number of frames to run (required)",
				},
				cli.IntFlag{
					Name:  "snapshot-interval",
					Usage: "Save a PNG every N frames (0 = disabled)",
				},
				cli.StringFlag{
					Name:  "snapshot-dir",
					Usage: "Directory to save frame snapshots (default: temp directory)",
				},
				cli.IntFlag{
					Name:  "scale",
					Usage: "Integer upscale of the snapshots (default: from config)",
				},
				cli.BoolFlag{
					Name:  "save",
					Usage: "Load and store battery RAM like the terminal mode does",
				},
			}, romFlags...),
			Action: runHeadless,
		},
		{
			Name:      "info",
			Usage:     "Print the cartridge headers of ROMs as JSON",
			ArgsUsage: "<ROM file>...",
			Action:    printInfo,
		},
	}
	// bare "jeebie game.gb" plays the ROM
	app.Action = runTerminal
	app.Flags = append(app.Flags, romFlags...)

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.GlobalString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// session is a powered on GameBoy together with the config it was built from.
type session struct {
	gb      *jeebie.GameBoy
	cfg     config.Config
	romPath string
}

func (s *session) romName() string {
	return strings.TrimSuffix(filepath.Base(s.romPath), filepath.Ext(s.romPath))
}

func openSession(c *cli.Context) (*session, error) {
	romPath := c.Args().First()
	if romPath == "" {
		cli.ShowAppHelp(c)
		return nil, errors.New("no ROM path provided")
	}

	cfg, err := config.LoadOrDefault(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if model := c.String("model"); model != "" {
		cfg.Emulator.Model = model
	}
	if bootROM := c.String("boot-rom"); bootROM != "" {
		cfg.Emulator.BootROM = bootROM
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := emulatorOptions(cfg)
	if err != nil {
		return nil, err
	}
	if c.Bool("serial") {
		opts = append(opts, jeebie.WithSerialLogger(slog.Default().With("component", "serial")))
	}

	gb, err := jeebie.Load(romPath, opts...)
	if err != nil {
		return nil, err
	}
	return &session{gb: gb, cfg: cfg, romPath: romPath}, nil
}

func emulatorOptions(cfg config.Config) ([]jeebie.Option, error) {
	var opts []jeebie.Option

	model, forced, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	if forced {
		opts = append(opts, jeebie.WithModel(model))
	}

	shades, err := cfg.Shades()
	if err != nil {
		return nil, err
	}
	opts = append(opts, jeebie.WithShades(shades))

	if cfg.Emulator.BootROM != "" {
		boot, err := os.ReadFile(cfg.Emulator.BootROM)
		if err != nil {
			return nil, fmt.Errorf("reading boot rom: %w", err)
		}
		opts = append(opts, jeebie.WithBootROM(boot))
	}
	return opts, nil
}

func runTerminal(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	saver, err := newBatterySaver(s.gb, s.cfg.Emulator.SaveDir, s.cfg.Emulator.SaveEvery)
	if err != nil {
		return err
	}

	bindings, err := s.cfg.KeyBindings(input.DefaultKeyMap)
	if err != nil {
		return err
	}
	limiter, err := timing.New(s.cfg.Video.Limiter)
	if err != nil {
		return err
	}
	if ticker, ok := limiter.(*timing.TickerLimiter); ok {
		defer ticker.Stop()
	}

	term := terminal.New()
	if err := term.Init(backend.BackendConfig{Title: s.gb.Header().Title, Bindings: bindings}); err != nil {
		return err
	}
	defer term.Cleanup()

	snapshotDir := c.String("snapshot-dir")
	if snapshotDir == "" {
		snapshotDir = filepath.Join(config.Dir(), "snapshots")
	}

	runner := backend.NewRunner(s.gb, term, limiter)
	runner.SnapshotDir = snapshotDir
	runner.SnapshotScale = s.cfg.Video.Scale
	runner.SnapshotName = s.romName()
	runner.OnFrame = saver.OnFrame

	// the terminal backend turns signals into a quit action
	runErr := runner.Run(context.Background())
	return errors.Join(runErr, saver.Flush())
}

func runHeadless(c *cli.Context) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}

	scale := c.Int("scale")
	if scale <= 0 {
		scale = s.cfg.Video.Scale
	}
	snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), s.romPath, scale)
	if err != nil {
		return err
	}

	b := headless.New(frames, snapshots)
	if err := b.Init(backend.BackendConfig{Title: s.gb.Header().Title}); err != nil {
		return err
	}
	defer b.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := backend.NewRunner(s.gb, b, timing.NewNoOpLimiter())
	if !c.Bool("save") {
		return runner.Run(ctx)
	}

	saver, err := newBatterySaver(s.gb, s.cfg.Emulator.SaveDir, s.cfg.Emulator.SaveEvery)
	if err != nil {
		return err
	}
	runner.OnFrame = saver.OnFrame
	runErr := runner.Run(ctx)
	return errors.Join(runErr, saver.Flush())
}

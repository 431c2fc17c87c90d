package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/castlerock/dmgcore/dmg"
	"github.com/castlerock/dmgcore/dmg/backend"
	"github.com/castlerock/dmgcore/dmg/backend/headless"
	"github.com/castlerock/dmgcore/dmg/input/action"
	"github.com/castlerock/dmgcore/dmg/input/event"
	"github.com/castlerock/dmgcore/dmg/render"
)

func main() {
	app := cli.NewApp()
	app.Name = "Jeebie"
	app.Description = "A simple gameboy emulator"
	app.Usage = "jeebie [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "test-pattern",
			Usage: "Display a test pattern instead of emulation (for debugging display)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("error running emulator", "error", err)
		if errors.Is(err, jeebie.ErrUnsupportedMBC) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	if c.Bool("test-pattern") {
		slog.Info("running in test pattern mode")
		return render.RunTestPattern()
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	if c.Bool("headless") {
		return runHeadless(c, romPath)
	}

	emu, err := jeebie.NewWithFile(romPath)
	if err != nil {
		return err
	}

	renderer, err := render.NewTerminalRenderer(emu)
	if err != nil {
		return err
	}
	return renderer.Run()
}

// runHeadless drives the emulator through the headless backend: no window,
// no interactive input, just a fixed frame budget and optional periodic PNG
// snapshots, until the backend signals EmulatorQuit.
func runHeadless(c *cli.Context, romPath string) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	snapshotConfig, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
	if err != nil {
		return err
	}

	emu, err := jeebie.NewWithFile(romPath)
	if err != nil {
		return err
	}

	b := headless.New(frames, snapshotConfig)
	if err := b.Init(backend.BackendConfig{DebugProvider: emu}); err != nil {
		return err
	}
	defer b.Cleanup()

	for {
		frame := emu.RunFrame()

		events, err := b.Update(frame)
		if err != nil {
			return err
		}

		quit := false
		for _, ev := range events {
			if ev.Action == action.EmulatorQuit && ev.Type == event.Press {
				quit = true
			}
		}
		if quit {
			return nil
		}
	}
}

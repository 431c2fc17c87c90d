package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/castlerock/dmgcore/dmg"
	"github.com/castlerock/dmgcore/dmg/render"
)

// This is the simple entry point: load a ROM and drop straight into the
// terminal player, no headless/snapshot options. cmd/jeebie carries those.
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
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
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

// Package headless implements a backend.Backend suited to batch processing
// and automated ROM testing: no window, no real input, optional periodic
// PNG snapshots, and a frame budget after which it signals quit.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/castlerock/dmgcore/dmg/backend"
	"github.com/castlerock/dmgcore/dmg/debug"
	"github.com/castlerock/dmgcore/dmg/input/action"
	"github.com/castlerock/dmgcore/dmg/input/event"
	"github.com/castlerock/dmgcore/dmg/video"
)

// SnapshotConfig controls periodic PNG frame dumps in headless mode.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int
	Directory string
	ROMName   string
}

// CreateSnapshotConfig builds a SnapshotConfig from CLI parameters, creating
// the snapshot directory (a fresh temp dir if none was given) when enabled.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "jeebie-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	romName := filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(romName, filepath.Ext(romName))

	return config, nil
}

// Backend is the headless backend.
type Backend struct {
	config         backend.BackendConfig
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
}

// New returns a headless backend that quits after maxFrames frames,
// optionally saving PNG snapshots per snapshotConfig along the way.
func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	if config.TestPattern {
		slog.Info("headless test pattern mode, exiting after first frame")
		return nil
	}

	slog.Info("running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)

	return nil
}

// Update advances the frame counter, saves a snapshot if due, and signals
// EmulatorQuit once maxFrames has been reached.
func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	if h.config.TestPattern {
		return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, nil
	}

	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%10 == 0 {
		slog.Info("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	var events []backend.InputEvent
	if h.frameCount >= h.maxFrames {
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(frame)
		}

		if h.snapshotConfig.Enabled {
			slog.Info("headless execution completed", "frames", h.maxFrames, "snapshots_saved_to", h.snapshotConfig.Directory)
		} else {
			slog.Info("headless execution completed", "frames", h.maxFrames)
		}

		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	return events, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer) {
	baseName := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.ROMName, h.frameCount)

	if err := debug.SaveFramePNGToDir(frame, baseName, h.snapshotConfig.Directory); err != nil {
		slog.Error("failed to save PNG snapshot", "frame", h.frameCount, "error", err)
	}
}

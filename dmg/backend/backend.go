// Package backend defines the platform-facing half of a host: rendering a
// frame, collecting input, and handling host-specific features (snapshots,
// debug displays) behind one interface so cmd/jeebie can swap terminal,
// headless or (future) graphical hosts without touching the emulator core.
package backend

import (
	"github.com/castlerock/dmgcore/dmg/audio"
	"github.com/castlerock/dmgcore/dmg/debug"
	"github.com/castlerock/dmgcore/dmg/input/action"
	"github.com/castlerock/dmgcore/dmg/input/event"
	"github.com/castlerock/dmgcore/dmg/video"
)

// InputEvent is an input event a backend observed, translated into the
// shared action/event vocabulary the input manager understands.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Backend represents a complete host platform: rendering, input capture and
// any host-specific features (snapshots, debug windows).
type Backend interface {
	// Init configures the backend. Must be called before Update.
	Init(config BackendConfig) error

	// Update renders frame and polls for input, returning any events that
	// occurred since the last call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases host resources on shutdown.
	Cleanup() error
}

// DebugDataProvider is the minimal surface a backend needs to pull debug
// data, without depending on the full Emulator type.
type DebugDataProvider interface {
	ExtractDebugData() *debug.CompleteDebugData
}

// BackendConfig configures a Backend. Fields a given backend doesn't
// support are simply ignored.
type BackendConfig struct {
	Title       string
	Scale       int
	VSync       bool
	Fullscreen  bool
	ShowDebug   bool
	TestPattern bool

	DebugProvider DebugDataProvider
	APU           *audio.APU
}

// Package debug extracts point-in-time snapshots of emulator state (CPU
// registers, VRAM tile/tilemap data, OAM sprites, APU channel status) for
// host-side visualizers and frame-snapshot tooling, without coupling those
// tools to the concrete MMU/CPU implementation.
package debug

// CPUState is a snapshot of the CPU's registers for display.
type CPUState struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8

	SP, PC uint16
	IME    bool
	Cycles uint64
}

// MemorySnapshot is a window of memory bytes, e.g. for disassembly around PC.
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// DebuggerState is the run state a host UI shows next to the emulator view.
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerStepInstruction
	DebuggerStepFrame
)

// CompleteDebugData bundles every piece of state a debug display needs for
// one frame.
type CompleteDebugData struct {
	OAM             *OAMData
	VRAM            *VRAMData
	CPU             *CPUState
	Memory          *MemorySnapshot
	DebuggerState   DebuggerState
	InterruptEnable uint8
	InterruptFlags  uint8
}

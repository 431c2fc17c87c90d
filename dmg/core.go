// Package jeebie wires the CPU, MMU, PPU and cartridge into a runnable
// Game Boy core.
package jeebie

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/castlerock/dmgcore/dmg/addr"
	"github.com/castlerock/dmgcore/dmg/bit"
	"github.com/castlerock/dmgcore/dmg/cpu"
	"github.com/castlerock/dmgcore/dmg/debug"
	"github.com/castlerock/dmgcore/dmg/memory"
	"github.com/castlerock/dmgcore/dmg/video"
)

// debugMemorySnapshotSize is how many bytes of memory around PC
// ExtractDebugData captures for disassembly/inspection views.
const debugMemorySnapshotSize = 200

// cyclesPerFrame is the number of T-cycles in one 59.7Hz DMG frame
// (154 scanlines * 456 dots).
const cyclesPerFrame = 70224

// ErrUnsupportedMBC is returned by Load/NewWithFile when the cartridge
// header declares a memory bank controller this core does not implement.
// Hosts can use it to pick the "unsupported MBC" exit code distinct from
// a generically malformed ROM.
var ErrUnsupportedMBC = errors.New("jeebie: unsupported MBC type in cartridge header")

// Emulator is the root struct and entry point for running the emulation.
type Emulator struct {
	bus  *Bus
	cpu  *cpu.CPU
	gpu  *video.GPU
	mem  *memory.MMU
	cart *memory.Cartridge

	frameCount uint64
}

func newEmulator(mem *memory.MMU, cart *memory.Cartridge) *Emulator {
	e := &Emulator{
		mem:  mem,
		cart: cart,
		gpu:  video.NewGpu(mem),
	}
	mem.SetPPU(e.gpu)
	e.bus = NewBus(mem)
	e.cpu = cpu.New(e.bus)
	return e
}

// New creates a new emulator instance with no cartridge loaded, equivalent
// to turning on a Game Boy with an empty cartridge slot.
func New() *Emulator {
	cart := memory.NewCartridge()
	return newEmulator(memory.NewWithCartridge(cart), cart)
}

// NewWithFile creates a new emulator instance and loads the ROM at path
// into it. Configuration errors (missing or unreadable file) are returned
// rather than panicking.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jeebie: reading ROM: %w", err)
	}

	e := New()
	if err := e.Load(data); err != nil {
		return nil, err
	}

	return e, nil
}

// Load replaces the currently inserted cartridge with one built from raw
// ROM bytes, equivalent to swapping the cartridge before power-on.
func (e *Emulator) Load(data []byte) error {
	if len(data) < 0x150 {
		return fmt.Errorf("jeebie: ROM too small to contain a header (%d bytes)", len(data))
	}

	cart := memory.NewCartridgeWithData(data)
	if cart.MBCType() == memory.MBCUnknownType {
		return ErrUnsupportedMBC
	}
	mem := memory.NewWithCartridge(cart)

	slog.Debug("loaded ROM", "title", cart.Title(), "size", len(data))

	e.mem = mem
	e.cart = cart
	e.gpu = video.NewGpu(mem)
	mem.SetPPU(e.gpu)
	e.bus = NewBus(mem)
	e.cpu = cpu.New(e.bus)

	return nil
}

// RunFrame ticks the machine until the next VBlank completes and returns
// the resulting frame buffer.
func (e *Emulator) RunFrame() *video.FrameBuffer {
	const vblankMode = 1 // STAT mode 1
	inVBlank := e.gpu.Mode() == vblankMode
	for total := 0; total < 2*cyclesPerFrame; {
		total += e.cpu.Step()
		wasVBlank := inVBlank
		inVBlank = e.gpu.Mode() == vblankMode
		if wasVBlank && !inVBlank {
			break
		}
	}

	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "cpu", e.cpu.String())
	}

	if faulted, msg := e.cpu.Faulted(); faulted {
		slog.Warn("CPU halted on fault", "frame", e.frameCount, "msg", msg)
	}

	return e.gpu.GetFrameBuffer()
}

// GetCurrentFrame returns the most recently rendered frame buffer without
// advancing emulation.
func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// HandleKeyPress registers a joypad button press.
func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

// HandleKeyRelease registers a joypad button release.
func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

// GetCPU exposes the CPU, mainly for tests and debugging tools.
func (e *Emulator) GetCPU() *cpu.CPU {
	return e.cpu
}

// GetMMU exposes the MMU, mainly for tests and debugging tools.
func (e *Emulator) GetMMU() *memory.MMU {
	return e.mem
}

// FrameCount reports how many frames RunFrame has completed.
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}

// SaveRAM persists the inserted cartridge's battery-backed RAM to w. It is
// a no-op if the cartridge has no battery.
func (e *Emulator) SaveRAM(w io.Writer) error {
	return e.cart.SaveRAM(w)
}

// LoadRAM restores previously saved battery-backed RAM into the inserted
// cartridge.
func (e *Emulator) LoadRAM(r io.Reader) error {
	return e.cart.LoadRAM(r)
}

// ExtractDebugData snapshots CPU registers, VRAM tile/tilemap data, OAM
// sprites and a window of memory around PC, for host-side debug displays
// and PNG frame dumps. Returns nil if the emulator has no components wired
// up yet (the zero-value Emulator).
func (e *Emulator) ExtractDebugData() *debug.CompleteDebugData {
	if e.cpu == nil || e.mem == nil || e.gpu == nil {
		return nil
	}

	regs := e.cpu.Registers()

	size := debugMemorySnapshotSize
	if uint32(regs.PC)+uint32(size) > 0x10000 {
		size = int(0x10000 - uint32(regs.PC))
	}
	snapshot := make([]byte, size)
	for i := 0; i < size; i++ {
		snapshot[i] = e.mem.Read(regs.PC + uint16(i))
	}

	line := int(e.mem.Read(addr.LY))
	spriteHeight := 8
	if bit.IsSet(2, e.mem.Read(addr.LCDC)) {
		spriteHeight = 16
	}

	return &debug.CompleteDebugData{
		OAM:  debug.ExtractOAMData(e.mem, line, spriteHeight),
		VRAM: debug.ExtractVRAMData(e.mem),
		CPU: &debug.CPUState{
			A: regs.A, F: regs.F,
			B: regs.B, C: regs.C,
			D: regs.D, E: regs.E,
			H: regs.H, L: regs.L,
			SP:     regs.SP,
			PC:     regs.PC,
			IME:    regs.IME,
			Cycles: e.cpu.TotalCycles(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: regs.PC,
			Bytes:     snapshot,
		},
		InterruptEnable: e.mem.Read(addr.IE),
		InterruptFlags:  e.mem.Read(addr.IF),
	}
}

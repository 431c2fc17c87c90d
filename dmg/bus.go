package jeebie

import (
	"github.com/castlerock/dmgcore/dmg/addr"
	"github.com/castlerock/dmgcore/dmg/memory"
)

// Bus is the single point of contact the CPU has with the rest of the
// machine. It satisfies cpu.Bus by delegating straight to the MMU, which
// in turn drives Timer/PPU/APU/Serial off every Tick in priority order
// (see MMU.Tick) -- the bus itself holds no peripheral state of its own.
type Bus struct {
	MMU *memory.MMU
}

// NewBus wraps an MMU as a cpu.Bus.
func NewBus(mmu *memory.MMU) *Bus {
	return &Bus{MMU: mmu}
}

func (b *Bus) Read(address uint16) byte {
	return b.MMU.Read(address)
}

func (b *Bus) Write(address uint16, value byte) {
	b.MMU.Write(address, value)
}

// Tick advances every peripheral driven off the bus clock. Called by the
// CPU on every single memory access (4 T-cycles at a time), never once
// per whole instruction.
func (b *Bus) Tick(cycles int) {
	b.MMU.Tick(cycles)
}

func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.MMU.RequestInterrupt(interrupt)
}

func (b *Bus) ReadBit(index uint8, address uint16) bool {
	return b.MMU.ReadBit(index, address)
}

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/castlerock/dmgcore/dmg/addr"
	"github.com/castlerock/dmgcore/dmg/memory"
)

func TestInterruptHandling(t *testing.T) {
	t.Run("interrupts disabled by default don't dispatch", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		dispatched := cpu.dispatchInterrupt()
		assert.False(t, dispatched)
		assert.Equal(t, uint16(0x100), cpu.pc)
	})

	t.Run("EI enables interrupts with delay", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)

		opcode0xFB(cpu)
		assert.False(t, cpu.interruptsEnabled)
		assert.True(t, cpu.eiPending)

		// simulate the start of the next Step(), which applies the EI delay
		if cpu.eiPending {
			cpu.eiPending = false
			cpu.interruptsEnabled = true
		}

		assert.True(t, cpu.interruptsEnabled)
		assert.False(t, cpu.eiPending)
	})

	t.Run("DI disables interrupts immediately", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true

		opcode0xF3(cpu)
		assert.False(t, cpu.interruptsEnabled)
	})

	t.Run("interrupt priority order", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true

		mmu.Write(addr.IF, 0x1F)
		mmu.Write(addr.IE, 0x1F)

		cpu.dispatchInterrupt()

		assert.Equal(t, uint16(0x40), cpu.pc)
		assert.Equal(t, uint8(0xFE), mmu.Read(addr.IF))
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false
		cpu.sp = 0xFFFE
		cpu.pc = 0x200

		cpu.pushStack(0x150)

		opcode0xD9(cpu)

		assert.True(t, cpu.interruptsEnabled)
		assert.Equal(t, uint16(0x150), cpu.pc)
	})
}

func TestHALTBehavior(t *testing.T) {
	t.Run("HALT with IME=1 and pending interrupt wakes and dispatches", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true

		opcode0x76(cpu)
		assert.True(t, cpu.halted)

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		if cpu.pendingInterrupts() != 0 {
			cpu.halted = false
		}
		assert.False(t, cpu.halted)

		cpu.dispatchInterrupt()
		assert.Equal(t, uint16(0x40), cpu.pc)
	})

	t.Run("HALT with IME=0 and pending interrupt is not entered and arms the halt bug", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false
		cpu.pc = 0x100

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		opcode0x76(cpu)

		assert.False(t, cpu.halted)
		assert.True(t, cpu.haltBug)
		assert.Equal(t, uint16(0x100), cpu.pc) // PC unchanged, HALT itself already consumed
	})

	t.Run("HALT with IME=0 and no pending interrupt is entered normally", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false

		mmu.Write(addr.IF, 0x00)
		mmu.Write(addr.IE, 0x01)

		opcode0x76(cpu)

		assert.True(t, cpu.halted)
		assert.False(t, cpu.haltBug)
	})

	t.Run("halt bug duplicates the next fetched byte without advancing PC", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false
		cpu.pc = 0xC000
		cpu.a = 0

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		// INC A ; HALT ; INC A
		mmu.Write(0xC000, 0x3C)
		mmu.Write(0xC001, 0x76)
		mmu.Write(0xC002, 0x3C)

		cpu.Step() // INC A -> A=1, pc=0xC001
		cpu.Step() // HALT (not entered, halt bug armed), pc=0xC002
		cpu.Step() // INC A executed once (halt bug: pc stays at 0xC002) -> A=2
		cpu.Step() // INC A executed again (pc now advances) -> A=3

		assert.Equal(t, uint8(3), cpu.a)
		assert.Equal(t, uint16(0xC003), cpu.pc)
	})
}

func TestSTOPBehavior(t *testing.T) {
	t.Run("STOP idles the CPU until a joypad IF bit is set", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)

		opcode0x10(cpu)
		assert.True(t, cpu.stopped)

		cyclesBefore := cpu.bus.cycles
		cpu.Step()
		assert.True(t, cpu.stopped)
		assert.Equal(t, uint64(4), cpu.bus.cycles-cyclesBefore)

		mmu.Write(addr.IF, 0x10) // joypad interrupt pending wakes STOP regardless of IE/IME
		cpu.Step()
		assert.False(t, cpu.stopped)
	})
}

func TestInterruptTiming(t *testing.T) {
	t.Run("interrupt dispatch takes 20 cycles", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true
		cpu.bus.cycles = 0

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		startCycles := cpu.bus.cycles
		cpu.dispatchInterrupt()

		assert.Equal(t, uint64(20), cpu.bus.cycles-startCycles)
	})
}

package cpu

import (
	"fmt"

	"github.com/castlerock/dmgcore/dmg/addr"
	"github.com/castlerock/dmgcore/dmg/bit"
)

// Flag is one of the 4 possible flags used in the flag register (low part of AF).
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Bus is the set of operations the CPU needs from whatever owns the address
// space. It is satisfied by *memory.MMU. Every memory access ticks the bus
// by 4 T-cycles first, so peripherals observe the same timing a real DMG would.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Tick(cycles int)
	RequestInterrupt(interrupt addr.Interrupt)
}

// meteredBus wraps a Bus and accumulates every tick it forwards. Step reads
// the running total to report how many T-cycles an instruction consumed,
// without having to touch the hundreds of cpu.bus.Tick(...) call sites
// scattered through the opcode tables.
type meteredBus struct {
	Bus
	cycles uint64
}

func (b *meteredBus) Tick(cycles int) {
	b.cycles += uint64(cycles)
	b.Bus.Tick(cycles)
}

// CPU holds the state of the Sharp LR35902 core: its registers, interrupt
// master enable, HALT state and the bus it executes against.
type CPU struct {
	bus *meteredBus

	a, f       uint8
	b, c       uint8
	d, e       uint8
	h, l       uint8
	sp, pc     uint16
	currentOpcode uint16

	interruptsEnabled bool
	eiPending         bool
	halted            bool
	haltBug           bool
	stopped           bool

	// faulted marks that the CPU hit an undefined opcode. Rather than
	// crashing the host, execution freezes: Step only idles the bus for
	// 4 T-cycles and executes nothing.
	faulted    bool
	faultedMsg string
}

// New returns a CPU wired to the given bus, with registers set to the
// documented DMG post-boot-ROM values. No boot ROM is executed: execution
// starts directly at 0x0100 with these values.
func New(bus Bus) *CPU {
	return &CPU{
		bus: &meteredBus{Bus: bus},
		a:   0x01, f: 0xB0,
		b: 0x00, c: 0x13,
		d: 0x00, e: 0xD8,
		h: 0x01, l: 0x4D,
		sp: 0xFFFE,
		pc: 0x0100,
	}
}

// Step executes a single instruction (handling any pending interrupt first)
// and returns the number of T-cycles it consumed.
func (c *CPU) Step() int {
	startCycles := c.bus.cycles

	if c.stopped {
		// Real hardware wakes on any joypad matrix transition regardless of
		// IE/IME; approximate that with the joypad IF bit rather than the
		// IME-gated dispatch used for HALT.
		if c.bus.Read(addr.IF)&0x10 != 0 {
			c.stopped = false
		} else {
			c.bus.Tick(4)
			return int(c.bus.cycles - startCycles)
		}
	}

	if c.halted {
		if c.pendingInterrupts() != 0 {
			c.halted = false
		} else {
			c.bus.Tick(4)
			return int(c.bus.cycles - startCycles)
		}
	}

	if c.faulted {
		c.bus.Tick(4)
		return int(c.bus.cycles - startCycles)
	}

	if c.dispatchInterrupt() {
		return int(c.bus.cycles - startCycles)
	}

	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	opcode := Decode(c)
	opcode(c)

	return int(c.bus.cycles - startCycles)
}

// Decode fetches the opcode byte at PC (and its CB-prefixed second byte, if
// any), records it as currentOpcode and returns the handler to run. Decode
// advances PC past the opcode byte(s); handlers advance it past their
// operands via readImmediate*. When haltBug is armed, the byte at PC is
// fetched without advancing PC, so the next
// Step re-fetches and re-executes the same byte, matching the real hardware
// glitch triggered by entering HALT with IME=0 and an interrupt pending.
func Decode(c *CPU) Opcode {
	c.bus.Tick(4)
	first := c.bus.Read(c.pc)

	if c.haltBug {
		c.haltBug = false
		c.currentOpcode = uint16(first)
		return decode(c.currentOpcode)
	}

	if first != 0xCB {
		c.currentOpcode = uint16(first)
		c.pc++
		return decode(c.currentOpcode)
	}

	c.bus.Tick(4)
	second := c.bus.Read(c.pc + 1)
	c.currentOpcode = 0xCB00 | uint16(second)
	c.pc += 2
	return decode(c.currentOpcode)
}

// pendingInterrupts returns the set of requested, enabled interrupt bits,
// irrespective of IME. HALT wakes on this regardless of whether IME is set.
func (c *CPU) pendingInterrupts() uint8 {
	ifReg := c.bus.Read(addr.IF)
	ieReg := c.bus.Read(addr.IE)
	return ifReg & ieReg & 0x1F
}

// dispatchInterrupt services the highest-priority pending interrupt if IME
// is set, pushing PC and jumping to its vector. Returns false (no-op) when
// IME is clear or nothing is pending, in which case normal instruction
// execution proceeds untouched.
func (c *CPU) dispatchInterrupt() bool {
	if !c.interruptsEnabled {
		return false
	}

	ifReg := c.bus.Read(addr.IF)
	ieReg := c.bus.Read(addr.IE)
	pending := ifReg & ieReg & 0x1F
	if pending == 0 {
		return false
	}

	var bitPos uint8
	var vector uint16
	switch {
	case pending&0x01 != 0:
		bitPos, vector = 0, 0x40
	case pending&0x02 != 0:
		bitPos, vector = 1, 0x48
	case pending&0x04 != 0:
		bitPos, vector = 2, 0x50
	case pending&0x08 != 0:
		bitPos, vector = 3, 0x58
	default:
		bitPos, vector = 4, 0x60
	}

	c.interruptsEnabled = false
	c.bus.Write(addr.IF, bit.Clear(bitPos, ifReg))

	c.bus.Tick(8)
	c.pushStack(c.pc)
	c.bus.Tick(4)
	c.pc = vector

	return true
}

func (c *CPU) fault(msg string) {
	c.faulted = true
	c.faultedMsg = msg
}

// Faulted reports whether the CPU froze after decoding an undefined opcode.
func (c *CPU) Faulted() (bool, string) {
	return c.faulted, c.faultedMsg
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

// flagToBit returns 1 if the flag is set, 0 otherwise. Handy for carry-aware
// rotate instructions.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) setAF(v uint16) {
	c.a = bit.High(v)
	c.f = bit.Low(v) & 0xF0
}

func (c *CPU) getBC() uint16  { return bit.Combine(c.b, c.c) }
func (c *CPU) setBC(v uint16) { c.b, c.c = bit.High(v), bit.Low(v) }

func (c *CPU) getDE() uint16  { return bit.Combine(c.d, c.e) }
func (c *CPU) setDE(v uint16) { c.d, c.e = bit.High(v), bit.Low(v) }

func (c *CPU) getHL() uint16  { return bit.Combine(c.h, c.l) }
func (c *CPU) setHL(v uint16) { c.h, c.l = bit.High(v), bit.Low(v) }

// readImmediate fetches the byte at PC, advances PC and ticks the bus.
func (c *CPU) readImmediate() uint8 {
	c.bus.Tick(4)
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// peekImmediate is an alias of readImmediate kept for readability at call
// sites that interpret the byte as a signed displacement.
func (c *CPU) peekImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// readImmediateWord fetches the 16-bit little-endian immediate at PC.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) peekImmediateWord() uint16 {
	return c.readImmediateWord()
}

func (c *CPU) readByte(address uint16) uint8 {
	c.bus.Tick(4)
	return c.bus.Read(address)
}

func (c *CPU) writeByte(address uint16, value uint8) {
	c.bus.Tick(4)
	c.bus.Write(address, value)
}

// RegisterState is a read-only snapshot of the CPU's registers and
// interrupt-master-enable flag, used by debug tooling.
type RegisterState struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8

	SP, PC uint16
	IME    bool
}

// Registers returns a snapshot of the CPU's current register values.
func (c *CPU) Registers() RegisterState {
	return RegisterState{
		A: c.a, F: c.f,
		B: c.b, C: c.c,
		D: c.d, E: c.e,
		H: c.h, L: c.l,
		SP:  c.sp,
		PC:  c.pc,
		IME: c.interruptsEnabled,
	}
}

// TotalCycles reports the running total of T-cycles ticked on this CPU's
// bus since it was created.
func (c *CPU) TotalCycles() uint64 {
	return c.bus.cycles
}

func (c *CPU) String() string {
	return fmt.Sprintf("PC:%04X SP:%04X AF:%04X BC:%04X DE:%04X HL:%04X IME:%v",
		c.pc, c.sp, c.getAF(), c.getBC(), c.getDE(), c.getHL(), c.interruptsEnabled)
}

package cpu

import "github.com/castlerock/dmgcore/dmg/bit"

func (c *CPU) pushStack(r uint16) {
	c.sp--
	c.writeByte(c.sp, bit.Low(r))
	c.sp--
	c.writeByte(c.sp, bit.High(r))
}

func (c *CPU) popStack() uint16 {
	high := c.readByte(c.sp)
	c.sp++
	low := c.readByte(c.sp)
	c.sp++

	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	*r++
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	*r--
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0xF)
	c.setFlag(subFlag)
}

func (c *CPU) rlc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value > 0x7F)
	value = (value << 1) | (value >> 7)
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) rl(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag)

	c.setFlagToCondition(carryFlag, value > 0x7F)
	value = (value << 1) | carry
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) rrc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value = (value >> 1) | ((value & 1) << 7)
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) rr(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag) << 7

	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value = (value >> 1) | carry
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// add sets the result of adding an 8 bit register to A, while setting all relevant flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	carry := (uint16(a) + uint16(value)) > 0xFF
	halfCarry := (a&0xF)+(value&0xF) > 0xF

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.a = result
}

// addToHL sets the result of adding a 16 bit register to HL, while setting relevant flags.
func (c *CPU) addToHL(reg uint16) {
	hl := bit.Combine(c.h, c.l)
	result := hl + reg

	carry := (uint32(hl) + uint32(reg)) > 0xFFFF
	halfCarry := (hl&0xFFF)+(reg&0xFFF) > 0xFFF

	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.h = bit.High(result)
	c.l = bit.Low(result)
}

// sub will subtract the value from register A and set all relevant flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	c.a = a - value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// sbc will subtract the value and carry (1 if set, 0 otherwise) from the register A.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := 0
	if c.isSetFlag(carryFlag) {
		carry = 1
	}

	result := int(c.a) - int(value) - carry
	c.a = uint8(result)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, result < 0)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF)-carry < 0)
}

// adc adds value and the carry flag to register A.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)

	result := uint16(a) + uint16(value) + uint16(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, result > 0xFF)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)

	c.a = uint8(result)
}

// cp compares value against register A without storing the result.
func (c *CPU) cp(value uint8) {
	a := c.a
	c.sub(value)
	c.a = a
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

// bit tests bit n of value, setting the zero flag if it is clear.
func (c *CPU) bit(n uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, value&(1<<n) == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// set forces bit n of r to 1.
func (c *CPU) set(n uint8, r *uint8) {
	*r |= 1 << n
}

// res forces bit n of r to 0.
func (c *CPU) res(n uint8, r *uint8) {
	*r &^= 1 << n
}

// sla shifts r left by one, shifting 0 into bit 0 and the old bit 7 into carry.
func (c *CPU) sla(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value > 0x7F)
	value <<= 1
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// sra shifts r right by one, preserving bit 7, with the old bit 0 into carry.
func (c *CPU) sra(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value = (value >> 1) | (value & 0x80)
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// srl shifts r right by one, shifting 0 into bit 7 and the old bit 0 into carry.
func (c *CPU) srl(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value >>= 1
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// swap exchanges the high and low nibbles of r.
func (c *CPU) swap(r *uint8) {
	value := *r
	value = (value << 4) | (value >> 4)
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// jr performs a jump using the immediate value (byte)
func (c *CPU) jr() {
	c.pc += uint16(c.peekImmediate())
}

// jp performs a jump using the immediate value (16 bit word)
func (c *CPU) jp() {
	c.pc = c.peekImmediateWord()
}

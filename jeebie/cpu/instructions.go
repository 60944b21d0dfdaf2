package cpu

import "github.com/valerio/jeebie-color/jeebie/bit"

// operand indexes used by the register field of an opcode
const (
	regB uint8 = iota
	regC
	regD
	regE
	regH
	regL
	regHL // (HL), memory operand
	regA
)

// operand reads the register (or memory at HL) selected by index.
func (c *CPU) operand(index uint8) uint8 {
	switch index {
	case regB:
		return c.b
	case regC:
		return c.c
	case regD:
		return c.d
	case regE:
		return c.e
	case regH:
		return c.h
	case regL:
		return c.l
	case regHL:
		return c.bus.Read(c.getHL())
	case regA:
		return c.a
	}
	panic("invalid operand index")
}

func (c *CPU) setOperand(index uint8, value uint8) {
	switch index {
	case regB:
		c.b = value
	case regC:
		c.c = value
	case regD:
		c.d = value
	case regE:
		c.e = value
	case regH:
		c.h = value
	case regL:
		c.l = value
	case regHL:
		c.bus.Write(c.getHL(), value)
	case regA:
		c.a = value
	default:
		panic("invalid operand index")
	}
}

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// inc increments r, C is not affected.
func (c *CPU) inc(r *uint8) {
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0)
}

// dec decrements r, C is not affected.
func (c *CPU) dec(r *uint8) {
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0x0F)
}

// incAddr and decAddr are INC (HL) and DEC (HL).
func (c *CPU) incAddr(address uint16) {
	value := c.bus.Read(address)
	c.inc(&value)
	c.bus.Write(address, value)
}

func (c *CPU) decAddr(address uint16) {
	value := c.bus.Read(address)
	c.dec(&value)
	c.bus.Write(address, value)
}

// add sets A to A + value (+ carry for ADC).
func (c *CPU) add(value uint8, withCarry bool) {
	carry := uint8(0)
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	a := c.a
	result := uint16(a) + uint16(value) + uint16(carry)
	c.a = uint8(result)

	c.setFlags(c.a == 0, false, (a&0x0F)+(value&0x0F)+carry > 0x0F, result > 0xFF)
}

// subtract computes A - value (- carry for SBC) and sets flags, store
// decides whether A is updated (CP discards the result).
func (c *CPU) subtract(value uint8, withCarry, store bool) {
	carry := 0
	if withCarry {
		carry = int(c.flagToBit(carryFlag))
	}
	a := c.a
	result := int(a) - int(value) - carry

	c.setFlags(uint8(result) == 0, true, int(a&0x0F)-int(value&0x0F)-carry < 0, result < 0)
	if store {
		c.a = uint8(result)
	}
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlags(c.a == 0, false, false, false)
}

// alu runs one of the eight accumulator operations selected by bits 3-5 of
// opcodes 0x80-0xBF and 0xC6-0xFE.
func (c *CPU) alu(op uint8, value uint8) {
	switch op {
	case 0:
		c.add(value, false)
	case 1:
		c.add(value, true)
	case 2:
		c.subtract(value, false, true)
	case 3:
		c.subtract(value, true, true)
	case 4:
		c.and(value)
	case 5:
		c.xor(value)
	case 6:
		c.or(value)
	case 7:
		c.subtract(value, false, false)
	default:
		panic("invalid alu operation")
	}
}

// addToHL sets HL to HL + value. Z is not affected, H and C come from bits 11 and 15.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, result > 0xFFFF)
	c.setHL(uint16(result))
}

// addSigned returns SP + e. Flags come from the unsigned addition of the low
// byte, as for ADD SP,e and LD HL,SP+e.
func (c *CPU) addSigned(e int8) uint16 {
	sp := c.sp
	value := uint16(uint8(e))

	c.setFlags(false, false, (sp&0x0F)+(value&0x0F) > 0x0F, (sp&0xFF)+value > 0xFF)
	return sp + uint16(int16(e))
}

// daa adjusts A to a valid BCD value after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	carry := c.isSetFlag(carryFlag)
	var adjust uint8

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

// rotate and shift operations, shared by the CB table and the A-only
// variants. They return the result and set all flags as the CB forms do.

func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

// rotateA runs a rotate on A for RLCA/RRCA/RLA/RRA, which always clear Z.
func (c *CPU) rotateA(rotate func(*CPU, uint8) uint8) {
	c.a = rotate(c, c.a)
	c.resetFlag(zeroFlag)
}

// bit tests bit n of value: Z is set when the bit is clear, C is not affected.
func (c *CPU) bit(n uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(n, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// jr adds the signed immediate to PC when condition holds.
func (c *CPU) jr(condition bool) int {
	e := c.readSignedImmediate()
	if !condition {
		return 8
	}
	c.pc += uint16(int16(e))
	return 12
}

// jp jumps to the immediate word when condition holds.
func (c *CPU) jp(condition bool) int {
	nn := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pc = nn
	return 16
}

// call pushes PC and jumps to the immediate word when condition holds.
func (c *CPU) call(condition bool) int {
	nn := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pushStack(c.pc)
	c.pc = nn
	return 24
}

// retIf is the conditional RET, which costs an extra cycle over RET.
func (c *CPU) retIf(condition bool) int {
	if !condition {
		return 8
	}
	c.pc = c.popStack()
	return 20
}

func (c *CPU) rst(vector uint16) int {
	c.pushStack(c.pc)
	c.pc = vector
	return 16
}

package cpu

// execMulDiv implements the M-extension with the exact RISC-V boundary
// semantics: division by zero and signed overflow never trap, they
// produce the documented sentinel values.
func (c *CPU) execMulDiv(inst Instruction) {
	a := c.X(inst.Rs1)
	b := c.X(inst.Rs2)
	sa, sb := int32(a), int32(b)

	switch inst.Op {
	case Mul:
		c.setX(inst.Rd, a*b)
	case Mulh:
		c.setX(inst.Rd, uint32(mulh(sa, sb)))
	case Mulhsu:
		c.setX(inst.Rd, uint32(mulhsu(sa, b)))
	case Mulhu:
		c.setX(inst.Rd, mulhu(a, b))
	case Div:
		switch {
		case sb == 0:
			c.setX(inst.Rd, 0xFFFFFFFF)
		case sa == -0x80000000 && sb == -1:
			c.setX(inst.Rd, 0x80000000)
		default:
			c.setX(inst.Rd, uint32(sa/sb))
		}
	case Divu:
		if b == 0 {
			c.setX(inst.Rd, 0xFFFFFFFF)
		} else {
			c.setX(inst.Rd, a/b)
		}
	case Rem:
		switch {
		case sb == 0:
			c.setX(inst.Rd, a)
		case sa == -0x80000000 && sb == -1:
			c.setX(inst.Rd, 0)
		default:
			c.setX(inst.Rd, uint32(sa%sb))
		}
	case Remu:
		if b == 0 {
			c.setX(inst.Rd, a)
		} else {
			c.setX(inst.Rd, a%b)
		}
	}
}

func mulh(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}

func mulhu(a, b uint32) uint32 {
	return uint32((uint64(a) * uint64(b)) >> 32)
}

func mulhsu(a int32, b uint32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}

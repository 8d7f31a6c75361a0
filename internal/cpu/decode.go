// Package cpu implements the RV32IM register file, decoder, and
// fetch-decode-execute step. The decoder is purely functional: it takes a
// 32-bit little-endian word and returns a tagged instruction value or the
// Illegal op, never mutating any state.
package cpu

// Op tags a decoded RV32IM instruction form.
type Op int

const (
	Illegal Op = iota
	Lui
	Auipc
	Jal
	Jalr
	Beq
	Bne
	Blt
	Bge
	Bltu
	Bgeu
	Lb
	Lh
	Lw
	Lbu
	Lhu
	Sb
	Sh
	Sw
	Addi
	Slti
	Sltiu
	Xori
	Ori
	Andi
	Slli
	Srli
	Srai
	Add
	Sub
	Sll
	Slt
	Sltu
	Xor
	Srl
	Sra
	Or
	And
	Fence
	Ecall
	Ebreak
	Mul
	Mulh
	Mulhsu
	Mulhu
	Div
	Divu
	Rem
	Remu
)

// Instruction is the decoded tagged-union form: an opcode tag plus its
// register indices and sign-extended immediate. Re-encoding it recovers
// every bit the form defines.
type Instruction struct {
	Op       Op
	Rd       uint32
	Rs1      uint32
	Rs2      uint32
	Imm      int32
	Raw      uint32
	ShiftAmt uint32 // valid for Slli/Srli/Srai only
}

const (
	opLoad     = 0x03
	opMiscMem  = 0x0F
	opOpImm    = 0x13
	opAuipc    = 0x17
	opStore    = 0x23
	opOp       = 0x33
	opLui      = 0x37
	opBranch   = 0x63
	opJalr     = 0x67
	opJal      = 0x6F
	opSystem   = 0x73
	mExtFunct7 = 0x01
)

func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

func immI(word uint32) int32 { return signExtend(word>>20, 12) }

func immS(word uint32) int32 {
	raw := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	return signExtend(raw, 12)
}

func immB(word uint32) int32 {
	b12 := (word >> 31) & 1
	b11 := (word >> 7) & 1
	b10_5 := (word >> 25) & 0x3F
	b4_1 := (word >> 8) & 0xF
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(raw, 13)
}

func immU(word uint32) int32 { return int32(word & 0xFFFFF000) }

func immJ(word uint32) int32 {
	b20 := (word >> 31) & 1
	b19_12 := (word >> 12) & 0xFF
	b11 := (word >> 20) & 1
	b10_1 := (word >> 21) & 0x3FF
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(raw, 21)
}

func rd(word uint32) uint32     { return (word >> 7) & 0x1F }
func rs1(word uint32) uint32    { return (word >> 15) & 0x1F }
func rs2(word uint32) uint32    { return (word >> 20) & 0x1F }
func funct3(word uint32) uint32 { return (word >> 12) & 0x7 }
func funct7(word uint32) uint32 { return (word >> 25) & 0x7F }

// Decode parses a 32-bit word into a tagged Instruction, or returns the
// Illegal op for any unrecognised encoding.
func Decode(word uint32) Instruction {
	opcode := word & 0x7F
	inst := Instruction{Raw: word}

	switch opcode {
	case opLui:
		inst.Op = Lui
		inst.Rd = rd(word)
		inst.Imm = immU(word)
	case opAuipc:
		inst.Op = Auipc
		inst.Rd = rd(word)
		inst.Imm = immU(word)
	case opJal:
		inst.Op = Jal
		inst.Rd = rd(word)
		inst.Imm = immJ(word)
	case opJalr:
		if funct3(word) != 0 {
			inst.Op = Illegal
			return inst
		}
		inst.Op = Jalr
		inst.Rd = rd(word)
		inst.Rs1 = rs1(word)
		inst.Imm = immI(word)
	case opBranch:
		inst.Rs1 = rs1(word)
		inst.Rs2 = rs2(word)
		inst.Imm = immB(word)
		switch funct3(word) {
		case 0x0:
			inst.Op = Beq
		case 0x1:
			inst.Op = Bne
		case 0x4:
			inst.Op = Blt
		case 0x5:
			inst.Op = Bge
		case 0x6:
			inst.Op = Bltu
		case 0x7:
			inst.Op = Bgeu
		default:
			inst.Op = Illegal
		}
	case opLoad:
		inst.Rd = rd(word)
		inst.Rs1 = rs1(word)
		inst.Imm = immI(word)
		switch funct3(word) {
		case 0x0:
			inst.Op = Lb
		case 0x1:
			inst.Op = Lh
		case 0x2:
			inst.Op = Lw
		case 0x4:
			inst.Op = Lbu
		case 0x5:
			inst.Op = Lhu
		default:
			inst.Op = Illegal
		}
	case opStore:
		inst.Rs1 = rs1(word)
		inst.Rs2 = rs2(word)
		inst.Imm = immS(word)
		switch funct3(word) {
		case 0x0:
			inst.Op = Sb
		case 0x1:
			inst.Op = Sh
		case 0x2:
			inst.Op = Sw
		default:
			inst.Op = Illegal
		}
	case opOpImm:
		inst.Rd = rd(word)
		inst.Rs1 = rs1(word)
		inst.Imm = immI(word)
		f3 := funct3(word)
		f7 := funct7(word)
		switch f3 {
		case 0x0:
			inst.Op = Addi
		case 0x2:
			inst.Op = Slti
		case 0x3:
			inst.Op = Sltiu
		case 0x4:
			inst.Op = Xori
		case 0x6:
			inst.Op = Ori
		case 0x7:
			inst.Op = Andi
		case 0x1:
			if f7 != 0x00 {
				inst.Op = Illegal
				return inst
			}
			inst.Op = Slli
			inst.ShiftAmt = rs2(word)
		case 0x5:
			inst.ShiftAmt = rs2(word)
			switch f7 {
			case 0x00:
				inst.Op = Srli
			case 0x20:
				inst.Op = Srai
			default:
				inst.Op = Illegal
			}
		default:
			inst.Op = Illegal
		}
	case opOp:
		inst.Rd = rd(word)
		inst.Rs1 = rs1(word)
		inst.Rs2 = rs2(word)
		f3 := funct3(word)
		f7 := funct7(word)
		switch f7 {
		case 0x00:
			switch f3 {
			case 0x0:
				inst.Op = Add
			case 0x1:
				inst.Op = Sll
			case 0x2:
				inst.Op = Slt
			case 0x3:
				inst.Op = Sltu
			case 0x4:
				inst.Op = Xor
			case 0x5:
				inst.Op = Srl
			case 0x6:
				inst.Op = Or
			case 0x7:
				inst.Op = And
			default:
				inst.Op = Illegal
			}
		case 0x20:
			switch f3 {
			case 0x0:
				inst.Op = Sub
			case 0x5:
				inst.Op = Sra
			default:
				inst.Op = Illegal
			}
		case mExtFunct7:
			switch f3 {
			case 0x0:
				inst.Op = Mul
			case 0x1:
				inst.Op = Mulh
			case 0x2:
				inst.Op = Mulhsu
			case 0x3:
				inst.Op = Mulhu
			case 0x4:
				inst.Op = Div
			case 0x5:
				inst.Op = Divu
			case 0x6:
				inst.Op = Rem
			case 0x7:
				inst.Op = Remu
			default:
				inst.Op = Illegal
			}
		default:
			inst.Op = Illegal
		}
	case opMiscMem:
		inst.Op = Fence
	case opSystem:
		if funct3(word) != 0 || rd(word) != 0 || rs1(word) != 0 {
			inst.Op = Illegal
			return inst
		}
		switch immI(word) {
		case 0:
			inst.Op = Ecall
		case 1:
			inst.Op = Ebreak
		default:
			inst.Op = Illegal
		}
	default:
		inst.Op = Illegal
	}
	return inst
}

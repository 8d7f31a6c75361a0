package cpu

import "fmt"

var mnemonics = map[Op]string{
	Lui: "lui", Auipc: "auipc", Jal: "jal", Jalr: "jalr",
	Beq: "beq", Bne: "bne", Blt: "blt", Bge: "bge", Bltu: "bltu", Bgeu: "bgeu",
	Lb: "lb", Lh: "lh", Lw: "lw", Lbu: "lbu", Lhu: "lhu",
	Sb: "sb", Sh: "sh", Sw: "sw",
	Addi: "addi", Slti: "slti", Sltiu: "sltiu", Xori: "xori", Ori: "ori", Andi: "andi",
	Slli: "slli", Srli: "srli", Srai: "srai",
	Add: "add", Sub: "sub", Sll: "sll", Slt: "slt", Sltu: "sltu",
	Xor: "xor", Srl: "srl", Sra: "sra", Or: "or", And: "and",
	Fence: "fence", Ecall: "ecall", Ebreak: "ebreak",
	Mul: "mul", Mulh: "mulh", Mulhsu: "mulhsu", Mulhu: "mulhu",
	Div: "div", Divu: "divu", Rem: "rem", Remu: "remu",
	Illegal: "illegal",
}

// Mnemonic returns the assembly mnemonic for the instruction's op.
func (i Instruction) Mnemonic() string {
	if m, ok := mnemonics[i.Op]; ok {
		return m
	}
	return "?"
}

// String renders a disassembly line in the style of a GAS listing, good
// enough for --trace output and the debugger's instruction pane.
func (i Instruction) String() string {
	m := i.Mnemonic()
	switch i.Op {
	case Lui, Auipc:
		return fmt.Sprintf("%s x%d, 0x%x", m, i.Rd, uint32(i.Imm)>>12)
	case Jal:
		return fmt.Sprintf("%s x%d, %d", m, i.Rd, i.Imm)
	case Jalr:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rd, i.Imm, i.Rs1)
	case Beq, Bne, Blt, Bge, Bltu, Bgeu:
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rs1, i.Rs2, i.Imm)
	case Lb, Lh, Lw, Lbu, Lhu:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rd, i.Imm, i.Rs1)
	case Sb, Sh, Sw:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rs2, i.Imm, i.Rs1)
	case Slli, Srli, Srai:
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, i.ShiftAmt)
	case Addi, Slti, Sltiu, Xori, Ori, Andi:
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, i.Imm)
	case Add, Sub, Sll, Slt, Sltu, Xor, Srl, Sra, Or, And,
		Mul, Mulh, Mulhsu, Mulhu, Div, Divu, Rem, Remu:
		return fmt.Sprintf("%s x%d, x%d, x%d", m, i.Rd, i.Rs1, i.Rs2)
	case Fence, Ecall, Ebreak:
		return m
	default:
		return fmt.Sprintf("illegal 0x%08x", i.Raw)
	}
}

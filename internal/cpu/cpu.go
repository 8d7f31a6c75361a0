package cpu

import (
	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/trap"
)

// CPU holds the 32 general registers, program counter, cycle counter, and
// halt flag. x0 is never stored as a real register slot — reads return
// zero and writes are discarded in SetX.
type CPU struct {
	x        [32]uint32
	PC       uint32
	Cycle    uint64
	Halted   bool
	ExitCode uint8
}

func New() *CPU {
	return &CPU{}
}

// Reset zeros the register file and sets PC/SP for a fresh run.
func (c *CPU) Reset(entry, sp uint32) {
	c.x = [32]uint32{}
	c.PC = entry
	c.Cycle = 0
	c.Halted = false
	c.ExitCode = 0
	c.setX(2, sp) // x2 is the conventional stack pointer
}

// X reads general register n; x0 always reads zero.
func (c *CPU) X(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return c.x[n]
}

// SetX writes general register n; writes to x0 are discarded.
func (c *CPU) SetX(n uint32, v uint32) { c.setX(n, v) }

func (c *CPU) setX(n uint32, v uint32) {
	if n == 0 {
		return
	}
	c.x[n] = v
}

// Step fetches, decodes, and executes one instruction against bus b. On a
// fault it returns a *trap.Trap and leaves architected state exactly as it
// was before the faulting instruction: faults are detected before any
// commit to the register file or memory.
func (c *CPU) Step(b *bus.Bus) *trap.Trap {
	word, fault := b.Load(c.PC, 32)
	if fault == bus.FaultMisaligned {
		return trap.New(trap.InstructionMisaligned, c.PC, c.PC)
	}
	if fault == bus.FaultAccess {
		return trap.New(trap.InstructionAccessFault, c.PC, c.PC)
	}

	inst := Decode(word)
	if inst.Op == Illegal {
		return trap.New(trap.IllegalInstruction, c.PC, word)
	}

	nextPC := c.PC + 4
	var tr *trap.Trap

	switch inst.Op {
	case Lui:
		c.setX(inst.Rd, uint32(inst.Imm))
	case Auipc:
		c.setX(inst.Rd, c.PC+uint32(inst.Imm))
	case Jal:
		target := c.PC + uint32(inst.Imm)
		if target%4 != 0 {
			return trap.New(trap.InstructionMisaligned, c.PC, target)
		}
		c.setX(inst.Rd, nextPC)
		nextPC = target
	case Jalr:
		target := (c.X(inst.Rs1) + uint32(inst.Imm)) &^ 1
		if target%4 != 0 {
			return trap.New(trap.InstructionMisaligned, c.PC, target)
		}
		c.setX(inst.Rd, nextPC)
		nextPC = target
	case Beq, Bne, Blt, Bge, Bltu, Bgeu:
		if branchTaken(inst.Op, c.X(inst.Rs1), c.X(inst.Rs2)) {
			target := c.PC + uint32(inst.Imm)
			if target%4 != 0 {
				return trap.New(trap.InstructionMisaligned, c.PC, target)
			}
			nextPC = target
		}
	case Lb, Lh, Lw, Lbu, Lhu:
		nextPC, tr = c.execLoad(b, inst, nextPC)
	case Sb, Sh, Sw:
		tr = c.execStore(b, inst)
	case Addi, Slti, Sltiu, Xori, Ori, Andi, Slli, Srli, Srai:
		c.execOpImm(inst)
	case Add, Sub, Sll, Slt, Sltu, Xor, Srl, Sra, Or, And:
		c.execOp(inst)
	case Mul, Mulh, Mulhsu, Mulhu, Div, Divu, Rem, Remu:
		c.execMulDiv(inst)
	case Fence:
		// No-op: no caches or reordering to synchronize in this model.
	case Ecall:
		tr = trap.New(trap.EcallFromU, c.PC, 0)
	case Ebreak:
		c.Halted = true
		c.ExitCode = uint8(c.X(10))
		tr = trap.New(trap.Breakpoint, c.PC, 0)
	}

	// Ecall is serviced transparently by the syscall shim and resumes
	// execution rather than halting, so unlike every other trap it still
	// commits PC: the guest must come back at pc+4, not re-fetch the
	// ecall word forever.
	if tr != nil && tr.Kind != trap.EcallFromU {
		return tr
	}

	c.PC = nextPC
	c.Cycle++
	if tr != nil {
		return tr
	}
	return nil
}

func branchTaken(op Op, a, b uint32) bool {
	switch op {
	case Beq:
		return a == b
	case Bne:
		return a != b
	case Blt:
		return int32(a) < int32(b)
	case Bge:
		return int32(a) >= int32(b)
	case Bltu:
		return a < b
	case Bgeu:
		return a >= b
	}
	return false
}

func (c *CPU) execLoad(b *bus.Bus, inst Instruction, nextPC uint32) (uint32, *trap.Trap) {
	addr := c.X(inst.Rs1) + uint32(inst.Imm)
	var width int
	switch inst.Op {
	case Lb, Lbu:
		width = 8
	case Lh, Lhu:
		width = 16
	case Lw:
		width = 32
	}
	val, fault := b.Load(addr, width)
	if fault == bus.FaultMisaligned {
		return nextPC, trap.New(trap.LoadMisaligned, c.PC, addr)
	}
	if fault == bus.FaultAccess {
		return nextPC, trap.New(trap.LoadAccessFault, c.PC, addr)
	}

	switch inst.Op {
	case Lb:
		c.setX(inst.Rd, uint32(int32(int8(val))))
	case Lh:
		c.setX(inst.Rd, uint32(int32(int16(val))))
	case Lw:
		c.setX(inst.Rd, val)
	case Lbu:
		c.setX(inst.Rd, val&0xFF)
	case Lhu:
		c.setX(inst.Rd, val&0xFFFF)
	}
	return nextPC, nil
}

func (c *CPU) execStore(b *bus.Bus, inst Instruction) *trap.Trap {
	addr := c.X(inst.Rs1) + uint32(inst.Imm)
	val := c.X(inst.Rs2)
	var width int
	switch inst.Op {
	case Sb:
		width = 8
	case Sh:
		width = 16
	case Sw:
		width = 32
	}
	fault := b.Store(addr, width, val)
	if fault == bus.FaultMisaligned {
		return trap.New(trap.StoreMisaligned, c.PC, addr)
	}
	if fault == bus.FaultAccess {
		return trap.New(trap.StoreAccessFault, c.PC, addr)
	}
	return nil
}

func (c *CPU) execOpImm(inst Instruction) {
	a := c.X(inst.Rs1)
	imm := uint32(inst.Imm)
	switch inst.Op {
	case Addi:
		c.setX(inst.Rd, a+imm)
	case Slti:
		c.setX(inst.Rd, boolU32(int32(a) < inst.Imm))
	case Sltiu:
		c.setX(inst.Rd, boolU32(a < imm))
	case Xori:
		c.setX(inst.Rd, a^imm)
	case Ori:
		c.setX(inst.Rd, a|imm)
	case Andi:
		c.setX(inst.Rd, a&imm)
	case Slli:
		c.setX(inst.Rd, a<<(inst.ShiftAmt&0x1F))
	case Srli:
		c.setX(inst.Rd, a>>(inst.ShiftAmt&0x1F))
	case Srai:
		c.setX(inst.Rd, uint32(int32(a)>>(inst.ShiftAmt&0x1F)))
	}
}

func (c *CPU) execOp(inst Instruction) {
	a := c.X(inst.Rs1)
	bv := c.X(inst.Rs2)
	shamt := bv & 0x1F
	switch inst.Op {
	case Add:
		c.setX(inst.Rd, a+bv)
	case Sub:
		c.setX(inst.Rd, a-bv)
	case Sll:
		c.setX(inst.Rd, a<<shamt)
	case Slt:
		c.setX(inst.Rd, boolU32(int32(a) < int32(bv)))
	case Sltu:
		c.setX(inst.Rd, boolU32(a < bv))
	case Xor:
		c.setX(inst.Rd, a^bv)
	case Srl:
		c.setX(inst.Rd, a>>shamt)
	case Sra:
		c.setX(inst.Rd, uint32(int32(a)>>shamt))
	case Or:
		c.setX(inst.Rd, a|bv)
	case And:
		c.setX(inst.Rd, a&bv)
	}
}

func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

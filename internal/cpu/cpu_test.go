package cpu

import (
	"bytes"
	"testing"

	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/trap"
)

func encodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)<<20)&0xFFF00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeU(opcode, rd uint32, imm int32) uint32 {
	return (uint32(imm) & 0xFFFFF000) | (rd << 7) | opcode
}

func encodeAddi(rd, rs1 uint32, imm int32) uint32 { return encodeI(opOpImm, 0, rd, rs1, imm) }

func newTestMachine(t *testing.T) (*CPU, *bus.Bus) {
	t.Helper()
	b := bus.New(bus.Config{RAMSize: 4096, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	c := New()
	c.Reset(bus.RAMBase, bus.RAMBase+4096)
	return c, b
}

func storeWord(b *bus.Bus, addr, word uint32) {
	if f := b.Store(addr, 32, word); f != bus.FaultNone {
		panic(f)
	}
}

func TestDecodeAddi(t *testing.T) {
	word := encodeAddi(5, 6, -3)
	inst := Decode(word)
	if inst.Op != Addi || inst.Rd != 5 || inst.Rs1 != 6 || inst.Imm != -3 {
		t.Fatalf("Decode(addi) = %+v", inst)
	}
}

func TestDecodeIllegalOpcode(t *testing.T) {
	inst := Decode(0x0000007F) // opcode bits all set but not any valid 7-bit opcode pattern used here
	if inst.Op != Illegal {
		t.Errorf("expected Illegal, got %v", inst.Op)
	}
}

func TestDecodeIllegalSystemForm(t *testing.T) {
	// opSystem with funct3 != 0 is not ECALL/EBREAK.
	word := encodeI(opSystem, 1, 0, 0, 0)
	if inst := Decode(word); inst.Op != Illegal {
		t.Errorf("malformed SYSTEM form: got %v, want Illegal", inst.Op)
	}
}

func TestX0AlwaysZero(t *testing.T) {
	c, b := newTestMachine(t)
	storeWord(b, bus.RAMBase, encodeAddi(0, 1, 5))
	c.SetX(1, 42)
	if tr := c.Step(b); tr != nil {
		t.Fatalf("unexpected trap: %v", tr)
	}
	if c.X(0) != 0 {
		t.Errorf("x0 = %d, want 0", c.X(0))
	}
}

func TestLui(t *testing.T) {
	c, b := newTestMachine(t)
	storeWord(b, bus.RAMBase, encodeU(opLui, 5, 0x12345000))
	if tr := c.Step(b); tr != nil {
		t.Fatalf("lui: unexpected trap %v", tr)
	}
	if c.X(5) != 0x12345000 {
		t.Errorf("lui x5 = 0x%x, want 0x12345000", c.X(5))
	}
}

func TestJumpMisalignedFaultsWithoutMutation(t *testing.T) {
	c, b := newTestMachine(t)
	// jal x1, 2 -- an odd-ish target relative to a word-aligned PC still
	// must be checked: use an immediate that is not a multiple of 4.
	word := (uint32(1) << 21) | (uint32(1) << 7) | opJal // crude JAL with imm bit set oddly
	_ = word
	// Build a guaranteed-misaligned JAL target via immJ encoding: bit 1 set.
	imm := int32(2)
	raw := ((uint32(imm) >> 20 & 1) << 31) | ((uint32(imm) >> 1 & 0x3FF) << 21) |
		((uint32(imm) >> 11 & 1) << 20) | ((uint32(imm) >> 12 & 0xFF) << 12) | (1 << 7) | opJal
	storeWord(b, bus.RAMBase, raw)
	prevPC := c.PC
	prevX1 := c.X(1)
	tr := c.Step(b)
	if tr == nil || tr.Kind != trap.InstructionMisaligned {
		t.Fatalf("expected InstructionMisaligned, got %v", tr)
	}
	if c.PC != prevPC {
		t.Errorf("PC mutated on faulting jump: %x -> %x", prevPC, c.PC)
	}
	if c.X(1) != prevX1 {
		t.Errorf("rd mutated on faulting jump: %x -> %x", prevX1, c.X(1))
	}
}

func TestLoadStoreFaultDoesNotMutateState(t *testing.T) {
	c, b := newTestMachine(t)
	// lw x5, 0(x0): x0 is zero, so this loads from address 0, well below RAM.
	word := encodeI(opLoad, 2, 5, 0, 0)
	storeWord(b, bus.RAMBase, word)
	c.SetX(5, 0xAAAAAAAA)
	prevPC := c.PC
	tr := c.Step(b)
	if tr == nil || tr.Kind != trap.LoadAccessFault {
		t.Fatalf("expected LoadAccessFault, got %v", tr)
	}
	if c.X(5) != 0xAAAAAAAA {
		t.Errorf("rd mutated on faulting load")
	}
	if c.PC != prevPC {
		t.Errorf("PC advanced on faulting load")
	}
}

func TestEcallTrapReturned(t *testing.T) {
	c, b := newTestMachine(t)
	word := encodeI(opSystem, 0, 0, 0, 0)
	storeWord(b, bus.RAMBase, word)
	prevPC := c.PC
	tr := c.Step(b)
	if tr == nil || tr.Kind != trap.EcallFromU {
		t.Fatalf("expected EcallFromU, got %v", tr)
	}
	if c.Halted {
		t.Error("ecall should not halt the CPU by itself")
	}
	// Unlike a fault, ecall is serviced and resumed: PC must advance past
	// the ecall word so the caller of Step doesn't re-fetch it forever.
	if c.PC != prevPC+4 {
		t.Errorf("PC after ecall = 0x%x, want 0x%x", c.PC, prevPC+4)
	}
}

func TestEbreakHaltsWithExitCode(t *testing.T) {
	c, b := newTestMachine(t)
	word := encodeI(opSystem, 0, 0, 0, 1)
	storeWord(b, bus.RAMBase, word)
	c.SetX(10, 7)
	tr := c.Step(b)
	if tr == nil || tr.Kind != trap.Breakpoint {
		t.Fatalf("expected Breakpoint, got %v", tr)
	}
	if !c.Halted || c.ExitCode != 7 {
		t.Errorf("Halted=%v ExitCode=%d, want true/7", c.Halted, c.ExitCode)
	}
}

func TestMulDivBoundaries(t *testing.T) {
	c, b := newTestMachine(t)
	// div x5, x1, x2 where x1=INT_MIN, x2=-1.
	word := encodeR(opOp, 4, mExtFunct7, 5, 1, 2)
	storeWord(b, bus.RAMBase, word)
	c.SetX(1, 0x80000000)
	c.SetX(2, 0xFFFFFFFF)
	if tr := c.Step(b); tr != nil {
		t.Fatalf("div: unexpected trap %v", tr)
	}
	if c.X(5) != 0x80000000 {
		t.Errorf("DIV(INT_MIN,-1) = 0x%x, want 0x80000000", c.X(5))
	}

	c.Reset(bus.RAMBase, bus.RAMBase+4096)
	// divu x5, x1, x2 with x2=0.
	word = encodeR(opOp, 5, mExtFunct7, 5, 1, 2)
	storeWord(b, bus.RAMBase, word)
	c.SetX(1, 42)
	c.SetX(2, 0)
	if tr := c.Step(b); tr != nil {
		t.Fatalf("divu: unexpected trap %v", tr)
	}
	if c.X(5) != 0xFFFFFFFF {
		t.Errorf("DIVU(42,0) = 0x%x, want 0xFFFFFFFF", c.X(5))
	}

	c.Reset(bus.RAMBase, bus.RAMBase+4096)
	// remu x5, x1, x2 with x2=0: remainder is the dividend.
	word = encodeR(opOp, 7, mExtFunct7, 5, 1, 2)
	storeWord(b, bus.RAMBase, word)
	c.SetX(1, 99)
	c.SetX(2, 0)
	if tr := c.Step(b); tr != nil {
		t.Fatalf("remu: unexpected trap %v", tr)
	}
	if c.X(5) != 99 {
		t.Errorf("REMU(99,0) = %d, want 99", c.X(5))
	}
}

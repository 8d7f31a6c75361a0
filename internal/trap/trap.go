// Package trap defines the CPU-detected trap taxonomy and carries the
// per-instruction payload (bad address or bad instruction word) a trap
// needs for diagnostics.
package trap

import "fmt"

// Kind identifies one of the synchronous control transfers the CPU core
// can raise while stepping an instruction.
type Kind int

const (
	IllegalInstruction Kind = iota
	InstructionAccessFault
	InstructionMisaligned
	LoadAccessFault
	LoadMisaligned
	StoreAccessFault
	StoreMisaligned
	Breakpoint
	EcallFromU
)

func (k Kind) String() string {
	switch k {
	case IllegalInstruction:
		return "illegal instruction"
	case InstructionAccessFault:
		return "instruction access fault"
	case InstructionMisaligned:
		return "instruction address misaligned"
	case LoadAccessFault:
		return "load access fault"
	case LoadMisaligned:
		return "load address misaligned"
	case StoreAccessFault:
		return "store access fault"
	case StoreMisaligned:
		return "store address misaligned"
	case Breakpoint:
		return "breakpoint"
	case EcallFromU:
		return "ecall from u-mode"
	default:
		return "unknown trap"
	}
}

// Trap is a single fault or control-transfer event detected during a CPU
// step. Value carries the bad address (access/misaligned faults) or the
// raw instruction word (illegal instruction); it is the mtval-like payload
// called for in the error-handling design.
type Trap struct {
	Kind  Kind
	PC    uint32
	Value uint32
}

func New(kind Kind, pc, value uint32) *Trap {
	return &Trap{Kind: kind, PC: pc, Value: value}
}

func (t *Trap) Error() string {
	return fmt.Sprintf("%s at pc=0x%08x (value=0x%08x)", t.Kind, t.PC, t.Value)
}

// Fatal reports whether the default driver policy aborts the run on this
// trap. EcallFromU is the sole trap that is always dispatched rather than
// reported as an error.
func (t *Trap) Fatal() bool {
	return t.Kind != EcallFromU
}

// Package machine wires the CPU core, bus, VFS, and syscall shim into a
// single run: load an ELF, prepare the initial stack, and drive the CPU
// step by step until EBREAK, a fatal trap, or a host-requested halt. This
// is the re-architected analogue of the teacher's Emulator type, minus
// Unicorn: the bus is passed into every step and there are no singletons.
package machine

import (
	"fmt"

	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/cpu"
	"github.com/pyrv32/pyrv32/internal/device"
	"github.com/pyrv32/pyrv32/internal/elfloader"
	"github.com/pyrv32/pyrv32/internal/log"
	"github.com/pyrv32/pyrv32/internal/script"
	"github.com/pyrv32/pyrv32/internal/syscalls"
	"github.com/pyrv32/pyrv32/internal/trace"
	"github.com/pyrv32/pyrv32/internal/trap"
	"github.com/pyrv32/pyrv32/internal/vfs"
)

// Config configures a new Machine. Stdout/Stderr back the console and
// debug UARTs; RootDir is the sandbox root for the syscall shim's VFS.
type Config struct {
	RAMSize int
	RootDir string
	Stdout  bus.WriterFlusher
	Stderr  bus.WriterFlusher
	Logger  *log.Logger
	Trace   *trace.Collector // nil disables tracing
}

type Machine struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	VFS   *vfs.Sandbox
	Trace *trace.Collector
	log   *log.Logger
	hooks *script.Hooks
	rx    *device.RXFifo
}

func New(cfg Config) (*Machine, error) {
	sb, err := vfs.New(cfg.RootDir)
	if err != nil {
		return nil, err
	}
	rx := device.NewRXFifo()
	b := bus.New(bus.Config{
		RAMSize:   cfg.RAMSize,
		Stdout:    cfg.Stdout,
		Stderr:    cfg.Stderr,
		ConsoleRX: rx,
	})
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Machine{
		CPU:   cpu.New(),
		Bus:   b,
		VFS:   sb,
		Trace: cfg.Trace,
		log:   logger,
		rx:    rx,
	}, nil
}

// RXFifo exposes the console input FIFO so the driver's host-side input
// pump can feed it between steps.
func (m *Machine) RXFifo() *device.RXFifo { return m.rx }

// SetHooks installs script hooks after construction. script.Load needs a
// Registers view and the bus to bind its JS runtime against, both of
// which only exist once the Machine itself has been built, so hooks are
// attached here rather than threaded through Config.
func (m *Machine) SetHooks(h *script.Hooks) { m.hooks = h }

// LoadELF loads path into RAM and prepares the initial argc/argv/envp
// stack, resetting the CPU to the entry point.
func (m *Machine) LoadELF(path string, args, envp []string) error {
	result, err := elfloader.Load(path, m.Bus)
	if err != nil {
		return fmt.Errorf("machine: load %s: %w", path, err)
	}
	sp := elfloader.BuildStack(m.Bus, args, envp)
	m.CPU.Reset(result.Entry, sp)
	return nil
}

// StepResult reports what happened on one CPU step.
type StepResult struct {
	Trap       *trap.Trap // non-nil on any trap, including the dispatched EcallFromU
	Dispatched bool       // true if Trap was EcallFromU and was serviced
}

// Step executes exactly one instruction, dispatching ECALL to the
// syscall shim transparently and reporting any other trap to the caller.
func (m *Machine) Step() StepResult {
	if m.hooks != nil {
		m.hooks.FireAddress(m.CPU.PC)
	}

	pc := m.CPU.PC
	var inst cpu.Instruction
	if m.Trace != nil {
		if word, fault := m.Bus.Load(pc, 32); fault == bus.FaultNone {
			inst = cpu.Decode(word)
		}
	}

	tr := m.CPU.Step(m.Bus)

	if m.Trace != nil {
		ev := trace.NewEvent(pc, classify(inst.Op), inst.Mnemonic(), inst.String())
		m.Trace.Record(ev)
	}

	if tr == nil {
		return StepResult{}
	}

	m.log.Trap(tr.PC, tr.Kind.String(), tr.Value)

	if tr.Kind == trap.EcallFromU {
		env := &syscalls.Env{CPU: m.CPU, Bus: m.Bus, VFS: m.VFS}
		num := m.CPU.X(17)
		syscalls.Dispatch(env)
		m.log.Syscall(tr.PC, num, "", m.CPU.X(10))
		return StepResult{Trap: tr, Dispatched: true}
	}

	return StepResult{Trap: tr}
}

func classify(op cpu.Op) trace.Tag {
	switch op {
	case cpu.Beq, cpu.Bne, cpu.Blt, cpu.Bge, cpu.Bltu, cpu.Bgeu:
		return trace.Branch
	case cpu.Jal, cpu.Jalr:
		return trace.Jump
	case cpu.Lb, cpu.Lh, cpu.Lw, cpu.Lbu, cpu.Lhu:
		return trace.Load
	case cpu.Sb, cpu.Sh, cpu.Sw:
		return trace.Store
	case cpu.Mul, cpu.Mulh, cpu.Mulhsu, cpu.Mulhu, cpu.Div, cpu.Divu, cpu.Rem, cpu.Remu:
		return trace.MulDiv
	case cpu.Ecall:
		return trace.Ecall
	case cpu.Ebreak:
		return trace.Halt
	default:
		return trace.ALU
	}
}

// Run drives the CPU until EBREAK, a fatal trap, or the halt flag is set
// by an external caller (e.g. the debugger). It returns the guest exit
// code and, if the run ended on an unrecovered trap, that trap.
func (m *Machine) Run() (exitCode int, fatal *trap.Trap) {
	for !m.CPU.Halted {
		res := m.Step()
		if m.CPU.Halted {
			// EBREAK or the exit syscall already set ExitCode; this is a
			// clean halt, not a fault, even though EBREAK surfaces as a
			// trap.Breakpoint internally.
			break
		}
		if res.Trap != nil && !res.Dispatched {
			return 1, res.Trap
		}
	}
	return int(m.CPU.ExitCode), nil
}

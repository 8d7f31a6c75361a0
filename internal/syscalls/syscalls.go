// Package syscalls implements the Linux RV32 ECALL ABI shim: a
// table-driven dispatch of syscall numbers (read in a7) onto the host
// VFS, in the same self-registering-table spirit as the teacher's stub
// registry, generalized from "symbol name → libc stub" to "syscall
// number → VFS operation."
package syscalls

import (
	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/cpu"
	"github.com/pyrv32/pyrv32/internal/errno"
	"github.com/pyrv32/pyrv32/internal/vfs"
)

// Env bundles the state a syscall handler needs: the register file to
// read arguments from and write the result into, the bus (for UART I/O),
// and the sandboxed filesystem.
type Env struct {
	CPU *cpu.CPU
	Bus *bus.Bus
	VFS *vfs.Sandbox
}

type handlerFunc func(e *Env) uint32

var table = map[uint32]handlerFunc{
	17: sysGetcwd,
	35: sysUnlinkat,
	37: sysLinkat,
	38: sysRenameat,
	48: sysFaccessat,
	49: sysChdir,
	56: sysOpenat,
	57: sysClose,
	62: sysLseek,
	63: sysRead,
	64: sysWrite,
	79: sysFstatat,
	80: sysFstat,
	93: sysExit,
}

// Dispatch reads a7 as the syscall number and a0..a5 as arguments,
// invokes the matching handler, and writes the handler's return value
// (a non-negative result, or a negated errno) into a0. An unrecognised
// number returns -ENOSYS without consulting any handler.
func Dispatch(e *Env) {
	num := e.CPU.X(17) // a7
	h, ok := table[num]
	if !ok {
		e.CPU.SetX(10, errno.ENOSYS.Negated())
		return
	}
	e.CPU.SetX(10, h(e))
}

func argPath(e *Env, reg uint32) (string, bool) {
	return e.Bus.ReadCString(e.CPU.X(reg), 4096)
}

func checkAtFDCWD(e *Env, reg uint32) bool {
	return int32(e.CPU.X(reg)) == errno.AtFDCWD
}

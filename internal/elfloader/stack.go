package elfloader

import "github.com/pyrv32/pyrv32/internal/bus"

// BuildStack lays down the argc/argv/envp/auxv block (and the strings it
// points at) at the top of RAM, growing down, and returns the stack
// pointer _start expects: the address of argc.
func BuildStack(b *bus.Bus, args []string, envp []string) uint32 {
	ptr := bus.RAMBase + uint32(len(b.RAM))

	writeStr := func(s string) uint32 {
		data := append([]byte(s), 0)
		ptr -= uint32(len(data))
		copy(b.RAM[ptr-bus.RAMBase:], data)
		return ptr
	}

	argvPtrs := make([]uint32, len(args))
	for i := len(args) - 1; i >= 0; i-- {
		argvPtrs[i] = writeStr(args[i])
	}
	envPtrs := make([]uint32, len(envp))
	for i := len(envp) - 1; i >= 0; i-- {
		envPtrs[i] = writeStr(envp[i])
	}

	ptr &^= 3 // pointer arrays must be word-aligned

	writeWord := func(v uint32) {
		ptr -= 4
		off := ptr - bus.RAMBase
		b.RAM[off] = byte(v)
		b.RAM[off+1] = byte(v >> 8)
		b.RAM[off+2] = byte(v >> 16)
		b.RAM[off+3] = byte(v >> 24)
	}

	// auxv: AT_NULL terminator only (type 0, value 0) — no HWCAP/PAGESZ
	// entries are meaningful on this SoC.
	writeWord(0) // AT_NULL value
	writeWord(0) // AT_NULL type

	writeWord(0) // envp NULL terminator
	for i := len(envPtrs) - 1; i >= 0; i-- {
		writeWord(envPtrs[i])
	}

	writeWord(0) // argv NULL terminator
	for i := len(argvPtrs) - 1; i >= 0; i-- {
		writeWord(argvPtrs[i])
	}

	writeWord(uint32(len(args))) // argc
	return ptr
}

// Package elfloader reads a 32-bit RISC-V ELF executable and copies its
// PT_LOAD segments into the bus's RAM, recording the entry point for the
// driver to hand off to the CPU core.
package elfloader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/pyrv32/pyrv32/internal/bus"
)

// emRISCV is the e_machine value for RISC-V; debug/elf predates the
// architecture and has no named constant for it.
const emRISCV = 243

// Result is what Load hands back to the driver: the entry PC. The initial
// stack pointer comes separately from BuildStack.
type Result struct {
	Entry uint32
}

// Load parses path, rejects anything that isn't a little-endian 32-bit
// RV32 ET_EXEC image, and copies every PT_LOAD segment into b.RAM,
// zero-filling the BSS tail of each segment.
func Load(path string, b *bus.Bus) (Result, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("elfloader: open %s: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return Result{}, fmt.Errorf("elfloader: %s is not a 32-bit ELF", path)
	}
	if f.Data != elf.ELFDATA2LSB {
		return Result{}, fmt.Errorf("elfloader: %s is not little-endian", path)
	}
	if uint16(f.Machine) != emRISCV {
		return Result{}, fmt.Errorf("elfloader: %s has e_machine=%d, want EM_RISCV(243)", path, f.Machine)
	}
	if f.Type != elf.ET_EXEC {
		return Result{}, fmt.Errorf("elfloader: %s is e_type=%s, want ET_EXEC", path, f.Type)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if err := loadSegment(prog, b); err != nil {
			return Result{}, err
		}
	}

	return Result{Entry: uint32(f.Entry)}, nil
}

func loadSegment(prog *elf.Prog, b *bus.Bus) error {
	vaddr := uint32(prog.Vaddr)
	memsz := uint32(prog.Memsz)
	filesz := uint32(prog.Filesz)

	if uint64(vaddr)+uint64(memsz) > uint64(bus.RAMBase)+uint64(len(b.RAM)) || vaddr < bus.RAMBase {
		return fmt.Errorf("elfloader: PT_LOAD segment [0x%08x, 0x%08x) does not fit in RAM", vaddr, vaddr+memsz)
	}

	data := make([]byte, filesz)
	if _, err := io.ReadFull(prog.Open(), data); err != nil {
		return fmt.Errorf("elfloader: read segment data: %w", err)
	}

	off := vaddr - bus.RAMBase
	copy(b.RAM[off:off+filesz], data)
	for i := filesz; i < memsz; i++ {
		b.RAM[off+i] = 0
	}
	return nil
}

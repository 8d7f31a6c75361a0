package main

import (
	"debug/elf"
	"fmt"
)

// emRISCV is EM_RISCV; debug/elf has no named constant for it.
const emRISCV = 243

// printELFInfo prints a header and segment summary for path without
// loading it into guest RAM or executing anything.
func printELFInfo(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("pyrv32: info: %w", err)
	}
	defer f.Close()

	class := "unknown"
	if f.Class == elf.ELFCLASS32 {
		class = "ELF32"
	} else if f.Class == elf.ELFCLASS64 {
		class = "ELF64"
	}
	endian := "unknown"
	if f.Data == elf.ELFDATA2LSB {
		endian = "little-endian"
	} else if f.Data == elf.ELFDATA2MSB {
		endian = "big-endian"
	}

	fmt.Printf("%s: %s %s, type=%s, machine=%d", path, class, endian, f.Type, f.Machine)
	if uint16(f.Machine) == emRISCV {
		fmt.Print(" (RISC-V)")
	}
	fmt.Println()
	fmt.Printf("entry: 0x%08x\n", f.Entry)

	fmt.Println("segments:")
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		fmt.Printf("  LOAD  vaddr=0x%08x  filesz=0x%-8x memsz=0x%-8x flags=%s\n",
			p.Vaddr, p.Filesz, p.Memsz, p.Flags)
	}

	fmt.Println("sections:")
	for _, s := range f.Sections {
		if s.Addr == 0 && s.Size == 0 {
			continue
		}
		fmt.Printf("  %-16s addr=0x%08x size=0x%x\n", s.Name, s.Addr, s.Size)
	}

	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB || uint16(f.Machine) != emRISCV || f.Type != elf.ET_EXEC {
		fmt.Println()
		fmt.Println("warning: this image does not match the ELFCLASS32/LE/EM_RISCV/ET_EXEC shape pyrv32 run requires")
	}
	return nil
}

package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pyrv32/pyrv32/internal/bus"
)

type fakeRegs struct {
	x [32]uint32
}

func (f *fakeRegs) X(n uint32) uint32     { return f.x[n] }
func (f *fakeRegs) SetX(n uint32, v uint32) { f.x[n] = v }

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadRegistersAddressHook(t *testing.T) {
	path := writeScript(t, `
		onAddress[0x1000] = function() {
			cpu.setReg(5, cpu.reg(6) + 1);
		};
	`)
	regs := &fakeRegs{}
	regs.SetX(6, 41)

	b := bus.New(bus.Config{RAMSize: 4096})
	h, err := Load(path, regs, b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	h.FireAddress(0x1000)
	if got := regs.X(5); got != 42 {
		t.Errorf("x5 = %d, want 42", got)
	}

	// firing an address with no registered hook must be a no-op
	h.FireAddress(0x2000)
}

func TestLoadRegistersMMIOHook(t *testing.T) {
	path := writeScript(t, `
		onMMIO[0x10000000] = function(bus, isWrite, value) {
			if (isWrite) {
				bus.writeU32(0x80000100, value + 1);
			}
		};
	`)
	regs := &fakeRegs{}
	b := bus.New(bus.Config{RAMSize: 4096})
	h, err := Load(path, regs, b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	h.FireMMIO(0x10000000, true, 9)

	got, fault := b.Load(bus.RAMBase+0x100, 32)
	if fault != bus.FaultNone {
		t.Fatalf("Load fault: %v", fault)
	}
	if got != 10 {
		t.Errorf("mem[0x100] = %d, want 10", got)
	}
}

func TestLoadReturnsErrorOnBadScript(t *testing.T) {
	path := writeScript(t, `this is not valid javascript {{{`)
	regs := &fakeRegs{}
	b := bus.New(bus.Config{RAMSize: 4096})
	if _, err := Load(path, regs, b); err == nil {
		t.Error("expected error loading malformed script")
	}
}

func TestLoadReturnsErrorOnMissingFile(t *testing.T) {
	regs := &fakeRegs{}
	b := bus.New(bus.Config{RAMSize: 4096})
	if _, err := Load(filepath.Join(t.TempDir(), "missing.js"), regs, b); err == nil {
		t.Error("expected error for missing script file")
	}
}

// Package script lets a host JS file instrument a run: register callbacks
// fired immediately before a given PC executes (the machine's run loop
// calls FireAddress before every step), or keyed by an MMIO address and
// invoked through FireMMIO. The run loop does not call FireMMIO, so onMMIO
// hooks fire only when a caller invokes FireMMIO directly. This generalizes the address-hook extensibility
// point of the teacher's emulator from hard-coded Go closures to
// user-supplied scripts, narrowly bound to guest registers and memory.
package script

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dop251/goja"

	"github.com/pyrv32/pyrv32/internal/bus"
)

// Registers is the narrow register-file surface a script can touch.
// *cpu.CPU satisfies this structurally.
type Registers interface {
	X(n uint32) uint32
	SetX(n uint32, v uint32)
}

// Hooks holds a goja runtime and the address/MMIO callback tables a
// loaded script populated.
type Hooks struct {
	vm        *goja.Runtime
	onAddress map[uint32]goja.Callable
	onMMIO    map[uint32]goja.Callable
}

// Load reads and runs the script at path. The script populates two
// global tables: onAddress[pc] = function(cpu) {...} and
// onMMIO[offset] = function(bus, isWrite, value) {...}.
func Load(path string, regs Registers, b *bus.Bus) (*Hooks, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}

	vm := goja.New()
	addrTable := vm.NewObject()
	mmioTable := vm.NewObject()
	vm.Set("onAddress", addrTable)
	vm.Set("onMMIO", mmioTable)
	vm.Set("cpu", newCPUBinding(vm, regs))
	vm.Set("bus", newBusBinding(vm, b))

	if _, err := vm.RunString(string(src)); err != nil {
		return nil, fmt.Errorf("script: run %s: %w", path, err)
	}

	h := &Hooks{
		vm:        vm,
		onAddress: extractCallbacks(addrTable),
		onMMIO:    extractCallbacks(mmioTable),
	}
	return h, nil
}

func extractCallbacks(obj *goja.Object) map[uint32]goja.Callable {
	out := make(map[uint32]goja.Callable)
	for _, key := range obj.Keys() {
		v, err := strconv.ParseUint(key, 0, 32)
		if err != nil {
			continue
		}
		if fn, ok := goja.AssertFunction(obj.Get(key)); ok {
			out[uint32(v)] = fn
		}
	}
	return out
}

// FireAddress invokes the onAddress hook registered at pc, if any.
func (h *Hooks) FireAddress(pc uint32) {
	fn, ok := h.onAddress[pc]
	if !ok {
		return
	}
	fn(goja.Undefined(), h.vm.Get("cpu"))
}

// FireMMIO invokes the onMMIO hook registered at offset, if any, as
// function(bus, isWrite, value).
func (h *Hooks) FireMMIO(offset uint32, isWrite bool, value uint32) {
	fn, ok := h.onMMIO[offset]
	if !ok {
		return
	}
	fn(goja.Undefined(), h.vm.Get("bus"), h.vm.ToValue(isWrite), h.vm.ToValue(value))
}

func newCPUBinding(vm *goja.Runtime, regs Registers) *goja.Object {
	obj := vm.NewObject()
	obj.Set("reg", func(n uint32) uint32 { return regs.X(n) })
	obj.Set("setReg", func(n uint32, v uint32) { regs.SetX(n, v) })
	return obj
}

func newBusBinding(vm *goja.Runtime, b *bus.Bus) *goja.Object {
	obj := vm.NewObject()
	obj.Set("readU32", func(addr uint32) uint32 {
		v, _ := b.Load(addr, 32)
		return v
	})
	obj.Set("writeU32", func(addr uint32, v uint32) {
		b.Store(addr, 32, v)
	})
	return obj
}

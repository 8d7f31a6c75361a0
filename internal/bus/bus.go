// Package bus routes physical addresses to RAM or an MMIO device and
// reports access faults. It knows nothing about instructions, registers,
// or traps — that mapping is the CPU core's job (internal/cpu).
package bus

import (
	"github.com/pyrv32/pyrv32/internal/device"
)

const (
	// RAMBase is the fixed address the simulated RAM region is mapped at.
	RAMBase uint32 = 0x80000000
	// DefaultRAMSize is used when the driver does not override --ram.
	DefaultRAMSize = 8 * 1024 * 1024

	mmioDebugUARTTx    uint32 = 0x10000000
	mmioMillis         uint32 = 0x10000004
	mmioUnixSeconds    uint32 = 0x10000008
	mmioNanos          uint32 = 0x1000000C
	mmioConsoleUARTTx  uint32 = 0x10001000
	mmioConsoleUARTRx  uint32 = 0x10001004
	mmioConsoleRxState uint32 = 0x10001008
)

// Fault distinguishes the two fault shapes the bus can report; the CPU
// core attaches the fetch/load/store-specific trap.Kind.
type Fault int

const (
	FaultNone Fault = iota
	FaultAccess
	FaultMisaligned
)

// Bus owns RAM and the MMIO peripherals and is passed into every CPU
// step — no hidden singletons, no process-global clock.
type Bus struct {
	RAM         []byte
	ConsoleUART *device.UART
	DebugUART   *device.UART
	ConsoleRX   *device.RXFifo
	Clock       *device.Clock
}

type Config struct {
	RAMSize   int
	Stdout    WriterFlusher
	Stderr    WriterFlusher
	ConsoleRX *device.RXFifo
}

// WriterFlusher is the minimal io.Writer the UARTs need; named so callers
// can pass *os.File or any other stream without importing io here twice.
type WriterFlusher interface {
	Write(p []byte) (n int, err error)
}

func New(cfg Config) *Bus {
	size := cfg.RAMSize
	if size <= 0 {
		size = DefaultRAMSize
	}
	rx := cfg.ConsoleRX
	if rx == nil {
		rx = device.NewRXFifo()
	}
	return &Bus{
		RAM:         make([]byte, size),
		ConsoleUART: device.NewUART(cfg.Stdout),
		DebugUART:   device.NewUART(cfg.Stderr),
		ConsoleRX:   rx,
		Clock:       device.NewClock(),
	}
}

func (b *Bus) inRAM(addr uint32, width int) bool {
	end := uint64(addr) + uint64(width/8)
	return uint64(addr) >= uint64(RAMBase) && end <= uint64(RAMBase)+uint64(len(b.RAM))
}

func aligned(addr uint32, width int) bool {
	switch width {
	case 16:
		return addr%2 == 0
	case 32:
		return addr%4 == 0
	default:
		return true
	}
}

// Load reads width bits (8, 16, or 32) from addr. RAM reads are
// side-effect-free; MMIO reads may mutate device state (the RX data
// register dequeues).
func (b *Bus) Load(addr uint32, width int) (uint32, Fault) {
	if width == 16 || width == 32 {
		if !aligned(addr, width) {
			return 0, FaultMisaligned
		}
	}
	if b.inRAM(addr, width) {
		off := addr - RAMBase
		switch width {
		case 8:
			return uint32(b.RAM[off]), FaultNone
		case 16:
			return uint32(b.RAM[off]) | uint32(b.RAM[off+1])<<8, FaultNone
		case 32:
			return uint32(b.RAM[off]) | uint32(b.RAM[off+1])<<8 |
				uint32(b.RAM[off+2])<<16 | uint32(b.RAM[off+3])<<24, FaultNone
		}
	}

	switch {
	case addr == mmioMillis && width == 32:
		return b.Clock.MillisSinceStart(), FaultNone
	case addr == mmioUnixSeconds && width == 32:
		return b.Clock.UnixSeconds(), FaultNone
	case addr == mmioNanos && width == 32:
		return b.Clock.Nanos(), FaultNone
	case addr == mmioConsoleUARTRx && width == 8:
		v, ok := b.ConsoleRX.TryPop()
		if !ok {
			// Unspecified-but-deterministic sentinel; guests must consult
			// the status register first, per the documented open question.
			return 0xFF, FaultNone
		}
		return uint32(v), FaultNone
	case addr == mmioConsoleRxState && width == 8:
		if b.ConsoleRX.HasData() {
			return 0x01, FaultNone
		}
		return 0x00, FaultNone
	}
	return 0, FaultAccess
}

// Store writes width bits to addr.
func (b *Bus) Store(addr uint32, width int, value uint32) Fault {
	if width == 16 || width == 32 {
		if !aligned(addr, width) {
			return FaultMisaligned
		}
	}
	if b.inRAM(addr, width) {
		off := addr - RAMBase
		switch width {
		case 8:
			b.RAM[off] = byte(value)
		case 16:
			b.RAM[off] = byte(value)
			b.RAM[off+1] = byte(value >> 8)
		case 32:
			b.RAM[off] = byte(value)
			b.RAM[off+1] = byte(value >> 8)
			b.RAM[off+2] = byte(value >> 16)
			b.RAM[off+3] = byte(value >> 24)
		}
		return FaultNone
	}

	switch {
	case addr == mmioDebugUARTTx && width == 8:
		b.DebugUART.Write(byte(value))
		return FaultNone
	case addr == mmioConsoleUARTTx && width == 8:
		b.ConsoleUART.Write(byte(value))
		return FaultNone
	}
	return FaultAccess
}

// Tick advances any time-dependent device state. Both clocks here sample
// host time lazily on read, so there is nothing to do, but the hook stays
// for a driver loop that wants an explicit per-step point to pump the
// RX FIFO or service other host-side input.
func (b *Bus) Tick() {}

// ReadBytes copies n bytes out of RAM for host-side consumers (the
// syscall shim marshalling a guest buffer), bypassing MMIO routing
// entirely. ok is false if the range is not wholly within RAM.
func (b *Bus) ReadBytes(addr uint32, n int) ([]byte, bool) {
	if !b.inRAM(addr, n*8) {
		return nil, false
	}
	off := addr - RAMBase
	out := make([]byte, n)
	copy(out, b.RAM[off:off+uint32(n)])
	return out, true
}

// WriteBytes copies data into RAM at addr, bypassing MMIO routing.
func (b *Bus) WriteBytes(addr uint32, data []byte) bool {
	if !b.inRAM(addr, len(data)*8) {
		return false
	}
	off := addr - RAMBase
	copy(b.RAM[off:off+uint32(len(data))], data)
	return true
}

// ReadCString reads a NUL-terminated string starting at addr, up to
// maxLen bytes.
func (b *Bus) ReadCString(addr uint32, maxLen int) (string, bool) {
	if addr < RAMBase || addr >= RAMBase+uint32(len(b.RAM)) {
		return "", false
	}
	off := addr - RAMBase
	end := off
	limit := off + uint32(maxLen)
	if limit > uint32(len(b.RAM)) {
		limit = uint32(len(b.RAM))
	}
	for end < limit && b.RAM[end] != 0 {
		end++
	}
	return string(b.RAM[off:end]), true
}

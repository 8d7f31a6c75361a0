package bus

import (
	"bytes"
	"testing"
)

func newTestBus() *Bus {
	return New(Config{RAMSize: 4096, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
}

func TestStoreLoadRoundTrip(t *testing.T) {
	b := newTestBus()
	cases := []struct {
		width int
		value uint32
	}{
		{8, 0xAB},
		{16, 0xBEEF},
		{32, 0xDEADBEEF},
	}
	for _, c := range cases {
		addr := RAMBase + 0x100
		if f := b.Store(addr, c.width, c.value); f != FaultNone {
			t.Fatalf("store width=%d: fault %v", c.width, f)
		}
		got, f := b.Load(addr, c.width)
		if f != FaultNone {
			t.Fatalf("load width=%d: fault %v", c.width, f)
		}
		mask := uint32(1)<<uint(c.width) - 1
		if got != c.value&mask {
			t.Errorf("width=%d: got 0x%x, want 0x%x", c.width, got, c.value&mask)
		}
	}
}

func TestMisalignedAccessFaults(t *testing.T) {
	b := newTestBus()
	if _, f := b.Load(RAMBase+1, 32); f != FaultMisaligned {
		t.Errorf("unaligned 32-bit load: got %v, want FaultMisaligned", f)
	}
	if _, f := b.Load(RAMBase+1, 16); f != FaultMisaligned {
		t.Errorf("unaligned 16-bit load: got %v, want FaultMisaligned", f)
	}
	if f := b.Store(RAMBase+2, 32, 0); f != FaultMisaligned {
		t.Errorf("unaligned 32-bit store: got %v, want FaultMisaligned", f)
	}
}

func TestOutOfRangeAccessFaults(t *testing.T) {
	b := newTestBus()
	if _, f := b.Load(0, 32); f != FaultAccess {
		t.Errorf("load at address 0: got %v, want FaultAccess", f)
	}
	if f := b.Store(RAMBase+uint32(len(b.RAM)), 32, 1); f != FaultAccess {
		t.Errorf("store past RAM end: got %v, want FaultAccess", f)
	}
}

func TestMillisMonotonic(t *testing.T) {
	b := newTestBus()
	first, f := b.Load(mmioMillis, 32)
	if f != FaultNone {
		t.Fatalf("millis read: fault %v", f)
	}
	second, f := b.Load(mmioMillis, 32)
	if f != FaultNone {
		t.Fatalf("millis read: fault %v", f)
	}
	if second < first {
		t.Errorf("millis went backwards: %d then %d", first, second)
	}
}

func TestConsoleRXEmptySentinel(t *testing.T) {
	b := newTestBus()
	v, f := b.Load(mmioConsoleUARTRx, 8)
	if f != FaultNone {
		t.Fatalf("rx data read: fault %v", f)
	}
	if v != 0xFF {
		t.Errorf("empty rx read = 0x%x, want 0xFF", v)
	}
	status, _ := b.Load(mmioConsoleRxState, 8)
	if status != 0x00 {
		t.Errorf("empty rx status = 0x%x, want 0x00", status)
	}
}

func TestConsoleRXDataDequeues(t *testing.T) {
	b := newTestBus()
	b.ConsoleRX.Push('A')
	status, _ := b.Load(mmioConsoleRxState, 8)
	if status != 0x01 {
		t.Fatalf("rx status after push = 0x%x, want 0x01", status)
	}
	v, _ := b.Load(mmioConsoleUARTRx, 8)
	if v != uint32('A') {
		t.Fatalf("rx data = %q, want 'A'", v)
	}
	v2, _ := b.Load(mmioConsoleUARTRx, 8)
	if v2 != 0xFF {
		t.Errorf("second read after dequeue = 0x%x, want 0xFF sentinel", v2)
	}
}

func TestDebugAndConsoleUARTWrites(t *testing.T) {
	b := newTestBus()
	if f := b.Store(mmioDebugUARTTx, 8, 'x'); f != FaultNone {
		t.Errorf("debug uart write: fault %v", f)
	}
	if f := b.Store(mmioConsoleUARTTx, 8, 'y'); f != FaultNone {
		t.Errorf("console uart write: fault %v", f)
	}
	if f := b.Store(mmioDebugUARTTx, 32, 0x41414141); f != FaultAccess {
		t.Errorf("32-bit debug uart write: got %v, want FaultAccess", f)
	}
}

func TestReadWriteBytesAndCString(t *testing.T) {
	b := newTestBus()
	data := []byte("hello\x00world")
	if !b.WriteBytes(RAMBase+0x40, data) {
		t.Fatal("WriteBytes failed")
	}
	got, ok := b.ReadBytes(RAMBase+0x40, len(data))
	if !ok || !bytes.Equal(got, data) {
		t.Errorf("ReadBytes = %q, ok=%v", got, ok)
	}
	s, ok := b.ReadCString(RAMBase+0x40, 64)
	if !ok || s != "hello" {
		t.Errorf("ReadCString = %q, ok=%v, want %q", s, ok, "hello")
	}
}

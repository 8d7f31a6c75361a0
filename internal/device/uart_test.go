package device

import (
	"bytes"
	"testing"
	"time"
)

func TestUARTWritesThrough(t *testing.T) {
	var buf bytes.Buffer
	u := NewUART(&buf)
	if err := u.Write('A'); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "A" {
		t.Errorf("buf = %q, want %q", buf.String(), "A")
	}
}

func TestRXFifoTryPopEmpty(t *testing.T) {
	f := NewRXFifo()
	if _, ok := f.TryPop(); ok {
		t.Error("TryPop on empty fifo returned ok=true")
	}
	if f.HasData() {
		t.Error("HasData on empty fifo returned true")
	}
}

func TestRXFifoPushTryPopOrder(t *testing.T) {
	f := NewRXFifo()
	f.Push('a')
	f.Push('b')
	v1, ok1 := f.TryPop()
	v2, ok2 := f.TryPop()
	if !ok1 || !ok2 || v1 != 'a' || v2 != 'b' {
		t.Errorf("got (%q,%v) (%q,%v), want FIFO order a,b", v1, ok1, v2, ok2)
	}
}

func TestRXFifoBlockingReadUnblocksOnPush(t *testing.T) {
	f := NewRXFifo()
	done := make(chan int, 1)
	go func() {
		buf := make([]byte, 4)
		done <- f.BlockingRead(buf)
	}()

	select {
	case <-done:
		t.Fatal("BlockingRead returned before any data was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	f.Push('z')
	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("BlockingRead returned n=%d, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatal("BlockingRead never returned after push")
	}
}

func TestClockMillisNonDecreasing(t *testing.T) {
	c := NewClock()
	a := c.MillisSinceStart()
	time.Sleep(2 * time.Millisecond)
	b := c.MillisSinceStart()
	if b < a {
		t.Errorf("millis went backwards: %d then %d", a, b)
	}
}

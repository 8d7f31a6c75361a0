package trace

import "testing"

func TestDefaultEnricherAddsMulDivTag(t *testing.T) {
	e := NewEvent(0x1000, ALU, "div", "div x5, x6, x7")
	DefaultEnricher(e)
	if !e.Tags.Has(MulDiv) {
		t.Errorf("expected MulDiv tag on %q, got %v", e.Mnemonic, e.Tags)
	}
}

func TestDefaultEnricherAddsHaltTag(t *testing.T) {
	e := NewEvent(0x2000, Halt, "ebreak", "ebreak")
	DefaultEnricher(e)
	if !e.Tags.Has(Halt) {
		t.Errorf("expected Halt tag, got %v", e.Tags)
	}
}

func TestCollectorRingBufferOverwritesOldest(t *testing.T) {
	c := NewCollector(3)
	for i := uint32(0); i < 5; i++ {
		c.Record(NewEvent(i, ALU, "addi", ""))
	}
	events := c.Events()
	if len(events) != 3 {
		t.Fatalf("len(Events()) = %d, want 3", len(events))
	}
	want := []uint32{2, 3, 4}
	for i, ev := range events {
		if ev.PC != want[i] {
			t.Errorf("events[%d].PC = %d, want %d", i, ev.PC, want[i])
		}
	}
}

func TestCollectorBelowCapacityPreservesOrder(t *testing.T) {
	c := NewCollector(10)
	c.Record(NewEvent(1, ALU, "addi", ""))
	c.Record(NewEvent(2, ALU, "addi", ""))
	events := c.Events()
	if len(events) != 2 || events[0].PC != 1 || events[1].PC != 2 {
		t.Errorf("events = %+v, want PC 1 then 2", events)
	}
}

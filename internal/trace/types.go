// Package trace provides types for instruction trace collection, an
// optional read-only side-channel on the CPU step loop enabled by --trace.
package trace

import "time"

// Tag represents a trace event category. Tags are stored without a '#'
// prefix; the prefix is added on rendering.
type Tag string

// Standard tags for trace events.
const (
	Branch Tag = "branch"
	Jump   Tag = "jump"
	Load   Tag = "load"
	Store  Tag = "store"
	ALU    Tag = "alu"
	MulDiv Tag = "muldiv"
	Ecall  Tag = "ecall"
	Trap   Tag = "trap"
	Halt   Tag = "halt"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for trace events.
type Annotations map[string]string

func (a Annotations) Set(k, v string) { a[k] = v }
func (a Annotations) Get(k string) string { return a[k] }

// Event represents one traced instruction step.
type Event struct {
	PC          uint32
	Tags        Tags
	Mnemonic    string
	Detail      string
	Annotations Annotations
	Timestamp   time.Time
}

// NewEvent creates a new trace event with the given parameters.
func NewEvent(pc uint32, category Tag, mnemonic, detail string) *Event {
	return &Event{
		PC:          pc,
		Tags:        Tags{category},
		Mnemonic:    mnemonic,
		Detail:      detail,
		Annotations: make(Annotations),
		Timestamp:   time.Now(),
	}
}

func (e *Event) AddTag(tag Tag) { e.Tags.Add(tag) }

func (e *Event) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations.Set(k, v)
}

func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher enriches trace events based on mnemonic.
type Enricher func(e *Event)

// DefaultEnricher adds a secondary tag for mnemonics whose primary
// category benefits from a more specific label.
func DefaultEnricher(e *Event) {
	switch e.Mnemonic {
	case "ecall":
		e.AddTag(Ecall)
	case "ebreak":
		e.AddTag(Halt)
	case "mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu":
		e.AddTag(MulDiv)
	}
}

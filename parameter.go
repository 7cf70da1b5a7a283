package flowgate

import (
	"fmt"
	"slices"
	"strings"
)

// Ref names a scalar quantity that can be derived from an event: a raw
// detector value, a compensated value or a transformation output. Two refs are
// the same parameter iff their names are equal.
type Ref string

func (r Ref) String() string {
	return string(r)
}

// Refs converts names to references.
func Refs(names ...string) []Ref {
	refs := make([]Ref, len(names))
	for i, n := range names {
		refs[i] = Ref(n)
	}
	return refs
}

// Event is one measured cell: a vector of raw values, one per raw parameter
// slot, and an ID that is stable for the lifetime of the data set.
// Events are immutable.
type Event struct {
	id   int
	data []float64
}

// NewEvent creates an event. The values are copied.
func NewEvent(id int, values ...float64) Event {
	return Event{
		id:   id,
		data: slices.Clone(values),
	}
}

// ID returns the event's identity within its data set.
func (e Event) ID() int {
	return e.id
}

// Len is the number of raw values.
func (e Event) Len() int {
	return len(e.data)
}

// Value returns the raw value in the 0-based slot.
func (e Event) Value(slot int) (float64, bool) {
	if slot < 0 || slot >= len(e.data) {
		return 0, false
	}
	return e.data[slot], true
}

// Data returns a copy of the raw values.
func (e Event) Data() []float64 {
	return slices.Clone(e.data)
}

func (e Event) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("#%d [", e.id))
	for i, v := range e.data {
		if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(fmt.Sprintf("%g", v))
	}
	s.WriteString("]")
	return s.String()
}

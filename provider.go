package flowgate

import (
	"fmt"
)

// Retriever resolves parameters for an event. Providers receive a Retriever
// to resolve their inputs; the resolver passes itself in a form that tracks
// the chain of parameters being resolved.
type Retriever interface {
	Scale(ref Ref, ev Event) (float64, error)
}

// Provider produces the value of one parameter for an event.
type Provider interface {
	// Ref is the parameter this provider produces.
	Ref() Ref

	// Dependencies are the parameters the provider reads. Raw parameters
	// have none.
	Dependencies() []Ref

	// Scale computes the parameter's value for ev. Inputs are retrieved
	// through r.
	Scale(ev Event, r Retriever) (float64, error)
}

// Collection is a group of providers. A Resolver is built from an ordered
// list of collections.
type Collection interface {
	// Refs returns the parameters produced, each at most once.
	Refs() []Ref

	// Get returns the provider for ref.
	Get(ref Ref) (Provider, bool)
}

// RawParameters maps raw parameter names to event slots. The i'th name is
// the i'th value of every event.
type RawParameters struct {
	refs  []Ref
	slots map[Ref]int
}

// NewRawParameters creates the raw parameter collection. Names must be
// unique and non-empty.
func NewRawParameters(names ...string) (*RawParameters, error) {
	p := &RawParameters{
		refs:  make([]Ref, 0, len(names)),
		slots: make(map[Ref]int, len(names)),
	}
	var dups []Ref
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("raw parameter %d has no name", i)
		}
		r := Ref(n)
		if _, ok := p.slots[r]; ok {
			dups = append(dups, r)
			continue
		}
		p.slots[r] = i
		p.refs = append(p.refs, r)
	}
	if len(dups) > 0 {
		return nil, &DuplicateParameterError{Refs: dups}
	}
	return p, nil
}

// Refs returns the raw parameters in slot order.
func (p *RawParameters) Refs() []Ref {
	out := make([]Ref, len(p.refs))
	copy(out, p.refs)
	return out
}

// Get returns the provider reading ref's slot.
func (p *RawParameters) Get(ref Ref) (Provider, bool) {
	slot, ok := p.slots[ref]
	if !ok {
		return nil, false
	}
	return rawParameter{ref: ref, slot: slot}, true
}

// Slot returns the event slot holding ref.
func (p *RawParameters) Slot(ref Ref) (int, bool) {
	slot, ok := p.slots[ref]
	return slot, ok
}

// Len is the number of raw parameters.
func (p *RawParameters) Len() int {
	return len(p.refs)
}

// Population builds events from rows, numbering them from 0, and returns a
// population with a resolver over the raw parameters only.
func (p *RawParameters) Population(rows [][]float64) (*Population, error) {
	r, err := NewResolver(p)
	if err != nil {
		return nil, err
	}
	events := make([]Event, len(rows))
	for i, row := range rows {
		if len(row) != len(p.refs) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(p.refs))
		}
		events[i] = NewEvent(i, row...)
	}
	return NewPopulation(r, events...), nil
}

type rawParameter struct {
	ref  Ref
	slot int
}

func (r rawParameter) Ref() Ref {
	return r.ref
}

func (r rawParameter) Dependencies() []Ref {
	return nil
}

func (r rawParameter) Scale(ev Event, _ Retriever) (float64, error) {
	return r.value(ev)
}

func (r rawParameter) value(ev Event) (float64, error) {
	v, ok := ev.Value(r.slot)
	if !ok {
		return 0, fmt.Errorf("raw parameter %s: event %d has no slot %d", r.ref, ev.ID(), r.slot)
	}
	return v, nil
}

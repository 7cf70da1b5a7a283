package flowgate

import (
	"fmt"
	"slices"
)

// Population is an ordered set of events, unique by event ID, together with
// the resolver used to derive parameters from them.
//
// A subpopulation is a Population produced by applying a gate to a parent
// population. Its events are a subset of the parent's, in parent order, and
// Gate returns the gate that produced it.
type Population struct {
	events   []Event
	ids      map[int]struct{}
	resolver *Resolver
	parent   *Population
	gate     Gate
}

// NewPopulation creates a population from events. Events with an ID that is
// already present are dropped; the first occurrence wins.
func NewPopulation(r *Resolver, events ...Event) *Population {
	p := &Population{
		events:   make([]Event, 0, len(events)),
		ids:      make(map[int]struct{}, len(events)),
		resolver: r,
	}
	for _, ev := range events {
		if _, ok := p.ids[ev.ID()]; ok {
			continue
		}
		p.ids[ev.ID()] = struct{}{}
		p.events = append(p.events, ev)
	}
	return p
}

// subpopulation creates the population of events admitted by g. The events
// must come from p and be in p's order.
func (p *Population) subpopulation(g Gate, inside []Event) *Population {
	sub := &Population{
		events:   inside,
		ids:      make(map[int]struct{}, len(inside)),
		resolver: p.resolver,
		parent:   p,
		gate:     g,
	}
	for _, ev := range inside {
		sub.ids[ev.ID()] = struct{}{}
	}
	return sub
}

// Len is the number of events.
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.events)
}

// Event returns the i'th event.
func (p *Population) Event(i int) Event {
	return p.events[i]
}

// Events returns the events in order. The slice is a copy.
func (p *Population) Events() []Event {
	return slices.Clone(p.events)
}

// Contains reports whether an event with ev's ID is in the population.
func (p *Population) Contains(ev Event) bool {
	return p.ContainsID(ev.ID())
}

// ContainsID reports whether an event with the ID is in the population.
func (p *Population) ContainsID(id int) bool {
	_, ok := p.ids[id]
	return ok
}

// Resolver is the population's default resolver.
func (p *Population) Resolver() *Resolver {
	return p.resolver
}

// WithResolver returns a population holding the same events, evaluated with r.
func (p *Population) WithResolver(r *Resolver) *Population {
	cp := *p
	cp.resolver = r
	return &cp
}

// Parent is the population the gate was applied to, or nil for a root
// population.
func (p *Population) Parent() *Population {
	return p.parent
}

// Gate is the gate that produced this subpopulation, or nil for a root
// population.
func (p *Population) Gate() Gate {
	return p.gate
}

// PercentOfParent is the share of the parent's events in this population, in
// percent. A root population, or one with an empty parent, reports 100.
func (p *Population) PercentOfParent() float64 {
	if p.parent == nil || p.parent.Len() == 0 {
		return 100
	}
	return 100 * float64(p.Len()) / float64(p.parent.Len())
}

func (p *Population) String() string {
	if p.gate == nil {
		return fmt.Sprintf("population (%d events)", p.Len())
	}
	return fmt.Sprintf("population %s (%d events)", p.gate.ID(), p.Len())
}

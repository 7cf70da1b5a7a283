package flowgate

import (
	"errors"
	"fmt"
	"strings"
)

// Gate classifies events as inside or outside a region of parameter space.
//
// Gates are identified by ID; two gates with the same ID are the same gate.
// Geometric gates and decision trees are validated when they are created.
// Boolean gates refer to other gates and are validated once all of them
// exist, see Boolean.Validate and Builder.
type Gate interface {
	// ID is the gate's unique identifier.
	ID() string

	// Inside reports whether ev is inside the gate. Parameters are
	// resolved through r.
	Inside(ev Event, r Retriever) (bool, error)

	// Validate checks the gate's definition. It returns an
	// *InvalidGateError describing the problem.
	Validate() error

	// Dependencies are the gates this gate is defined in terms of.
	Dependencies() []Gate
}

// BatchGate is implemented by gates that classify a whole population more
// efficiently than one event at a time. The result holds one entry per
// event, in population order.
type BatchGate interface {
	Gate
	InsidePopulation(pop *Population, r Retriever) ([]bool, error)
}

// Gated applies g to pop and returns the subpopulation of events inside g,
// in pop's order. If r is nil, the population's resolver is used.
//
// The first event that cannot be classified aborts the call with an
// *EventError.
func Gated(g Gate, pop *Population, r Retriever) (*Population, error) {
	if g == nil {
		return nil, errors.New("nil gate")
	}
	if r == nil {
		if pop.Resolver() == nil {
			return nil, fmt.Errorf("gate %s: population has no resolver", g.ID())
		}
		r = pop.Resolver()
	}

	var inside []Event

	if bg, ok := g.(BatchGate); ok {
		in, err := bg.InsidePopulation(pop, r)
		if err != nil {
			return nil, err
		}
		for i, ok := range in {
			if ok {
				inside = append(inside, pop.Event(i))
			}
		}
		return pop.subpopulation(g, inside), nil
	}

	for i := 0; i < pop.Len(); i++ {
		ev := pop.Event(i)
		ok, err := g.Inside(ev, r)
		if err != nil {
			return nil, &EventError{EventID: ev.ID(), Err: err}
		}
		if ok {
			inside = append(inside, ev)
		}
	}
	return pop.subpopulation(g, inside), nil
}

// coordinates resolves the gate's dimensions for ev.
func coordinates(ev Event, r Retriever, dims []Ref, dst []float64) ([]float64, error) {
	dst = dst[:0]
	for _, d := range dims {
		v, err := r.Scale(d, ev)
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidGate(id, "missing gate id")
	}
	return nil
}

func checkDimensions(id string, dims []Ref) error {
	for i, d := range dims {
		if d == "" {
			return invalidGate(id, "dimension %d has no parameter", i)
		}
	}
	return nil
}

func dimensionNames(dims []Ref) string {
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

package flowgate_test

import (
	"testing"

	"github.com/ezachrisen/flowgate"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// population creates a population over raw parameters named names, one
// event per row.
func population(t *testing.T, names []string, rows ...[]float64) *flowgate.Population {
	t.Helper()
	raw, err := flowgate.NewRawParameters(names...)
	if err != nil {
		t.Fatalf("raw parameters: %v", err)
	}
	pop, err := raw.Population(rows)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	return pop
}

// xy returns a retriever and an event builder over raw parameters x and y.
func xy(t *testing.T) (*flowgate.Resolver, func(x, y float64) flowgate.Event) {
	t.Helper()
	raw, err := flowgate.NewRawParameters("x", "y")
	if err != nil {
		t.Fatal(err)
	}
	r, err := flowgate.NewResolver(raw)
	if err != nil {
		t.Fatal(err)
	}
	return r, func(x, y float64) flowgate.Event {
		return flowgate.NewEvent(0, x, y)
	}
}

// derived is a parameter computed as Factor times the sum of its inputs.
type derived struct {
	ref    flowgate.Ref
	inputs []flowgate.Ref
	factor float64
}

func (d derived) Ref() flowgate.Ref {
	return d.ref
}

func (d derived) Dependencies() []flowgate.Ref {
	return d.inputs
}

func (d derived) Scale(ev flowgate.Event, r flowgate.Retriever) (float64, error) {
	var sum float64
	for _, in := range d.inputs {
		v, err := r.Scale(in, ev)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return d.factor * sum, nil
}

// layer is a Collection of derived parameters.
type layer []derived

func (l layer) Refs() []flowgate.Ref {
	refs := make([]flowgate.Ref, len(l))
	for i, d := range l {
		refs[i] = d.ref
	}
	return refs
}

func (l layer) Get(ref flowgate.Ref) (flowgate.Provider, bool) {
	for _, d := range l {
		if d.ref == ref {
			return d, true
		}
	}
	return nil, false
}

func rectangle(t *testing.T, id string, dims []string, bounds ...flowgate.Interval) *flowgate.Rectangle {
	t.Helper()
	g, err := flowgate.NewRectangle(id, flowgate.Refs(dims...), bounds)
	if err != nil {
		t.Fatalf("rectangle %s: %v", id, err)
	}
	return g
}

func ids(pop *flowgate.Population) []int {
	out := make([]int, pop.Len())
	for i := range out {
		out[i] = pop.Event(i).ID()
	}
	return out
}

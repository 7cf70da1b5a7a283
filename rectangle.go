package flowgate

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Interval is a closed range [Min, Max]. An infinite end means the range is
// open on that side.
type Interval struct {
	Min, Max float64
}

// Between is the interval [lo, hi].
func Between(lo, hi float64) Interval {
	return Interval{Min: lo, Max: hi}
}

// AtLeast is the interval [lo, +Inf).
func AtLeast(lo float64) Interval {
	return Interval{Min: lo, Max: math.Inf(1)}
}

// AtMost is the interval (-Inf, hi].
func AtMost(hi float64) Interval {
	return Interval{Min: math.Inf(-1), Max: hi}
}

// Contains reports whether Min <= v <= Max.
func (i Interval) Contains(v float64) bool {
	return v >= i.Min && v <= i.Max
}

func (i Interval) String() string {
	lo, hi := "(-inf", "+inf)"
	if !math.IsInf(i.Min, -1) {
		lo = fmt.Sprintf("[%g", i.Min)
	}
	if !math.IsInf(i.Max, 1) {
		hi = fmt.Sprintf("%g]", i.Max)
	}
	return lo + ", " + hi
}

// Rectangle is an axis-aligned hyper-rectangle: an event is inside if every
// dimension's value is within that dimension's interval.
type Rectangle struct {
	id     string
	dims   []Ref
	bounds []Interval
}

// NewRectangle creates a rectangle gate with one interval per dimension.
// Every interval needs at least one finite end, and Min <= Max.
func NewRectangle(id string, dims []Ref, bounds []Interval) (*Rectangle, error) {
	g := &Rectangle{
		id:     id,
		dims:   slices.Clone(dims),
		bounds: slices.Clone(bounds),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Rectangle) ID() string {
	return g.id
}

func (g *Rectangle) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	if len(g.dims) == 0 {
		return invalidGate(g.id, "rectangle gates need at least one dimension")
	}
	if len(g.dims) != len(g.bounds) {
		return invalidGate(g.id, "%d dimensions but %d intervals", len(g.dims), len(g.bounds))
	}
	if err := checkDimensions(g.id, g.dims); err != nil {
		return err
	}
	for i, b := range g.bounds {
		switch {
		case math.IsNaN(b.Min) || math.IsNaN(b.Max):
			return invalidGate(g.id, "dimension %s has a NaN bound", g.dims[i])
		case math.IsInf(b.Min, -1) && math.IsInf(b.Max, 1):
			return invalidGate(g.id, "dimension %s has neither a minimum nor a maximum", g.dims[i])
		case b.Min > b.Max:
			return invalidGate(g.id, "dimension %s has minimum %g above maximum %g", g.dims[i], b.Min, b.Max)
		}
	}
	return nil
}

func (g *Rectangle) Dependencies() []Gate {
	return nil
}

// Dimensions returns the gate's parameters.
func (g *Rectangle) Dimensions() []Ref {
	return slices.Clone(g.dims)
}

// Bounds returns the intervals, one per dimension.
func (g *Rectangle) Bounds() []Interval {
	return slices.Clone(g.bounds)
}

func (g *Rectangle) Inside(ev Event, r Retriever) (bool, error) {
	for i, d := range g.dims {
		v, err := r.Scale(d, ev)
		if err != nil {
			return false, err
		}
		if !g.bounds[i].Contains(v) {
			return false, nil
		}
	}
	return true, nil
}

func (g *Rectangle) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("rectangle %s:", g.id))
	for i, d := range g.dims {
		s.WriteString(fmt.Sprintf(" %s in %s", d, g.bounds[i]))
		if i < len(g.dims)-1 {
			s.WriteString(",")
		}
	}
	return s.String()
}

package flowgate

import (
	"fmt"
	"math"
	"slices"
)

// Ellipsoid is the set of points whose distances to two foci sum to at most
// Distance. With identical foci it is a sphere of radius Distance/2.
type Ellipsoid struct {
	id       string
	dims     []Ref
	foci     [2][]float64
	distance float64
}

// NewEllipsoid creates an ellipsoid gate. There must be at least two
// dimensions, each focus needs one coordinate per dimension and the
// distance must not be negative.
func NewEllipsoid(id string, dims []Ref, foci [][]float64, distance float64) (*Ellipsoid, error) {
	if len(foci) != 2 {
		return nil, invalidGate(id, "ellipsoid gates need exactly 2 foci, got %d", len(foci))
	}
	g := &Ellipsoid{
		id:       id,
		dims:     slices.Clone(dims),
		foci:     [2][]float64{slices.Clone(foci[0]), slices.Clone(foci[1])},
		distance: distance,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Ellipsoid) ID() string {
	return g.id
}

func (g *Ellipsoid) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	if len(g.dims) < 2 {
		return invalidGate(g.id, "ellipsoid gates need at least 2 dimensions, got %d", len(g.dims))
	}
	if err := checkDimensions(g.id, g.dims); err != nil {
		return err
	}
	for i, f := range g.foci {
		if len(f) != len(g.dims) {
			return invalidGate(g.id, "focus %d has %d coordinates, want %d", i+1, len(f), len(g.dims))
		}
		for _, v := range f {
			if !finite(v) {
				return invalidGate(g.id, "focus %d is not finite", i+1)
			}
		}
	}
	if math.IsNaN(g.distance) || g.distance < 0 {
		return invalidGate(g.id, "distance %g is negative", g.distance)
	}
	return nil
}

func (g *Ellipsoid) Dependencies() []Gate {
	return nil
}

// Dimensions returns the gate's parameters.
func (g *Ellipsoid) Dimensions() []Ref {
	return slices.Clone(g.dims)
}

func (g *Ellipsoid) Inside(ev Event, r Retriever) (bool, error) {
	x, err := coordinates(ev, r, g.dims, make([]float64, 0, len(g.dims)))
	if err != nil {
		return false, err
	}
	return euclidean(x, g.foci[0])+euclidean(x, g.foci[1]) <= g.distance, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (g *Ellipsoid) String() string {
	return fmt.Sprintf("ellipsoid %s (%s): foci %v %v, distance %g",
		g.id, dimensionNames(g.dims), g.foci[0], g.foci[1], g.distance)
}

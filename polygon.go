package flowgate

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Point is a location in a two-dimensional gate.
type Point struct {
	X, Y float64
}

// Polygon is a closed polygon over two parameters. Points on an edge or a
// vertex are inside; other points are classified by the even-odd rule, so
// self-intersecting polygons are allowed.
type Polygon struct {
	id       string
	dims     []Ref
	vertices []Point
}

// NewPolygon creates a polygon gate. dims must name exactly two parameters
// and there must be at least three vertices.
func NewPolygon(id string, dims []Ref, vertices []Point) (*Polygon, error) {
	g := &Polygon{
		id:       id,
		dims:     slices.Clone(dims),
		vertices: slices.Clone(vertices),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Polygon) ID() string {
	return g.id
}

func (g *Polygon) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	if len(g.dims) != 2 {
		return invalidGate(g.id, "polygon gates need exactly 2 dimensions, got %d", len(g.dims))
	}
	if err := checkDimensions(g.id, g.dims); err != nil {
		return err
	}
	if len(g.vertices) < 3 {
		return invalidGate(g.id, "polygon gates need at least 3 vertices, got %d", len(g.vertices))
	}
	for i, v := range g.vertices {
		if !finite(v.X) || !finite(v.Y) {
			return invalidGate(g.id, "vertex %d is not finite", i)
		}
	}
	return nil
}

func (g *Polygon) Dependencies() []Gate {
	return nil
}

// Dimensions returns the gate's parameters.
func (g *Polygon) Dimensions() []Ref {
	return slices.Clone(g.dims)
}

// Vertices returns the polygon's vertices in order.
func (g *Polygon) Vertices() []Point {
	return slices.Clone(g.vertices)
}

func (g *Polygon) Inside(ev Event, r Retriever) (bool, error) {
	x, err := r.Scale(g.dims[0], ev)
	if err != nil {
		return false, err
	}
	y, err := r.Scale(g.dims[1], ev)
	if err != nil {
		return false, err
	}
	return g.contains(Point{X: x, Y: y}), nil
}

func (g *Polygon) contains(p Point) bool {
	n := len(g.vertices)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := g.vertices[j], g.vertices[i]
		if onSegment(p, a, b) {
			return true
		}
		if (b.Y > p.Y) != (a.Y > p.Y) &&
			p.X < (a.X-b.X)*(p.Y-b.Y)/(a.Y-b.Y)+b.X {
			inside = !inside
		}
	}
	return inside
}

// segmentTolerance is the relative tolerance for a point lying on a segment.
const segmentTolerance = 1e-12

// onSegment reports whether p lies on the segment ab.
func onSegment(p, a, b Point) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	cross := abx*apy - aby*apx
	scale := math.Hypot(abx, aby) * math.Hypot(apx, apy)
	if math.Abs(cross) > segmentTolerance*math.Max(scale, 1) {
		return false
	}
	tol := segmentTolerance * math.Max(1, math.Max(math.Abs(a.X)+math.Abs(b.X), math.Abs(a.Y)+math.Abs(b.Y)))
	return p.X >= math.Min(a.X, b.X)-tol && p.X <= math.Max(a.X, b.X)+tol &&
		p.Y >= math.Min(a.Y, b.Y)-tol && p.Y <= math.Max(a.Y, b.Y)+tol
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (g *Polygon) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("polygon %s (%s):", g.id, dimensionNames(g.dims)))
	for _, v := range g.vertices {
		s.WriteString(fmt.Sprintf(" (%g, %g)", v.X, v.Y))
	}
	return s.String()
}

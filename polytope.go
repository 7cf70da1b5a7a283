package flowgate

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Polytope is the convex hull of a set of points. Points on the hull's
// boundary are inside.
//
// One-dimensional polytopes are closed intervals, two-dimensional ones are
// tested against their convex hull edges, and in three or more dimensions
// hull membership is decided by linear programming: x is inside iff it is a
// convex combination of the points.
type Polytope struct {
	id     string
	dims   []Ref
	points [][]float64

	// bounding box
	lo, hi []float64

	// two dimensions: hull vertices in counter-clockwise order
	hull []Point

	// three or more dimensions: [points - lo; 1] as columns
	constraints *mat.Dense
}

// rankTolerance is the relative singular value below which a polytope's
// points are considered affinely dependent.
const rankTolerance = 1e-10

// lpTolerance is the simplex tolerance for hull membership.
const lpTolerance = 1e-10

// NewPolytope creates a polytope gate from its points. There must be at
// least one more point than dimensions. In three or more dimensions the
// points must not all lie in a common hyperplane: such a set is rejected
// rather than accepted as a flat gate matching only events on it. Flat
// point sets in two dimensions are accepted.
func NewPolytope(id string, dims []Ref, points [][]float64) (*Polytope, error) {
	g := &Polytope{
		id:     id,
		dims:   slices.Clone(dims),
		points: make([][]float64, len(points)),
	}
	for i, p := range points {
		g.points[i] = slices.Clone(p)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.prepare()
	return g, nil
}

func (g *Polytope) ID() string {
	return g.id
}

func (g *Polytope) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	n := len(g.dims)
	if n == 0 {
		return invalidGate(g.id, "polytope gates need at least one dimension")
	}
	if err := checkDimensions(g.id, g.dims); err != nil {
		return err
	}
	if len(g.points) < n+1 {
		return invalidGate(g.id, "a %d-dimensional polytope needs at least %d points, got %d", n, n+1, len(g.points))
	}
	for i, p := range g.points {
		if len(p) != n {
			return invalidGate(g.id, "point %d has %d coordinates, want %d", i, len(p), n)
		}
		for _, v := range p {
			if !finite(v) {
				return invalidGate(g.id, "point %d is not finite", i)
			}
		}
	}
	if n >= 3 && affineRank(g.points) < n+1 {
		return invalidGate(g.id, "the points of a %d-dimensional polytope must not lie in a common hyperplane", n)
	}
	return nil
}

// affineRank is the rank of the matrix with columns [p; 1].
func affineRank(points [][]float64) int {
	n := len(points[0])
	a := mat.NewDense(n+1, len(points), nil)
	for j, p := range points {
		for i, v := range p {
			a.Set(i, j, v)
		}
		a.Set(n, j, 1)
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0
	}
	return svd.Rank(rankTolerance)
}

func (g *Polytope) prepare() {
	n := len(g.dims)
	g.lo = slices.Clone(g.points[0])
	g.hi = slices.Clone(g.points[0])
	for _, p := range g.points[1:] {
		for i, v := range p {
			g.lo[i] = math.Min(g.lo[i], v)
			g.hi[i] = math.Max(g.hi[i], v)
		}
	}

	switch {
	case n == 2:
		pts := make([]Point, len(g.points))
		for i, p := range g.points {
			pts[i] = Point{X: p[0], Y: p[1]}
		}
		g.hull = convexHull(pts)
	case n >= 3:
		// Shifting by the bounding box minimum keeps the right-hand side
		// of the constraints non-negative for any point in the box.
		g.constraints = mat.NewDense(n+1, len(g.points), nil)
		for j, p := range g.points {
			for i, v := range p {
				g.constraints.Set(i, j, v-g.lo[i])
			}
			g.constraints.Set(n, j, 1)
		}
	}
}

func (g *Polytope) Dependencies() []Gate {
	return nil
}

// Dimensions returns the gate's parameters.
func (g *Polytope) Dimensions() []Ref {
	return slices.Clone(g.dims)
}

func (g *Polytope) Inside(ev Event, r Retriever) (bool, error) {
	x, err := coordinates(ev, r, g.dims, make([]float64, 0, len(g.dims)))
	if err != nil {
		return false, err
	}
	return g.contains(x)
}

// InsidePopulation classifies every event, rejecting events outside the
// bounding box before the hull test.
func (g *Polytope) InsidePopulation(pop *Population, r Retriever) ([]bool, error) {
	out := make([]bool, pop.Len())
	x := make([]float64, 0, len(g.dims))
	for i := 0; i < pop.Len(); i++ {
		ev := pop.Event(i)
		var err error
		x, err = coordinates(ev, r, g.dims, x)
		if err != nil {
			return nil, &EventError{EventID: ev.ID(), Err: err}
		}
		out[i], err = g.contains(x)
		if err != nil {
			return nil, &EventError{EventID: ev.ID(), Err: err}
		}
	}
	return out, nil
}

func (g *Polytope) contains(x []float64) (bool, error) {
	if !g.inBox(x) {
		return false, nil
	}
	switch len(g.dims) {
	case 1:
		return true, nil
	case 2:
		return hullContains(g.hull, Point{X: x[0], Y: x[1]}), nil
	}

	b := make([]float64, len(x)+1)
	for i, v := range x {
		b[i] = v - g.lo[i]
	}
	b[len(x)] = 1
	c := make([]float64, len(g.points))

	_, _, err := lp.Simplex(c, g.constraints, b, lpTolerance, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, lp.ErrInfeasible):
		return false, nil
	default:
		return false, fmt.Errorf("polytope %s: hull membership: %w", g.id, err)
	}
}

func (g *Polytope) inBox(x []float64) bool {
	for i, v := range x {
		if v < g.lo[i] || v > g.hi[i] {
			return false
		}
	}
	return true
}

// convexHull returns the hull vertices in counter-clockwise order, without
// collinear points (monotone chain).
func convexHull(pts []Point) []Point {
	pts = slices.Clone(pts)
	slices.SortFunc(pts, func(a, b Point) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
	pts = slices.Compact(pts)
	if len(pts) <= 2 {
		return pts
	}

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// cross is the z component of (a - o) × (b - o).
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func hullContains(hull []Point, p Point) bool {
	switch len(hull) {
	case 1:
		return p == hull[0]
	case 2:
		return onSegment(p, hull[0], hull[1])
	}
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		c := cross(a, b, p)
		if c >= 0 {
			continue
		}
		scale := math.Hypot(b.X-a.X, b.Y-a.Y) * math.Hypot(p.X-a.X, p.Y-a.Y)
		if -c > segmentTolerance*math.Max(scale, 1) {
			return false
		}
	}
	return true
}

func (g *Polytope) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("polytope %s (%s):", g.id, dimensionNames(g.dims)))
	for _, p := range g.points {
		s.WriteString(fmt.Sprintf(" %v", p))
	}
	return s.String()
}

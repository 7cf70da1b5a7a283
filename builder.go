package flowgate

import (
	"fmt"
	"math"
)

// GateKind identifies a gate type in a GateDescription.
type GateKind string

const (
	KindRectangle    GateKind = "rectangle"
	KindPolygon      GateKind = "polygon"
	KindPolytope     GateKind = "polytope"
	KindEllipsoid    GateKind = "ellipsoid"
	KindDecisionTree GateKind = "decision_tree"
	KindBoolean      GateKind = "boolean"
)

// GateDescription is a decoded gate definition. Which fields are read
// depends on Kind:
//
//	rectangle      dimensions, min, max (a missing or null bound is open)
//	polygon        dimensions, points (x, y pairs)
//	polytope       dimensions, points
//	ellipsoid      dimensions, foci, distance
//	decision_tree  tree
//	boolean        operator, operands (gate IDs)
type GateDescription struct {
	ID         string   `yaml:"id"`
	Kind       GateKind `yaml:"kind"`
	Dimensions []string `yaml:"dimensions,omitempty"`

	Min []*float64 `yaml:"min,omitempty"`
	Max []*float64 `yaml:"max,omitempty"`

	Points [][]float64 `yaml:"points,omitempty"`

	Foci     [][]float64 `yaml:"foci,omitempty"`
	Distance float64     `yaml:"distance,omitempty"`

	Tree *TreeDescription `yaml:"tree,omitempty"`

	Operator string   `yaml:"operator,omitempty"`
	Operands []string `yaml:"operands,omitempty"`
}

// TreeDescription is a decoded decision tree node.
type TreeDescription struct {
	Parameter string            `yaml:"parameter"`
	Threshold float64           `yaml:"threshold"`
	Below     BranchDescription `yaml:"below"`
	AtOrAbove BranchDescription `yaml:"at_or_above"`
}

// BranchDescription is either a nested node or a leaf verdict.
type BranchDescription struct {
	Node   *TreeDescription `yaml:"node,omitempty"`
	Inside bool             `yaml:"inside,omitempty"`
}

// Builder assembles a GateSet from descriptions that may refer to each
// other in any order.
//
// Build works in three passes: every gate is created (boolean gates
// without operands), then boolean operands are looked up by ID, then the
// whole set is validated.
type Builder struct {
	descs []GateDescription
}

// NewBuilder creates a builder holding descriptions.
func NewBuilder(descs ...GateDescription) *Builder {
	return &Builder{descs: descs}
}

// Add queues more descriptions.
func (b *Builder) Add(descs ...GateDescription) *Builder {
	b.descs = append(b.descs, descs...)
	return b
}

// Build creates and validates the gates.
func (b *Builder) Build() (*GateSet, error) {
	gs, err := NewGateSet()
	if err != nil {
		return nil, err
	}

	var booleans []*Boolean
	operands := map[string][]string{}

	for _, d := range b.descs {
		g, err := newGate(d)
		if err != nil {
			return nil, err
		}
		if err := gs.Add(g); err != nil {
			return nil, err
		}
		if bg, ok := g.(*Boolean); ok {
			booleans = append(booleans, bg)
			operands[bg.ID()] = d.Operands
		}
	}

	for _, bg := range booleans {
		ids := operands[bg.ID()]
		ops := make([]Gate, len(ids))
		for i, id := range ids {
			o, ok := gs.Get(id)
			if !ok {
				return nil, &InvalidGateError{GateID: bg.ID(), Reason: fmt.Sprintf("operand %s", id), Err: ErrGateNotFound}
			}
			ops[i] = o
		}
		bg.setOperands(ops)
	}

	if err := gs.Validate(); err != nil {
		return nil, err
	}
	return gs, nil
}

// BuildGateSet is NewBuilder(descs...).Build().
func BuildGateSet(descs ...GateDescription) (*GateSet, error) {
	return NewBuilder(descs...).Build()
}

func newGate(d GateDescription) (Gate, error) {
	dims := Refs(d.Dimensions...)

	switch d.Kind {
	case KindRectangle:
		bounds := make([]Interval, len(dims))
		for i := range bounds {
			bounds[i] = Interval{Min: math.Inf(-1), Max: math.Inf(1)}
			if i < len(d.Min) && d.Min[i] != nil {
				bounds[i].Min = *d.Min[i]
			}
			if i < len(d.Max) && d.Max[i] != nil {
				bounds[i].Max = *d.Max[i]
			}
		}
		if len(d.Min) > len(dims) || len(d.Max) > len(dims) {
			return nil, invalidGate(d.ID, "more bounds than dimensions")
		}
		return asGate(NewRectangle(d.ID, dims, bounds))

	case KindPolygon:
		vertices := make([]Point, len(d.Points))
		for i, p := range d.Points {
			if len(p) != 2 {
				return nil, invalidGate(d.ID, "vertex %d has %d coordinates, want 2", i, len(p))
			}
			vertices[i] = Point{X: p[0], Y: p[1]}
		}
		return asGate(NewPolygon(d.ID, dims, vertices))

	case KindPolytope:
		return asGate(NewPolytope(d.ID, dims, d.Points))

	case KindEllipsoid:
		return asGate(NewEllipsoid(d.ID, dims, d.Foci, d.Distance))

	case KindDecisionTree:
		if d.Tree == nil {
			return nil, invalidGate(d.ID, "decision tree has no root node")
		}
		return asGate(NewDecisionTree(d.ID, d.Tree.node()))

	case KindBoolean:
		op, err := ParseOperator(d.Operator)
		if err != nil {
			return nil, &InvalidGateError{GateID: d.ID, Reason: "operator", Err: err}
		}
		if err := checkID(d.ID); err != nil {
			return nil, err
		}
		return NewBoolean(d.ID, op), nil

	default:
		return nil, invalidGate(d.ID, "unknown gate kind %q", d.Kind)
	}
}

// asGate keeps a nil concrete gate out of the Gate interface.
func asGate[G Gate](g G, err error) (Gate, error) {
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (t *TreeDescription) node() *TreeNode {
	return &TreeNode{
		Parameter: Ref(t.Parameter),
		Threshold: t.Threshold,
		Below:     t.Below.branch(),
		AtOrAbove: t.AtOrAbove.branch(),
	}
}

func (b BranchDescription) branch() Branch {
	if b.Node != nil {
		return Node(b.Node.node())
	}
	return Leaf(b.Inside)
}

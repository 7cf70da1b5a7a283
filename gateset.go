package flowgate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// GateSet holds gates by ID. Gates are never replaced: adding a gate whose
// ID is present fails.
type GateSet struct {
	mu    sync.RWMutex
	gates map[string]Gate
}

// NewGateSet creates a gate set holding gates.
func NewGateSet(gates ...Gate) (*GateSet, error) {
	s := &GateSet{
		gates: make(map[string]Gate, len(gates)),
	}
	for _, g := range gates {
		if err := s.Add(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add adds g. It fails if g is nil or a gate with the same ID exists.
func (s *GateSet) Add(g Gate) error {
	if g == nil {
		return errors.New("nil gate")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gates == nil {
		s.gates = map[string]Gate{}
	}
	if _, ok := s.gates[g.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGate, g.ID())
	}
	s.gates[g.ID()] = g
	return nil
}

// Get returns the gate with the ID.
func (s *GateSet) Get(id string) (Gate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gates[id]
	return g, ok
}

// RemoveByID removes the gate with the ID and reports whether it was
// present. Boolean gates referring to it keep their reference; Validate
// reports them.
func (s *GateSet) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gates[id]; !ok {
		return false
	}
	delete(s.gates, id)
	return true
}

// ContainsID reports whether a gate with the ID is present.
func (s *GateSet) ContainsID(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Len is the number of gates.
func (s *GateSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gates)
}

// IDs returns the gate IDs in sorted order.
func (s *GateSet) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.gates))
	for id := range s.gates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Gates returns the gates sorted by ID.
func (s *GateSet) Gates() []Gate {
	ids := s.IDs()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Gate, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.gates[id])
	}
	return out
}

// Validate validates every gate, in ID order, and checks that every gate
// another gate depends on is the gate registered under that ID. The first
// problem is returned.
func (s *GateSet) Validate() error {
	for _, g := range s.Gates() {
		for _, d := range g.Dependencies() {
			if d == nil {
				continue
			}
			member, ok := s.Get(d.ID())
			if !ok {
				return &InvalidGateError{GateID: g.ID(), Reason: fmt.Sprintf("operand %s", d.ID()), Err: ErrGateNotFound}
			}
			if member != d {
				return invalidGate(g.ID(), "operand %s is not the gate registered under that id", d.ID())
			}
		}
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Kind names the gate's type.
func Kind(g Gate) string {
	switch g.(type) {
	case *Rectangle:
		return "rectangle"
	case *Polygon:
		return "polygon"
	case *Polytope:
		return "polytope"
	case *Ellipsoid:
		return "ellipsoid"
	case *DecisionTree:
		return "decision tree"
	case *Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("%T", g)
	}
}

// String lists the gates in a table.
func (s *GateSet) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nGATES\n")
	tw.AppendHeader(table.Row{"\nGate", "\nKind", "Depends\nOn", "\nDefinition"})

	maxWidthOfDefinitionColumn := 60
	for _, g := range s.Gates() {
		deps := make([]string, 0, len(g.Dependencies()))
		for _, d := range g.Dependencies() {
			if d != nil {
				deps = append(deps, d.ID())
			}
		}
		tw.AppendRow(table.Row{g.ID(), Kind(g), strings.Join(deps, ", "), fmt.Sprint(g)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxWidthOfDefinitionColumn},
	})
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// Tree renders the dependency hierarchy: each gate that no other gate
// depends on is a root, with the gates it depends on below it. Recursion
// stops at 20 levels.
//
//	all
//	├── lymphocytes
//	└── not-debris
//	    └── debris
//	singlets
func (s *GateSet) Tree() string {
	gates := s.Gates()
	used := map[string]bool{}
	for _, g := range gates {
		for _, d := range g.Dependencies() {
			if d != nil {
				used[d.ID()] = true
			}
		}
	}

	var sb strings.Builder
	for _, g := range gates {
		if used[g.ID()] {
			continue
		}
		sb.WriteString(g.ID())
		sb.WriteString("\n")
		buildTree(&sb, g, "", 0)
	}
	return sb.String()
}

func buildTree(sb *strings.Builder, g Gate, prefix string, depth int) {
	if depth >= 20 {
		return
	}
	deps := slices.DeleteFunc(g.Dependencies(), func(d Gate) bool { return d == nil })
	slices.SortFunc(deps, func(a, b Gate) int {
		return strings.Compare(a.ID(), b.ID())
	})
	for i, d := range deps {
		connector, childPrefix := "├── ", "│   "
		if i == len(deps)-1 {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(d.ID())
		sb.WriteString("\n")
		buildTree(sb, d, prefix+childPrefix, depth+1)
	}
}

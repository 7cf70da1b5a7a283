package flowgate

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Operator combines the verdicts of a boolean gate's operands.
type Operator int

const (
	And Operator = iota
	Or
	Not
)

func (o Operator) String() string {
	switch o {
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	default:
		return fmt.Sprintf("operator(%d)", int(o))
	}
}

// ParseOperator parses "and", "or" or "not", ignoring case.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and":
		return And, nil
	case "or":
		return Or, nil
	case "not":
		return Not, nil
	}
	return 0, fmt.Errorf("unknown boolean operator %q", s)
}

// Boolean combines other gates: an event is inside an AND gate if it is
// inside all operands, inside an OR gate if it is inside any operand, and
// inside a NOT gate if it is outside its single operand.
//
// A Boolean gate must be validated after all its operands exist, and before
// it is evaluated; Inside fails until Validate succeeds.
type Boolean struct {
	id        string
	op        Operator
	operands  []Gate
	validated atomic.Bool
}

// NewBoolean creates an unvalidated boolean gate.
func NewBoolean(id string, op Operator, operands ...Gate) *Boolean {
	return &Boolean{
		id:       id,
		op:       op,
		operands: operands,
	}
}

func (g *Boolean) ID() string {
	return g.id
}

// Operator returns the gate's operator.
func (g *Boolean) Operator() Operator {
	return g.op
}

// setOperands replaces the operands; the gate must be validated again.
func (g *Boolean) setOperands(operands []Gate) {
	g.operands = operands
	g.validated.Store(false)
}

func (g *Boolean) Dependencies() []Gate {
	out := make([]Gate, len(g.operands))
	copy(out, g.operands)
	return out
}

// Validate checks the operand count and that the gate does not depend on
// itself. A cycle is reported as an *InvalidGateError wrapping a
// *CircularGateError.
func (g *Boolean) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	switch g.op {
	case And, Or:
		if len(g.operands) < 1 {
			return invalidGate(g.id, "%s gates need at least one operand", g.op)
		}
	case Not:
		if len(g.operands) != 1 {
			return invalidGate(g.id, "not gates need exactly one operand, got %d", len(g.operands))
		}
	default:
		return invalidGate(g.id, "unknown operator %s", g.op)
	}
	for i, o := range g.operands {
		if o == nil {
			return invalidGate(g.id, "operand %d is missing", i)
		}
	}

	if cycle := dependencyCycle(g); cycle != nil {
		return &InvalidGateError{
			GateID: g.id,
			Reason: "gate dependency cycle",
			Err:    &CircularGateError{Cycle: cycle},
		}
	}

	g.validated.Store(true)
	return nil
}

// dependencyCycle walks the gates reachable from start depth first and
// returns the first cycle found, as gate IDs beginning and ending with the
// repeated gate.
func dependencyCycle(start Gate) []string {
	type frame struct {
		gate Gate
		deps []Gate
		next int
	}

	onPath := map[string]int{start.ID(): 0}
	done := map[string]bool{}
	stack := []frame{{gate: start, deps: start.Dependencies()}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.deps) {
			delete(onPath, top.gate.ID())
			done[top.gate.ID()] = true
			stack = stack[:len(stack)-1]
			continue
		}
		dep := top.deps[top.next]
		top.next++
		if dep == nil || done[dep.ID()] {
			continue
		}

		if i, ok := onPath[dep.ID()]; ok {
			cycle := make([]string, 0, len(stack)-i+1)
			for _, f := range stack[i:] {
				cycle = append(cycle, f.gate.ID())
			}
			return append(cycle, dep.ID())
		}

		onPath[dep.ID()] = len(stack)
		stack = append(stack, frame{gate: dep, deps: dep.Dependencies()})
	}
	return nil
}

func (g *Boolean) Inside(ev Event, r Retriever) (bool, error) {
	if !g.validated.Load() {
		return false, invalidGate(g.id, "gate has not been validated")
	}

	switch g.op {
	case Not:
		in, err := g.operands[0].Inside(ev, r)
		if err != nil {
			return false, err
		}
		return !in, nil
	case And:
		for _, o := range g.operands {
			in, err := o.Inside(ev, r)
			if err != nil || !in {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, o := range g.operands {
			in, err := o.Inside(ev, r)
			if err != nil || in {
				return in && err == nil, err
			}
		}
		return false, nil
	}
	return false, invalidGate(g.id, "unknown operator %s", g.op)
}

func (g *Boolean) String() string {
	ids := make([]string, len(g.operands))
	for i, o := range g.operands {
		if o == nil {
			ids[i] = "?"
			continue
		}
		ids[i] = o.ID()
	}
	return fmt.Sprintf("boolean %s: %s(%s)", g.id, g.op, strings.Join(ids, ", "))
}

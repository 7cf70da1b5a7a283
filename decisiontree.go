package flowgate

import (
	"fmt"
	"math"
	"strings"
)

// TreeNode compares one parameter against a threshold. Values at or above
// the threshold follow AtOrAbove, others follow Below.
type TreeNode struct {
	Parameter Ref
	Threshold float64
	Below     Branch
	AtOrAbove Branch
}

// Branch is either a further node or, when Node is nil, a leaf with a
// verdict.
type Branch struct {
	Node   *TreeNode
	Inside bool
}

// Leaf is a branch ending in a verdict.
func Leaf(inside bool) Branch {
	return Branch{Inside: inside}
}

// Node is a branch continuing to n.
func Node(n *TreeNode) Branch {
	return Branch{Node: n}
}

// DecisionTree classifies an event by walking a binary tree of threshold
// comparisons down to a leaf.
type DecisionTree struct {
	id   string
	root *TreeNode
}

// NewDecisionTree creates a decision tree gate.
func NewDecisionTree(id string, root *TreeNode) (*DecisionTree, error) {
	g := &DecisionTree{id: id, root: root}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *DecisionTree) ID() string {
	return g.id
}

// Validate checks that the tree is finite: no node appears twice.
func (g *DecisionTree) Validate() error {
	if err := checkID(g.id); err != nil {
		return err
	}
	if g.root == nil {
		return invalidGate(g.id, "decision tree has no root node")
	}
	seen := map[*TreeNode]bool{}
	stack := []*TreeNode{g.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			return invalidGate(g.id, "node on %s is reachable twice", n.Parameter)
		}
		seen[n] = true
		if n.Parameter == "" {
			return invalidGate(g.id, "node without a parameter")
		}
		if math.IsNaN(n.Threshold) {
			return invalidGate(g.id, "node on %s has a NaN threshold", n.Parameter)
		}
		for _, b := range []Branch{n.Below, n.AtOrAbove} {
			if b.Node != nil {
				stack = append(stack, b.Node)
			}
		}
	}
	return nil
}

func (g *DecisionTree) Dependencies() []Gate {
	return nil
}

// Root returns the root node.
func (g *DecisionTree) Root() *TreeNode {
	return g.root
}

func (g *DecisionTree) Inside(ev Event, r Retriever) (bool, error) {
	n := g.root
	for {
		v, err := r.Scale(n.Parameter, ev)
		if err != nil {
			return false, err
		}
		b := n.Below
		if v >= n.Threshold {
			b = n.AtOrAbove
		}
		if b.Node == nil {
			return b.Inside, nil
		}
		n = b.Node
	}
}

// String renders the tree, one node per line:
//
//	decision tree T
//	FSC-A >= 100
//	├── < : outside
//	└── >=: SSC-A >= 50
//	    ├── < : inside
//	    └── >=: outside
func (g *DecisionTree) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("decision tree %s\n", g.id))
	if g.root == nil {
		return sb.String()
	}
	sb.WriteString(nodeLabel(g.root))
	sb.WriteString("\n")
	writeBranches(&sb, g.root, "")
	return sb.String()
}

func writeBranches(sb *strings.Builder, n *TreeNode, prefix string) {
	branches := []struct {
		label string
		b     Branch
	}{
		{"< : ", n.Below},
		{">=: ", n.AtOrAbove},
	}
	for i, br := range branches {
		connector, childPrefix := "├── ", "│   "
		if i == len(branches)-1 {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(br.label)
		if br.b.Node == nil {
			sb.WriteString(verdict(br.b.Inside))
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(nodeLabel(br.b.Node))
		sb.WriteString("\n")
		writeBranches(sb, br.b.Node, prefix+childPrefix)
	}
}

func nodeLabel(n *TreeNode) string {
	return fmt.Sprintf("%s >= %g", n.Parameter, n.Threshold)
}

func verdict(inside bool) string {
	if inside {
		return "inside"
	}
	return "outside"
}

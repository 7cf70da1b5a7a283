package transform

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ezachrisen/flowgate"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Collection holds transformations keyed by output parameter, in insertion
// order. It is a flowgate.Collection. Collection is safe for concurrent use.
type Collection struct {
	mu    sync.RWMutex
	order []flowgate.Ref
	byRef map[flowgate.Ref]Transformation
}

// NewCollection creates a collection holding ts. Two transformations with
// the same output name fail with a *flowgate.DuplicateParameterError.
func NewCollection(ts ...Transformation) (*Collection, error) {
	c := &Collection{
		byRef: make(map[flowgate.Ref]Transformation, len(ts)),
	}
	var dups []flowgate.Ref
	for _, t := range ts {
		if !c.Add(t) && t != nil {
			dups = append(dups, t.Ref())
		}
	}
	if len(dups) > 0 {
		return nil, &flowgate.DuplicateParameterError{Refs: dups}
	}
	return c, nil
}

// Add adds t. It returns false, leaving the collection unchanged, if t is nil
// or a transformation with the same output name is already present.
func (c *Collection) Add(t Transformation) bool {
	if t == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byRef == nil {
		c.byRef = map[flowgate.Ref]Transformation{}
	}
	if _, ok := c.byRef[t.Ref()]; ok {
		return false
	}
	c.byRef[t.Ref()] = t
	c.order = append(c.order, t.Ref())
	return true
}

// Get returns the transformation producing ref.
func (c *Collection) Get(ref flowgate.Ref) (flowgate.Provider, bool) {
	t, ok := c.Transformation(ref)
	if !ok {
		return nil, false
	}
	return t, true
}

// Transformation returns the transformation producing ref.
func (c *Collection) Transformation(ref flowgate.Ref) (Transformation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byRef[ref]
	return t, ok
}

// Refs returns the output parameters in insertion order.
func (c *Collection) Refs() []flowgate.Ref {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Remove deletes the transformation producing ref and reports whether it
// was present.
func (c *Collection) Remove(ref flowgate.Ref) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byRef[ref]; !ok {
		return false
	}
	delete(c.byRef, ref)
	c.order = slices.DeleteFunc(c.order, func(r flowgate.Ref) bool { return r == ref })
	return true
}

// Contains reports whether a transformation produces ref.
func (c *Collection) Contains(ref flowgate.Ref) bool {
	_, ok := c.Transformation(ref)
	return ok
}

// Len is the number of transformations.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// String lists the transformations in a table.
func (c *Collection) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tw := table.NewWriter()
	tw.SetTitle("Transformations")
	tw.AppendHeader(table.Row{"Parameter", "Depends On", "Definition"})
	for _, r := range c.order {
		t := c.byRef[r]
		deps := make([]string, 0, len(t.Dependencies()))
		for _, d := range t.Dependencies() {
			deps = append(deps, string(d))
		}
		tw.AppendRow(table.Row{r, strings.Join(deps, ", "), t})
	}
	return fmt.Sprint(tw.Render())
}

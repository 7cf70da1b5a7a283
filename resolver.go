package flowgate

import (
	"slices"
)

// Resolver computes parameter values for events from an ordered list of
// collections (raw parameters, compensation, transformations).
//
// On construction the resolver flattens all providers into a table with a
// name index, rejects names produced by more than one provider and rejects
// circular dependencies. A Resolver is read-only after construction and safe
// for concurrent use.
type Resolver struct {
	layers    []Collection
	providers []Provider
	index     map[Ref]int
}

// NewResolver builds a resolver over the collections.
//
// Errors:
//   - *DuplicateParameterError if a name is produced by more than one provider
//   - *CircularParameterError if providers depend on each other in a cycle
//
// References to parameters that no collection produces are not an error
// here; they fail when resolved.
func NewResolver(layers ...Collection) (*Resolver, error) {
	return Extend(nil, layers...)
}

// Extend builds a resolver over base's collections followed by layers.
// base may be nil.
func Extend(base *Resolver, layers ...Collection) (*Resolver, error) {
	r := &Resolver{
		index: map[Ref]int{},
	}
	if base != nil {
		r.layers = append(r.layers, base.layers...)
	}
	for _, l := range layers {
		if l != nil {
			r.layers = append(r.layers, l)
		}
	}

	var dups []Ref
	for _, l := range r.layers {
		for _, ref := range l.Refs() {
			if _, ok := r.index[ref]; ok {
				if !slices.Contains(dups, ref) {
					dups = append(dups, ref)
				}
				continue
			}
			p, ok := l.Get(ref)
			if !ok || p == nil {
				continue
			}
			r.index[ref] = len(r.providers)
			r.providers = append(r.providers, p)
		}
	}
	if len(dups) > 0 {
		slices.Sort(dups)
		return nil, &DuplicateParameterError{Refs: dups}
	}

	if err := r.checkCycles(); err != nil {
		return nil, err
	}
	return r, nil
}

// checkCycles walks the provider graph depth first without recursion.
func (r *Resolver) checkCycles() error {
	const (
		unvisited = iota
		onPath
		done
	)

	type frame struct {
		id   int
		deps []Ref
		next int
	}

	state := make([]uint8, len(r.providers))
	for start := range r.providers {
		if state[start] != unvisited {
			continue
		}
		state[start] = onPath
		stack := []frame{{id: start, deps: r.providers[start].Dependencies()}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.deps) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			dep := top.deps[top.next]
			top.next++

			id, ok := r.index[dep]
			if !ok {
				continue
			}
			switch state[id] {
			case onPath:
				var cycle []Ref
				for i := range stack {
					if stack[i].id == id {
						for _, f := range stack[i:] {
							cycle = append(cycle, r.providers[f.id].Ref())
						}
						break
					}
				}
				return &CircularParameterError{Cycle: append(cycle, dep)}
			case unvisited:
				state[id] = onPath
				stack = append(stack, frame{id: id, deps: r.providers[id].Dependencies()})
			}
		}
	}
	return nil
}

// Scale resolves ref for ev.
func (r *Resolver) Scale(ref Ref, ev Event) (float64, error) {
	res := resolution{r: r}
	return res.Scale(ref, ev)
}

// Provider returns the provider for ref.
func (r *Resolver) Provider(ref Ref) (Provider, error) {
	i, ok := r.index[ref]
	if !ok {
		return nil, &ParameterNotFoundError{Ref: ref}
	}
	return r.providers[i], nil
}

// Contains reports whether some provider produces ref.
func (r *Resolver) Contains(ref Ref) bool {
	_, ok := r.index[ref]
	return ok
}

// Refs returns every parameter the resolver can produce, sorted by name.
func (r *Resolver) Refs() []Ref {
	refs := make([]Ref, len(r.providers))
	for i, p := range r.providers {
		refs[i] = p.Ref()
	}
	slices.Sort(refs)
	return refs
}

// Layers returns the collections in resolution order.
func (r *Resolver) Layers() []Collection {
	return slices.Clone(r.layers)
}

// Len is the number of providers.
func (r *Resolver) Len() int {
	return len(r.providers)
}

// resolution is one top-level Scale call. It carries the chain of
// parameters currently being resolved so that re-entry is reported as a
// cycle instead of recursing forever.
type resolution struct {
	r    *Resolver
	path []Ref
}

func (s *resolution) Scale(ref Ref, ev Event) (float64, error) {
	p, err := s.r.Provider(ref)
	if err != nil {
		return 0, err
	}
	if raw, ok := p.(rawParameter); ok {
		return raw.value(ev)
	}

	for i, seen := range s.path {
		if seen == ref {
			cycle := append(slices.Clone(s.path[i:]), ref)
			return 0, &CircularParameterError{Cycle: cycle}
		}
	}

	s.path = append(s.path, ref)
	v, err := p.Scale(ev, s)
	s.path = s.path[:len(s.path)-1]
	return v, err
}

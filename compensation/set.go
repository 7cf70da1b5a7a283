package compensation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Set holds compensation matrices keyed by ID, for data sets acquired with
// different instrument settings. Set is safe for concurrent use.
type Set struct {
	mu   sync.RWMutex
	byID map[string]*Matrix
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byID: map[string]*Matrix{}}
}

// NewSetFromDescriptions builds a matrix for every description, keyed by
// ID.
func NewSetFromDescriptions(ds map[string]Description) (*Set, error) {
	s := NewSet()
	for _, id := range slices.Sorted(maps.Keys(ds)) {
		m, err := ds[id].Matrix()
		if err != nil {
			return nil, fmt.Errorf("matrix %s: %w", id, err)
		}
		if err := s.Add(id, m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add stores m under id. An empty ID, a nil matrix or an ID already in the
// set is an error and leaves the set unchanged.
func (s *Set) Add(id string, m *Matrix) error {
	switch {
	case id == "":
		return errors.New("matrix without id")
	case m == nil:
		return fmt.Errorf("matrix %s is nil", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = map[string]*Matrix{}
	}
	if _, ok := s.byID[id]; ok {
		return fmt.Errorf("matrix %s: %w", id, ErrDuplicateMatrix)
	}
	s.byID[id] = m
	return nil
}

// Get returns the matrix stored under id.
func (s *Set) Get(id string) (*Matrix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	return m, ok
}

// Contains reports whether a matrix is stored under id.
func (s *Set) Contains(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Remove deletes the matrix stored under id and reports whether there was
// one.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok
}

// IDs returns the matrix IDs in sorted order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.byID))
}

// Len is the number of matrices.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

package flowgate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParameterNotFound is returned when no provider in a resolver
	// produces the requested reference.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrDuplicateParameter is returned when two providers produce the
	// same reference.
	ErrDuplicateParameter = errors.New("duplicate parameter reference")

	// ErrCircularParameter is returned when a provider depends on itself,
	// directly or through other providers.
	ErrCircularParameter = errors.New("circular parameter dependency")

	// ErrCircularGate is returned when a boolean gate depends on itself.
	ErrCircularGate = errors.New("circular gate dependency")

	// ErrInvalidGate is returned when a gate description is malformed.
	ErrInvalidGate = errors.New("invalid gate description")

	// ErrGateNotFound is returned when a gate ID is not in a gate set.
	ErrGateNotFound = errors.New("gate not found")

	// ErrDuplicateGate is returned when a gate ID is already in a gate set.
	ErrDuplicateGate = errors.New("duplicate gate id")
)

// ParameterNotFoundError reports the reference that could not be resolved.
type ParameterNotFoundError struct {
	Ref Ref
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrParameterNotFound, e.Ref)
}

func (e *ParameterNotFoundError) Unwrap() error {
	return ErrParameterNotFound
}

// DuplicateParameterError lists every reference produced by more than one provider.
type DuplicateParameterError struct {
	Refs []Ref
}

func (e *DuplicateParameterError) Error() string {
	names := make([]string, len(e.Refs))
	for i, r := range e.Refs {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateParameter, strings.Join(names, ", "))
}

func (e *DuplicateParameterError) Unwrap() error {
	return ErrDuplicateParameter
}

// CircularParameterError carries the dependency cycle, in order, starting and
// ending with the same reference.
type CircularParameterError struct {
	Cycle []Ref
}

func (e *CircularParameterError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, r := range e.Cycle {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s: %s", ErrCircularParameter, strings.Join(names, " -> "))
}

func (e *CircularParameterError) Unwrap() error {
	return ErrCircularParameter
}

// CircularGateError carries the gate dependency cycle, in order, starting and
// ending with the same gate ID.
type CircularGateError struct {
	Cycle []string
}

func (e *CircularGateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularGate, strings.Join(e.Cycle, " -> "))
}

func (e *CircularGateError) Unwrap() error {
	return ErrCircularGate
}

// InvalidGateError reports why a gate description was rejected.
type InvalidGateError struct {
	GateID string
	Reason string

	// Err is the underlying cause, if any (for example a *CircularGateError).
	Err error
}

func (e *InvalidGateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: gate %q: %s: %v", ErrInvalidGate, e.GateID, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: gate %q: %s", ErrInvalidGate, e.GateID, e.Reason)
}

func (e *InvalidGateError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidGate, e.Err}
	}
	return []error{ErrInvalidGate}
}

func invalidGate(id string, format string, args ...any) *InvalidGateError {
	return &InvalidGateError{GateID: id, Reason: fmt.Sprintf(format, args...)}
}

// EventError ties an evaluation failure to the event that caused it.
type EventError struct {
	EventID int
	Err     error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d: %v", e.EventID, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// Package transform provides parameter transformations: derived parameters
// computed from other parameters of the same event.
//
// Single-input transformations (linear, logarithmic, quadratic and the
// biexponential family) wrap a Function. Functions without a closed-form
// inverse (Biexponential, Hyperlog, Logicle) are evaluated with the rootfind
// package. The multi-input Universal transformation evaluates a CEL
// expression over named inputs.
//
// Every transformation is a flowgate.Provider, so a Collection of them can be
// layered into a flowgate.Resolver.
package transform

import (
	"errors"
	"fmt"

	"github.com/ezachrisen/flowgate"
)

// ErrInvalidTransformation is returned when a transformation cannot be built
// from its constants.
var ErrInvalidTransformation = errors.New("invalid transformation")

// Error is a failure to compute a transformation's value, such as a root
// that could not be found.
type Error struct {
	Transformation flowgate.Ref
	Err            error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transformation %s: %v", e.Transformation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transformation is a derived parameter.
type Transformation interface {
	flowgate.Provider
	fmt.Stringer
}

// Single applies a Function to one input parameter.
type Single struct {
	ref   flowgate.Ref
	input flowgate.Ref
	fn    Function
}

// NewSingle creates the transformation name = fn(input).
func NewSingle(name string, input flowgate.Ref, fn Function) *Single {
	return &Single{
		ref:   flowgate.Ref(name),
		input: input,
		fn:    fn,
	}
}

func (s *Single) Ref() flowgate.Ref {
	return s.ref
}

// Input is the parameter the function is applied to.
func (s *Single) Input() flowgate.Ref {
	return s.input
}

// Function returns the wrapped function.
func (s *Single) Function() Function {
	return s.fn
}

func (s *Single) Dependencies() []flowgate.Ref {
	return []flowgate.Ref{s.input}
}

// Scale resolves the input and applies the function to it. Input errors are
// returned as is; function errors are wrapped in *Error.
func (s *Single) Scale(ev flowgate.Event, r flowgate.Retriever) (float64, error) {
	x, err := r.Scale(s.input, ev)
	if err != nil {
		return 0, err
	}
	y, err := s.fn.Apply(x)
	if err != nil {
		return 0, &Error{Transformation: s.ref, Err: err}
	}
	return y, nil
}

func (s *Single) String() string {
	return fmt.Sprintf("%s = %s[%s]", s.ref, s.fn, s.input)
}

// NewLinear creates name = a*input + b.
func NewLinear(name string, input flowgate.Ref, a, b float64) *Single {
	return NewSingle(name, input, Linear{A: a, B: b})
}

// NewLn creates name = ln(input) * r / d.
func NewLn(name string, input flowgate.Ref, r, d float64) (*Single, error) {
	if d == 0 {
		return nil, invalid(name, "d must not be zero")
	}
	return NewSingle(name, input, Ln{R: r, D: d}), nil
}

// NewLog creates name = log_base(input) * r / d. A zero base means 10.
func NewLog(name string, input flowgate.Ref, r, d, base float64) (*Single, error) {
	if d == 0 {
		return nil, invalid(name, "d must not be zero")
	}
	if base < 0 || base == 1 {
		return nil, invalid(name, "log base %g is not valid", base)
	}
	return NewSingle(name, input, Log{R: r, D: d, Base: base}), nil
}

// NewQuadratic creates name = a*input² + b*input + c.
func NewQuadratic(name string, input flowgate.Ref, a, b, c float64) *Single {
	return NewSingle(name, input, Quadratic{A: a, B: b, C: c})
}

// NewBiexponential creates the inverse of a*e^(b*y) - c*e^(-d*y) + f.
func NewBiexponential(name string, input flowgate.Ref, a, b, c, d, f float64) *Single {
	return NewSingle(name, input, Biexponential{A: a, B: b, C: c, D: d, F: f})
}

// NewHyperlog creates the hyperlog transformation.
func NewHyperlog(name string, input flowgate.Ref, b, d, r float64) (*Single, error) {
	if r == 0 {
		return nil, invalid(name, "r must not be zero")
	}
	return NewSingle(name, input, Hyperlog{B: b, D: d, R: r}), nil
}

// NewLogicleTransformation creates the logicle transformation. It fails if
// the width parameter cannot be solved for w.
func NewLogicleTransformation(name string, input flowgate.Ref, t, w, m float64) (*Single, error) {
	fn, err := NewLogicle(t, w, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTransformation, name, err)
	}
	return NewSingle(name, input, fn), nil
}

// NewSplitScaleTransformation creates the split-scale transformation.
func NewSplitScaleTransformation(name string, input flowgate.Ref, r, maxValue, transitionChannel float64) (*Single, error) {
	fn, err := NewSplitScale(r, maxValue, transitionChannel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTransformation, name, err)
	}
	return NewSingle(name, input, fn), nil
}

func invalid(name string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidTransformation, name, fmt.Sprintf(format, args...))
}

// Package compensation corrects raw detector values for spectral spillover.
//
// A Spillover table holds, for each pair of detectors (source, target), the
// fraction of the source's signal that is seen by the target. The
// compensated values of an event are its raw row vector multiplied by the
// inverse of the spillover matrix.
//
// Compensated values are exposed in two ways:
//   - Collection: one derived parameter per detector, named with a prefix
//     ("Comp-FL1-H" by default), layered into a flowgate.Resolver;
//   - Apply: a new population whose raw values are replaced by the
//     compensated ones, so gates written against raw names see compensated
//     data.
package compensation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ezachrisen/flowgate"
	"gonum.org/v1/gonum/mat"
)

// DefaultPrefix is prepended to a detector name to name its compensated
// parameter.
const DefaultPrefix = "Comp-"

// ErrInvalidMatrix is returned when a spillover matrix cannot be inverted.
var ErrInvalidMatrix = errors.New("invalid compensation matrix")

// ErrDuplicateMatrix is returned when a Set already holds a matrix with the
// same ID.
var ErrDuplicateMatrix = errors.New("duplicate compensation matrix")

// InvalidMatrixError wraps the reason a spillover matrix was rejected.
type InvalidMatrixError struct {
	Err error
}

func (e *InvalidMatrixError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidMatrix, e.Err)
}

func (e *InvalidMatrixError) Unwrap() []error {
	return []error{ErrInvalidMatrix, e.Err}
}

// Spillover is a square table of spillover coefficients over an ordered
// list of detectors. Coefficients that were never set are 1 on the diagonal
// and 0 elsewhere.
type Spillover struct {
	refs   []flowgate.Ref
	index  map[flowgate.Ref]int
	coeffs map[[2]int]float64
}

// NewSpillover creates an identity spillover table over the detectors.
func NewSpillover(refs ...flowgate.Ref) (*Spillover, error) {
	if len(refs) == 0 {
		return nil, &InvalidMatrixError{Err: errors.New("no parameters")}
	}
	s := &Spillover{
		index:  make(map[flowgate.Ref]int, len(refs)),
		coeffs: map[[2]int]float64{},
	}
	for _, r := range refs {
		if _, ok := s.index[r]; ok {
			return nil, &InvalidMatrixError{Err: fmt.Errorf("parameter %s listed twice", r)}
		}
		s.index[r] = len(s.refs)
		s.refs = append(s.refs, r)
	}
	return s, nil
}

// Set records the fraction of source's signal seen by target.
func (s *Spillover) Set(source, target flowgate.Ref, v float64) error {
	i, ok := s.index[source]
	if !ok {
		return &flowgate.ParameterNotFoundError{Ref: source}
	}
	j, ok := s.index[target]
	if !ok {
		return &flowgate.ParameterNotFoundError{Ref: target}
	}
	s.coeffs[[2]int{i, j}] = v
	return nil
}

// Value returns the coefficient for (source, target).
func (s *Spillover) Value(source, target flowgate.Ref) (float64, bool) {
	i, ok := s.index[source]
	if !ok {
		return 0, false
	}
	j, ok := s.index[target]
	if !ok {
		return 0, false
	}
	return s.at(i, j), true
}

func (s *Spillover) at(i, j int) float64 {
	if v, ok := s.coeffs[[2]int{i, j}]; ok {
		return v
	}
	if i == j {
		return 1
	}
	return 0
}

// Refs returns the detectors in matrix order.
func (s *Spillover) Refs() []flowgate.Ref {
	return slices.Clone(s.refs)
}

// Dense returns the table as a matrix with sources as rows.
func (s *Spillover) Dense() *mat.Dense {
	n := len(s.refs)
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, s.at(i, j))
		}
	}
	return m
}

// Options configure a Matrix.
type Options struct {
	// Prefix names compensated parameters: Prefix + detector name.
	Prefix string
}

// Option modifies Options.
type Option func(o *Options)

// WithPrefix sets the name prefix of compensated parameters.
// Default: DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// Matrix is an inverted spillover table ready to compensate events.
// Matrix is read-only and safe for concurrent use.
type Matrix struct {
	inputs  []flowgate.Ref
	outputs []flowgate.Ref
	inverse *mat.Dense
}

// New inverts the spillover table. A singular table fails with an
// *InvalidMatrixError.
func New(s *Spillover, opts ...Option) (*Matrix, error) {
	o := Options{Prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	var inv mat.Dense
	if err := inv.Inverse(s.Dense()); err != nil {
		return nil, &InvalidMatrixError{Err: err}
	}

	m := &Matrix{
		inputs:  s.Refs(),
		outputs: make([]flowgate.Ref, len(s.refs)),
		inverse: &inv,
	}
	for i, r := range s.refs {
		m.outputs[i] = flowgate.Ref(o.Prefix + string(r))
	}
	return m, nil
}

// Inputs returns the detectors the matrix reads, in matrix order.
func (m *Matrix) Inputs() []flowgate.Ref {
	return slices.Clone(m.inputs)
}

// Outputs returns the compensated parameter names, in matrix order.
func (m *Matrix) Outputs() []flowgate.Ref {
	return slices.Clone(m.outputs)
}

// Compensate returns raw × S⁻¹. raw holds one value per input, in matrix
// order.
func (m *Matrix) Compensate(raw []float64) ([]float64, error) {
	if len(raw) != len(m.inputs) {
		return nil, fmt.Errorf("compensating %d values with a %dx%d matrix", len(raw), len(m.inputs), len(m.inputs))
	}
	var out mat.VecDense
	out.MulVec(m.inverse.T(), mat.NewVecDense(len(raw), slices.Clone(raw)))
	return out.RawVector().Data, nil
}

// column computes one compensated value.
func (m *Matrix) column(raw []float64, j int) float64 {
	var v float64
	for i, x := range raw {
		v += x * m.inverse.At(i, j)
	}
	return v
}

// Apply returns a population whose events carry compensated values in the
// slots of the matrix's detectors. Other slots, event IDs and the resolver
// are unchanged.
func (m *Matrix) Apply(pop *flowgate.Population, params *flowgate.RawParameters) (*flowgate.Population, error) {
	slots := make([]int, len(m.inputs))
	for i, r := range m.inputs {
		slot, ok := params.Slot(r)
		if !ok {
			return nil, &flowgate.ParameterNotFoundError{Ref: r}
		}
		slots[i] = slot
	}

	events := make([]flowgate.Event, pop.Len())
	raw := make([]float64, len(slots))
	for k := 0; k < pop.Len(); k++ {
		ev := pop.Event(k)
		data := ev.Data()
		for i, slot := range slots {
			if slot >= len(data) {
				return nil, fmt.Errorf("event %d has no slot %d for %s", ev.ID(), slot, m.inputs[i])
			}
			raw[i] = data[slot]
		}
		comp, err := m.Compensate(raw)
		if err != nil {
			return nil, err
		}
		for i, slot := range slots {
			data[slot] = comp[i]
		}
		events[k] = flowgate.NewEvent(ev.ID(), data...)
	}
	return flowgate.NewPopulation(pop.Resolver(), events...), nil
}

// Collection returns the compensated parameters as providers. Each depends
// on every input detector.
func (m *Matrix) Collection() *Collection {
	c := &Collection{
		m:     m,
		index: make(map[flowgate.Ref]int, len(m.outputs)),
	}
	for j, r := range m.outputs {
		c.index[r] = j
	}
	return c
}

// Collection exposes a Matrix's outputs to a flowgate.Resolver.
type Collection struct {
	m     *Matrix
	index map[flowgate.Ref]int
}

func (c *Collection) Refs() []flowgate.Ref {
	return c.m.Outputs()
}

func (c *Collection) Get(ref flowgate.Ref) (flowgate.Provider, bool) {
	j, ok := c.index[ref]
	if !ok {
		return nil, false
	}
	return &output{m: c.m, ref: ref, col: j}, true
}

type output struct {
	m   *Matrix
	ref flowgate.Ref
	col int
}

func (o *output) Ref() flowgate.Ref {
	return o.ref
}

func (o *output) Dependencies() []flowgate.Ref {
	return o.m.Inputs()
}

func (o *output) Scale(ev flowgate.Event, r flowgate.Retriever) (float64, error) {
	raw := make([]float64, len(o.m.inputs))
	for i, in := range o.m.inputs {
		v, err := r.Scale(in, ev)
		if err != nil {
			return 0, err
		}
		raw[i] = v
	}
	return o.m.column(raw, o.col), nil
}

func (o *output) String() string {
	return fmt.Sprintf("%s = compensated[%s]", o.ref, o.m.inputs[o.col])
}

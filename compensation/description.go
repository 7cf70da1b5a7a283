package compensation

import (
	"fmt"

	"github.com/ezachrisen/flowgate"
)

// Description is a decoded spillover table.
type Description struct {
	// Parameters are the detectors, in matrix order.
	Parameters []string `yaml:"parameters"`

	// Coefficients is the full table, sources as rows. When empty, the
	// identity is used.
	Coefficients [][]float64 `yaml:"coefficients,omitempty"`

	// Prefix names the compensated parameters. Empty means DefaultPrefix.
	Prefix string `yaml:"prefix,omitempty"`

	// Shadow replaces raw values with compensated values instead of
	// adding prefixed parameters.
	Shadow bool `yaml:"shadow,omitempty"`
}

// Spillover builds the spillover table.
func (d Description) Spillover() (*Spillover, error) {
	s, err := NewSpillover(flowgate.Refs(d.Parameters...)...)
	if err != nil {
		return nil, err
	}
	if len(d.Coefficients) == 0 {
		return s, nil
	}
	if len(d.Coefficients) != len(d.Parameters) {
		return nil, &InvalidMatrixError{Err: fmt.Errorf("%d coefficient rows for %d parameters", len(d.Coefficients), len(d.Parameters))}
	}
	for i, row := range d.Coefficients {
		if len(row) != len(d.Parameters) {
			return nil, &InvalidMatrixError{Err: fmt.Errorf("row %d has %d coefficients, want %d", i, len(row), len(d.Parameters))}
		}
		for j, v := range row {
			if err := s.Set(flowgate.Ref(d.Parameters[i]), flowgate.Ref(d.Parameters[j]), v); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Matrix builds and inverts the spillover table.
func (d Description) Matrix() (*Matrix, error) {
	s, err := d.Spillover()
	if err != nil {
		return nil, err
	}
	var opts []Option
	if d.Prefix != "" {
		opts = append(opts, WithPrefix(d.Prefix))
	}
	return New(s, opts...)
}

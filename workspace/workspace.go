// Package workspace assembles an analysis from one yaml document: the raw
// parameter names, an optional spillover table, transformations, gates and
// analyzer settings.
//
//	parameters: [FSC-A, SSC-A, FL1-H, FL2-H]
//	compensation:
//	  parameters: [FL1-H, FL2-H]
//	  coefficients: [[1, 0.1], [0.2, 1]]
//	transformations:
//	  - name: FSC
//	    kind: linear
//	    parameter: FSC-A
//	    a: 0.001
//	gates:
//	  - id: cells
//	    kind: rectangle
//	    dimensions: [FSC]
//	    min: [10]
//	analysis:
//	  parallel: 4
//
// Compensated parameters are named with the compensation prefix (Comp- by
// default) unless the table is marked shadow, in which case compensated
// values replace the raw values under the raw names.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ezachrisen/flowgate"
	"github.com/ezachrisen/flowgate/compensation"
	"github.com/ezachrisen/flowgate/transform"
	"gopkg.in/yaml.v3"
)

// Document is the decoded form of a workspace file.
type Document struct {
	Parameters      []string                            `yaml:"parameters"`
	Compensation    *compensation.Description           `yaml:"compensation,omitempty"`
	Matrices        map[string]compensation.Description `yaml:"matrices,omitempty"`
	Transformations []transform.Description             `yaml:"transformations,omitempty"`
	Gates           []flowgate.GateDescription          `yaml:"gates"`
	Analysis        flowgate.Config                     `yaml:"analysis,omitempty"`
}

// Decode reads a Document. Unknown fields are an error.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty workspace document")
		}
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}
	return &d, nil
}

// Workspace is a built Document.
type Workspace struct {
	Raw *flowgate.RawParameters

	// Compensation is nil if the document has no spillover table.
	Compensation *compensation.Matrix

	// Matrices holds the document's additional spillover tables by ID.
	// They are not layered into the Resolver.
	Matrices *compensation.Set

	Transformations *transform.Collection
	Gates           *flowgate.GateSet

	// Resolver resolves every parameter of the workspace: raw,
	// compensated (unless shadowed) and transformed.
	Resolver *flowgate.Resolver

	Analyzer *flowgate.Analyzer

	shadow bool
}

// Build creates the parameters, gates and analyzer. opts are applied after
// the document's analysis settings.
func (d *Document) Build(opts ...flowgate.AnalyzerOption) (*Workspace, error) {
	w := &Workspace{}

	var err error
	w.Raw, err = flowgate.NewRawParameters(d.Parameters...)
	if err != nil {
		return nil, fmt.Errorf("raw parameters: %w", err)
	}
	layers := []flowgate.Collection{w.Raw}

	if d.Compensation != nil {
		w.Compensation, err = d.Compensation.Matrix()
		if err != nil {
			return nil, fmt.Errorf("compensation: %w", err)
		}
		w.shadow = d.Compensation.Shadow
		if !w.shadow {
			layers = append(layers, w.Compensation.Collection())
		}
	}

	w.Matrices, err = compensation.NewSetFromDescriptions(d.Matrices)
	if err != nil {
		return nil, fmt.Errorf("compensation: %w", err)
	}

	w.Transformations, err = transform.NewCollectionFromDescriptions(d.Transformations)
	if err != nil {
		return nil, fmt.Errorf("transformations: %w", err)
	}
	layers = append(layers, w.Transformations)

	w.Resolver, err = flowgate.NewResolver(layers...)
	if err != nil {
		return nil, err
	}

	w.Gates, err = flowgate.BuildGateSet(d.Gates...)
	if err != nil {
		return nil, fmt.Errorf("gates: %w", err)
	}

	all, err := d.Analysis.Options(nil)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	w.Analyzer, err = flowgate.NewAnalyzer(w.Gates, append(all, opts...)...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Load decodes and builds a workspace.
func Load(r io.Reader, opts ...flowgate.AnalyzerOption) (*Workspace, error) {
	d, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return d.Build(opts...)
}

// Population creates a population from raw rows, one value per raw
// parameter, resolved with the workspace's resolver. A shadow compensation
// is applied to the events.
func (w *Workspace) Population(rows [][]float64) (*flowgate.Population, error) {
	pop, err := w.Raw.Population(rows)
	if err != nil {
		return nil, err
	}
	pop = pop.WithResolver(w.Resolver)
	if w.shadow {
		return w.Compensation.Apply(pop, w.Raw)
	}
	return pop, nil
}

// Analyze builds the population from rows and analyzes it.
func (w *Workspace) Analyze(ctx context.Context, rows [][]float64) (*flowgate.Result, error) {
	pop, err := w.Population(rows)
	if err != nil {
		return nil, err
	}
	return w.Analyzer.Analyze(ctx, pop)
}

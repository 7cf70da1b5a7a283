package workspace_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ezachrisen/flowgate"
	"github.com/ezachrisen/flowgate/compensation"
	"github.com/ezachrisen/flowgate/transform"
	"github.com/ezachrisen/flowgate/workspace"
	"github.com/matryer/is"
)

const doc = `
parameters: [FSC-A, SSC-A, FL1-H, FL2-H]
compensation:
  parameters: [FL1-H, FL2-H]
  coefficients: [[1, 0.1], [0.2, 1]]
transformations:
  - name: FSC
    kind: linear
    parameter: FSC-A
    a: 0.001
  - name: ratio
    kind: universal
    expr: fl1 / fl2
    inputs: {fl1: Comp-FL1-H, fl2: Comp-FL2-H}
gates:
  - id: bright-cells
    kind: boolean
    operator: and
    operands: [cells, fl1-bright]
  - id: cells
    kind: rectangle
    dimensions: [FSC]
    min: [10]
  - id: fl1-bright
    kind: rectangle
    dimensions: [Comp-FL1-H]
    min: [50]
analysis:
  parallel: 2
  statistics: [Comp-FL1-H]
`

var rows = [][]float64{
	{20000, 0, 100, 50},
	{5000, 0, 100, 50},
	{20000, 0, 10, 200},
}

func TestLoad(t *testing.T) {
	is := is.New(t)

	w, err := workspace.Load(strings.NewReader(doc))
	is.NoErr(err)
	is.Equal(4, w.Raw.Len())
	is.True(w.Compensation != nil)
	is.Equal(2, w.Transformations.Len())
	is.Equal(3, w.Gates.Len())
	is.Equal(2, w.Analyzer.Options().Parallel)
	is.True(w.Resolver.Contains("Comp-FL2-H"))

	pop, err := w.Population(rows)
	is.NoErr(err)
	ratio, err := w.Resolver.Scale("ratio", pop.Event(0))
	is.NoErr(err)
	is.True(math.Abs(ratio-90.0/40) < 1e-12)

	res, err := w.Analyze(context.Background(), rows)
	is.NoErr(err)
	is.True(!res.HasErrors())
	is.Equal(2, res.Count("cells"))
	is.Equal(2, res.Count("fl1-bright"))
	is.Equal(1, res.Count("bright-cells"))

	bright, _ := res.Subpopulation("bright-cells")
	is.True(bright.ContainsID(0))

	stats := res.Statistics["bright-cells"]
	is.Equal(1, len(stats))
	is.Equal(flowgate.Ref("Comp-FL1-H"), stats[0].Parameter)
	is.True(math.Abs(stats[0].Mean-90/0.98) < 1e-9)
}

func TestShadowCompensation(t *testing.T) {
	is := is.New(t)

	w, err := workspace.Load(strings.NewReader(`
parameters: [FL1-H, FL2-H]
compensation:
  parameters: [FL1-H, FL2-H]
  coefficients: [[1, 0.1], [0.2, 1]]
  shadow: true
gates:
  - id: bright
    kind: rectangle
    dimensions: [FL1-H]
    min: [50]
`))
	is.NoErr(err)
	is.True(!w.Resolver.Contains("Comp-FL1-H"))

	pop, err := w.Population([][]float64{{100, 50}, {60, 200}})
	is.NoErr(err)
	v, err := w.Resolver.Scale("FL1-H", pop.Event(0))
	is.NoErr(err)
	is.True(math.Abs(v-90/0.98) < 1e-9)

	// 60 raw, (60 - 40) / 0.98 compensated
	res, err := w.Analyzer.Analyze(context.Background(), pop)
	is.NoErr(err)
	is.Equal(1, res.Count("bright"))
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "transformation shadows a raw parameter",
			doc: `
parameters: [x]
transformations:
  - {name: x, kind: linear, parameter: x, a: 2}
`,
			want: flowgate.ErrDuplicateParameter,
		},
		{
			name: "circular transformations",
			doc: `
parameters: [x]
transformations:
  - {name: a, kind: linear, parameter: b, a: 1}
  - {name: b, kind: linear, parameter: a, a: 1}
`,
			want: flowgate.ErrCircularParameter,
		},
		{
			name: "singular spillover",
			doc: `
parameters: [x, y]
compensation:
  parameters: [x, y]
  coefficients: [[1, 1], [1, 1]]
`,
			want: compensation.ErrInvalidMatrix,
		},
		{
			name: "bad transformation",
			doc: `
parameters: [x]
transformations:
  - {name: t, kind: ln, parameter: x, r: 1, d: 0}
`,
			want: transform.ErrInvalidTransformation,
		},
		{
			name: "gate cycle",
			doc: `
parameters: [x]
gates:
  - {id: A, kind: boolean, operator: not, operands: [A]}
`,
			want: flowgate.ErrCircularGate,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			_, err := workspace.Load(strings.NewReader(c.doc))
			is.True(errors.Is(err, c.want))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	is := is.New(t)

	_, err := workspace.Decode(strings.NewReader(""))
	is.True(err != nil)

	_, err = workspace.Decode(strings.NewReader("parameters: [x]\nplots: []\n"))
	is.True(err != nil)

	_, err = workspace.Load(strings.NewReader("parameters: [x]\nanalysis: {log_level: loud}\n"))
	is.True(err != nil)
}

func TestMatrices(t *testing.T) {
	is := is.New(t)

	w, err := workspace.Load(strings.NewReader(`
parameters: [FL1-H, FL2-H]
matrices:
  day-1:
    parameters: [FL1-H, FL2-H]
    coefficients: [[1, 0.1], [0.2, 1]]
  day-2:
    parameters: [FL1-H, FL2-H]
gates:
  - {id: bright, kind: rectangle, dimensions: [FL1-H], min: [50]}
`))
	is.NoErr(err)
	is.True(w.Compensation == nil)
	is.Equal([]string{"day-1", "day-2"}, w.Matrices.IDs())
	is.True(!w.Resolver.Contains("Comp-FL1-H"))

	m, ok := w.Matrices.Get("day-1")
	is.True(ok)
	pop, err := w.Population([][]float64{{100, 50}, {60, 200}})
	is.NoErr(err)
	comp, err := m.Apply(pop, w.Raw)
	is.NoErr(err)
	res, err := w.Analyzer.Analyze(context.Background(), comp)
	is.NoErr(err)
	is.Equal(1, res.Count("bright"))
}

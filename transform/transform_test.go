package transform_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ezachrisen/flowgate"
	"github.com/ezachrisen/flowgate/transform"
	"github.com/matryer/is"
)

const epsilon = 5e-7

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// resolve builds a resolver with one raw parameter "x" and the
// transformations, and resolves name for an event holding v.
func resolve(t *testing.T, name string, v float64, ts ...transform.Transformation) (float64, error) {
	t.Helper()
	raw, err := flowgate.NewRawParameters("x")
	if err != nil {
		t.Fatal(err)
	}
	c, err := transform.NewCollection(ts...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := flowgate.NewResolver(raw, c)
	if err != nil {
		t.Fatal(err)
	}
	return r.Scale(flowgate.Ref(name), flowgate.NewEvent(1, v))
}

func mustSingle(t *testing.T) func(*transform.Single, error) *transform.Single {
	return func(s *transform.Single, err error) *transform.Single {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
}

func TestFixtures(t *testing.T) {
	must := mustSingle(t)

	cases := []struct {
		name   string
		t      transform.Transformation
		input  float64
		expect float64
	}{
		{"linear", transform.NewLinear("T", "x", 3, 5), 10, 35},
		{"ln", must(transform.NewLn("T", "x", 1000, 3)), 10, 767.5283643313},
		{"ln floor below one", must(transform.NewLn("T", "x", 1000, 3)), 0.5, 0},
		{"ln floor at one", must(transform.NewLn("T", "x", 1000, 3)), 1, 0},
		{"log", must(transform.NewLog("T", "x", 2000, 5, 0)), 10, 400},
		{"log base 17", must(transform.NewLog("T", "x", 400, 3, 17)), 10, 108.3615346},
		{"quadratic", transform.NewQuadratic("T", "x", 3, 2, 1), 10, 321},
		{"biexponential", transform.NewBiexponential("T", "x", .5, 1, 1.5, 2, 2.5), 10, 2.708937121},
		{"splitscale linear", must(transform.NewSplitScaleTransformation("T", "x", 192, 262144, 64)), 10, 32.49246678},
		{"splitscale below threshold", must(transform.NewSplitScaleTransformation("T", "x", 192, 262144, 64)), 649.5, 63.98571794},
		{"splitscale at threshold", must(transform.NewSplitScaleTransformation("T", "x", 192, 262144, 64)), 649.7900106, 64},
		{"splitscale above threshold", must(transform.NewSplitScaleTransformation("T", "x", 192, 262144, 64)), 650, 64.01033961},
		{"splitscale log", must(transform.NewSplitScaleTransformation("T", "x", 192, 262144, 64)), 1500, 90.77027638},
		{"hyperlog negative", must(transform.NewHyperlog("T", "x", 35, 3, 1000)), -4.5, -39.8399952},
		{"hyperlog zero", must(transform.NewHyperlog("T", "x", 35, 3, 1000)), 0, 0},
		{"hyperlog", must(transform.NewHyperlog("T", "x", 35, 3, 1000)), 10, 87.34948401},
		{"logicle negative", must(transform.NewLogicleTransformation("T", "x", 10000, .48655813, 10.36)), -4.5, -1.5983752},
		{"logicle zero", must(transform.NewLogicleTransformation("T", "x", 10000, .48655813, 10.36)), 0, .48655813},
		{"logicle", must(transform.NewLogicleTransformation("T", "x", 10000, .48655813, 10.36)), 10, 3.403242878},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			v, err := resolve(t, "T", c.input, c.t)
			is.NoErr(err)
			is.True(near(v, c.expect, epsilon)) // fixture value
		})
	}
}

func TestLinearAndQuadraticExact(t *testing.T) {
	is := is.New(t)

	v, err := resolve(t, "L", 10, transform.NewLinear("L", "x", 3, 5))
	is.NoErr(err)
	is.Equal(v, 35.0)

	v, err = resolve(t, "Q", 10, transform.NewQuadratic("Q", "x", 3, 2, 1))
	is.NoErr(err)
	is.Equal(v, 321.0)
}

func TestLogicleWidth(t *testing.T) {
	is := is.New(t)

	f, err := transform.NewLogicle(10000, .48655813, 10.36)
	is.NoErr(err)
	is.True(near(f.P(), 1.5, 1e-6))

	// 2p ln(p)/(p+1) is never negative for p >= 1
	_, err = transform.NewLogicleTransformation("L", "x", 10000, -1, 10)
	is.True(errors.Is(err, transform.ErrInvalidTransformation))
}

func TestRoundTrip(t *testing.T) {
	type inverse interface {
		Forward(y float64) float64
		Apply(x float64) (float64, error)
	}

	logicle, err := transform.NewLogicle(10000, .48655813, 10.36)
	if err != nil {
		t.Fatal(err)
	}

	fns := map[string]inverse{
		"biexponential": transform.Biexponential{A: .5, B: 1, C: 1.5, D: 2, F: 2.5},
		"hyperlog":      transform.Hyperlog{B: 35, D: 3, R: 1000},
		"logicle":       logicle,
	}

	for name, f := range fns {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			for _, y := range []float64{-2, -0.25, 0, 0.75, 1.5, 3} {
				got, err := f.Apply(f.Forward(y))
				is.NoErr(err)
				is.True(near(got, y, 5e-8)) // inverse of forward
			}
		})
	}
}

func TestChainedTransformations(t *testing.T) {
	is := is.New(t)

	// x -> L1 = 2x+1 -> L2 = 3*L1 -> Q = L2²
	v, err := resolve(t, "Q", 2,
		transform.NewQuadratic("Q", "L2", 1, 0, 0),
		transform.NewLinear("L2", "L1", 3, 0),
		transform.NewLinear("L1", "x", 2, 1),
	)
	is.NoErr(err)
	is.Equal(v, 225.0)
}

func TestMissingInput(t *testing.T) {
	is := is.New(t)

	_, err := resolve(t, "L", 2, transform.NewLinear("L", "nope", 1, 0))
	is.True(errors.Is(err, flowgate.ErrParameterNotFound))

	var nf *flowgate.ParameterNotFoundError
	is.True(errors.As(err, &nf))
	is.Equal(nf.Ref, flowgate.Ref("nope"))
}

func TestCircularTransformations(t *testing.T) {
	is := is.New(t)

	raw, err := flowgate.NewRawParameters("x")
	is.NoErr(err)
	c, err := transform.NewCollection(
		transform.NewLinear("A", "B", 1, 0),
		transform.NewLinear("B", "C", 1, 0),
		transform.NewLinear("C", "A", 1, 0),
	)
	is.NoErr(err)

	_, err = flowgate.NewResolver(raw, c)
	is.True(errors.Is(err, flowgate.ErrCircularParameter))

	var ce *flowgate.CircularParameterError
	is.True(errors.As(err, &ce))
	is.Equal(ce.Cycle[0], ce.Cycle[len(ce.Cycle)-1]) // cycle is closed
	is.Equal(len(ce.Cycle), 4)
}

func TestUniversal(t *testing.T) {
	is := is.New(t)

	raw, err := flowgate.NewRawParameters("FSC-A", "SSC-A")
	is.NoErr(err)

	ratio, err := transform.NewUniversal("ratio", "fsc / (ssc + 1.0)", map[string]flowgate.Ref{
		"fsc": "FSC-A",
		"ssc": "SSC-A",
	})
	is.NoErr(err)
	is.Equal(ratio.Dependencies(), []flowgate.Ref{"FSC-A", "SSC-A"})

	mixed, err := transform.NewUniversal("mixed", "pow(r, 2.0) + log(s, 2.0) + sqrt(16.0)", map[string]flowgate.Ref{
		"r": "ratio",
		"s": "SSC-A",
	})
	is.NoErr(err)

	c, err := transform.NewCollection(ratio, mixed)
	is.NoErr(err)
	r, err := flowgate.NewResolver(raw, c)
	is.NoErr(err)

	ev := flowgate.NewEvent(7, 10, 4)
	v, err := r.Scale("ratio", ev)
	is.NoErr(err)
	is.Equal(v, 2.0)

	// 2² + log2(4) + 4
	v, err = r.Scale("mixed", ev)
	is.NoErr(err)
	is.True(near(v, 10, 1e-12))
}

func TestUniversalErrors(t *testing.T) {
	cases := []struct {
		name string
		expr string
	}{
		{"empty", "  "},
		{"syntax", "x +"},
		{"unknown variable", "y * 2.0"},
		{"boolean result", "x > 1.0"},
		{"integer result", "1 + 2"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			_, err := transform.NewUniversal("U", c.expr, map[string]flowgate.Ref{"x": "x"})
			is.True(errors.Is(err, transform.ErrInvalidTransformation))
		})
	}
}

func TestInvalidConstants(t *testing.T) {
	is := is.New(t)

	_, err := transform.NewLn("T", "x", 1, 0)
	is.True(errors.Is(err, transform.ErrInvalidTransformation))

	_, err = transform.NewLog("T", "x", 1, 1, 1)
	is.True(errors.Is(err, transform.ErrInvalidTransformation))

	_, err = transform.NewHyperlog("T", "x", 1, 1, 0)
	is.True(errors.Is(err, transform.ErrInvalidTransformation))

	_, err = transform.NewSplitScaleTransformation("T", "x", 0, 10, 10)
	is.True(errors.Is(err, transform.ErrInvalidTransformation))
}

func TestCollection(t *testing.T) {
	is := is.New(t)

	c, err := transform.NewCollection()
	is.NoErr(err)

	is.True(c.Add(transform.NewLinear("A", "x", 1, 0)))
	is.True(c.Add(transform.NewLinear("B", "x", 1, 0)))
	is.True(!c.Add(transform.NewLinear("A", "x", 2, 0))) // duplicate name
	is.True(!c.Add(nil))
	is.Equal(c.Len(), 2)
	is.Equal(c.Refs(), []flowgate.Ref{"A", "B"})

	p, ok := c.Get("A")
	is.True(ok)
	is.Equal(p.Ref(), flowgate.Ref("A"))

	is.True(c.Remove("A"))
	is.True(!c.Remove("A"))
	is.True(!c.Contains("A"))
	is.True(c.Contains("B"))
	is.Equal(c.Refs(), []flowgate.Ref{"B"})

	_, err = transform.NewCollection(
		transform.NewLinear("A", "x", 1, 0),
		transform.NewLinear("A", "x", 2, 0),
	)
	is.True(errors.Is(err, flowgate.ErrDuplicateParameter))
}

func TestDescriptions(t *testing.T) {
	is := is.New(t)

	c, err := transform.NewCollectionFromDescriptions([]transform.Description{
		{Name: "lin", Kind: transform.KindLinear, Parameter: "x", A: 3, B: 5},
		{Name: "hlog", Kind: transform.KindHyperlog, Parameter: "x", B: 35, D: 3, R: 1000},
		{Name: "sum", Kind: transform.KindUniversal, Expr: "a + b", Inputs: map[string]string{"a": "lin", "b": "hlog"}},
	})
	is.NoErr(err)
	is.Equal(c.Len(), 3)

	raw, err := flowgate.NewRawParameters("x")
	is.NoErr(err)
	r, err := flowgate.NewResolver(raw, c)
	is.NoErr(err)

	v, err := r.Scale("sum", flowgate.NewEvent(0, 10))
	is.NoErr(err)
	is.True(near(v, 35+87.34948401, epsilon))

	_, err = transform.New(transform.Description{Name: "bad", Kind: "cubic", Parameter: "x"})
	is.True(errors.Is(err, transform.ErrInvalidTransformation))

	_, err = transform.New(transform.Description{Name: "noinput", Kind: transform.KindLinear})
	is.True(errors.Is(err, transform.ErrInvalidTransformation))

	tr, err := transform.New(transform.Description{Name: "ln0", Kind: transform.KindLn, Parameter: "x"})
	is.True(errors.Is(err, transform.ErrInvalidTransformation))
	is.True(tr == nil)
}

func TestRootFailureNamesTransformation(t *testing.T) {
	is := is.New(t)

	// a*e^(b*y) with no negative term never drops below f, so no root for x < f
	_, err := resolve(t, "B", 0, transform.NewBiexponential("B", "x", 1, 1, 0, 1, 5))
	var te *transform.Error
	is.True(errors.As(err, &te))
	is.Equal(te.Transformation, flowgate.Ref("B"))
}

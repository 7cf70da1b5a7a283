package flowgate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ezachrisen/flowgate"
	"github.com/matryer/is"
)

func TestExplain(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	g := rectangle(t, "R", []string{"x", "y"}, flowgate.Between(0, 10), flowgate.Between(0, 10))
	x := flowgate.Explain(g, ev(3, 4), r)
	is.NoErr(x.Err)
	is.True(x.Inside)
	is.Equal([]flowgate.ParameterValue{{Ref: "x", Value: 3}, {Ref: "y", Value: 4}}, x.Values)

	s := x.String()
	is.True(strings.Contains(s, "INSIDE"))
	is.True(strings.Contains(s, "DIAGNOSTIC REPORT"))

	// the first dimension is outside, so the second is never read
	x = flowgate.Explain(g, ev(30, 4), r)
	is.True(!x.Inside)
	is.Equal(1, len(x.Values))
	is.True(strings.Contains(x.String(), "OUTSIDE"))
}

func TestExplainBoolean(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	gs := hierarchy(t)
	all, _ := gs.Get("all")

	x := flowgate.Explain(all, ev(50, 50), r)
	is.NoErr(x.Err)
	is.True(x.Inside)
	is.Equal(0, len(x.Values))
	is.Equal(2, len(x.Operands))
	is.Equal("lymphocytes", x.Operands[0].Gate.ID())
	is.Equal("not-debris", x.Operands[1].Gate.ID())
	is.True(!x.Operands[1].Operands[0].Inside) // debris

	s := x.String()
	is.True(strings.Contains(s, "debris"))
	is.True(strings.Contains(s, "x=50"))
}

func TestExplainError(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	g := rectangle(t, "R", []string{"FL9"}, flowgate.AtLeast(0))
	x := flowgate.Explain(g, ev(1, 1), r)
	is.True(errors.Is(x.Err, flowgate.ErrParameterNotFound))
	is.True(x.Values[0].Err != nil)
	is.True(strings.Contains(x.String(), "ERROR"))
}

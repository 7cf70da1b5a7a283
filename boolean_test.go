package flowgate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ezachrisen/flowgate"
	"github.com/matryer/is"
)

func TestBooleanOperators(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	left := rectangle(t, "left", []string{"x"}, flowgate.AtMost(10))
	low := rectangle(t, "low", []string{"y"}, flowgate.AtMost(10))

	and := flowgate.NewBoolean("and", flowgate.And, left, low)
	or := flowgate.NewBoolean("or", flowgate.Or, left, low)
	not := flowgate.NewBoolean("not", flowgate.Not, left)
	for _, g := range []*flowgate.Boolean{and, or, not} {
		is.NoErr(g.Validate())
	}

	cases := []struct {
		x, y         float64
		and, or, not bool
	}{
		{5, 5, true, true, false},
		{5, 50, false, true, false},
		{50, 5, false, true, true},
		{50, 50, false, false, true},
	}
	for _, c := range cases {
		e := ev(c.x, c.y)
		in, err := and.Inside(e, r)
		is.NoErr(err)
		is.Equal(c.and, in)
		in, err = or.Inside(e, r)
		is.NoErr(err)
		is.Equal(c.or, in)
		in, err = not.Inside(e, r)
		is.NoErr(err)
		is.Equal(c.not, in)
	}
}

func TestBooleanIdentities(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	g := rectangle(t, "G", []string{"x", "y"}, flowgate.Between(0, 10), flowgate.Between(0, 10))
	inner := flowgate.NewBoolean("notG", flowgate.Not, g)
	notnot := flowgate.NewBoolean("notnotG", flowgate.Not, inner)
	and1 := flowgate.NewBoolean("andG", flowgate.And, g)
	or1 := flowgate.NewBoolean("orG", flowgate.Or, g)

	gs, err := flowgate.NewGateSet(g, inner, notnot, and1, or1)
	is.NoErr(err)
	is.NoErr(gs.Validate())

	for _, p := range [][2]float64{{5, 5}, {0, 10}, {-1, 5}, {5, 11}} {
		e := ev(p[0], p[1])
		want, err := g.Inside(e, r)
		is.NoErr(err)
		for _, b := range []flowgate.Gate{notnot, and1, or1} {
			got, err := b.Inside(e, r)
			is.NoErr(err)
			if got != want {
				t.Errorf("%s at %v = %v, want %v", b.ID(), p, got, want)
			}
		}
	}
}

func TestBooleanNotValidated(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	g := flowgate.NewBoolean("B", flowgate.Not, rectangle(t, "G", []string{"x"}, flowgate.AtLeast(0)))
	_, err := g.Inside(ev(1, 1), r)
	is.True(errors.Is(err, flowgate.ErrInvalidGate))

	is.NoErr(g.Validate())
	in, err := g.Inside(ev(1, 1), r)
	is.NoErr(err)
	is.True(!in)
}

func TestBooleanOperandErrors(t *testing.T) {
	is := is.New(t)
	r, ev := xy(t)

	missing := rectangle(t, "missing", []string{"nope"}, flowgate.AtLeast(0))
	for _, op := range []flowgate.Operator{flowgate.And, flowgate.Or, flowgate.Not} {
		g := flowgate.NewBoolean("B", op, missing)
		is.NoErr(g.Validate())
		in, err := g.Inside(ev(1, 1), r)
		is.True(errors.Is(err, flowgate.ErrParameterNotFound))
		is.True(!in) // an error is never inside
	}
}

func TestBooleanInvalid(t *testing.T) {
	g := rectangle(t, "G", []string{"x"}, flowgate.AtLeast(0))
	cases := []struct {
		name string
		gate *flowgate.Boolean
	}{
		{"and without operands", flowgate.NewBoolean("B", flowgate.And)},
		{"or without operands", flowgate.NewBoolean("B", flowgate.Or)},
		{"not with two operands", flowgate.NewBoolean("B", flowgate.Not, g, g)},
		{"nil operand", flowgate.NewBoolean("B", flowgate.And, g, nil)},
		{"unknown operator", flowgate.NewBoolean("B", flowgate.Operator(9), g)},
		{"no id", flowgate.NewBoolean("", flowgate.And, g)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			is.True(errors.Is(c.gate.Validate(), flowgate.ErrInvalidGate))
		})
	}
}

func TestBooleanCycles(t *testing.T) {
	cases := []struct {
		name  string
		descs []flowgate.GateDescription
		want  []string
	}{
		{
			name: "self",
			descs: []flowgate.GateDescription{
				{ID: "A", Kind: flowgate.KindBoolean, Operator: "and", Operands: []string{"A"}},
			},
			want: []string{"A", "A"},
		},
		{
			name: "two",
			descs: []flowgate.GateDescription{
				{ID: "A", Kind: flowgate.KindBoolean, Operator: "not", Operands: []string{"B"}},
				{ID: "B", Kind: flowgate.KindBoolean, Operator: "not", Operands: []string{"A"}},
			},
			want: []string{"A", "B", "A"},
		},
		{
			name: "three",
			descs: []flowgate.GateDescription{
				{ID: "C", Kind: flowgate.KindBoolean, Operator: "not", Operands: []string{"A"}},
				{ID: "A", Kind: flowgate.KindBoolean, Operator: "and", Operands: []string{"R", "B"}},
				{ID: "B", Kind: flowgate.KindBoolean, Operator: "or", Operands: []string{"C"}},
				{ID: "R", Kind: flowgate.KindRectangle, Dimensions: []string{"x"}, Min: []*float64{ptr(0)}},
			},
			want: []string{"A", "B", "C", "A"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			_, err := flowgate.BuildGateSet(c.descs...)
			is.True(errors.Is(err, flowgate.ErrCircularGate))
			is.True(errors.Is(err, flowgate.ErrInvalidGate))

			var ce *flowgate.CircularGateError
			is.True(errors.As(err, &ce))
			is.Equal(c.want, ce.Cycle)
			is.True(strings.Contains(err.Error(), strings.Join(c.want, " -> ")))
		})
	}
}

func TestParseOperator(t *testing.T) {
	is := is.New(t)

	for _, op := range []flowgate.Operator{flowgate.And, flowgate.Or, flowgate.Not} {
		got, err := flowgate.ParseOperator(strings.ToUpper(op.String()))
		is.NoErr(err)
		is.Equal(op, got)
	}
	_, err := flowgate.ParseOperator("xor")
	is.True(err != nil)
}

func ptr(v float64) *float64 {
	return &v
}

package rootfind_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ezachrisen/flowgate/rootfind"
	"github.com/matryer/is"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestFind(t *testing.T) {
	cases := []struct {
		name   string
		f      rootfind.Func
		lower  float64
		upper  float64
		expect float64
	}{
		{
			name:   "square root of two",
			f:      func(y float64) (float64, error) { return y*y - 2, nil },
			lower:  0,
			upper:  10,
			expect: math.Sqrt2,
		},
		{
			name:   "linear, default bracket",
			f:      func(y float64) (float64, error) { return 3*y - 12, nil },
			lower:  rootfind.DefaultLower,
			upper:  rootfind.DefaultUpper,
			expect: 4,
		},
		{
			name:   "root below initial bracket",
			f:      func(y float64) (float64, error) { return y + 5000, nil },
			lower:  rootfind.DefaultLower,
			upper:  rootfind.DefaultUpper,
			expect: -5000,
		},
		{
			name:   "overflowing upper end",
			f:      func(y float64) (float64, error) { return math.Exp(y) - 10, nil },
			lower:  rootfind.DefaultLower,
			upper:  rootfind.DefaultUpper,
			expect: math.Log(10),
		},
		{
			name:   "exact zero at the lower end",
			f:      func(y float64) (float64, error) { return y - 1, nil },
			lower:  1,
			upper:  1024,
			expect: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			y, err := rootfind.Find(c.f, c.lower, c.upper)
			is.NoErr(err)
			is.True(near(y, c.expect, 1e-9)) // root
		})
	}
}

func TestBracketGrowsTowardsRoot(t *testing.T) {
	is := is.New(t)

	f := func(y float64) (float64, error) { return y - 3000, nil }
	lo, hi, err := rootfind.Bracket(f, 0, 10)
	is.NoErr(err)
	is.Equal(lo, 0.0) // the lower end is further from zero and stays put
	is.True(hi >= 3000)
}

func TestBracketNotFound(t *testing.T) {
	is := is.New(t)

	f := func(y float64) (float64, error) { return y*y + 1, nil }
	_, _, err := rootfind.Bracket(f, -1, 1)
	is.True(errors.Is(err, rootfind.ErrBracketNotFound))

	_, err = rootfind.Find(f, -1, 1)
	is.True(errors.Is(err, rootfind.ErrRootFinding))
	is.True(errors.Is(err, rootfind.ErrBracketNotFound))
}

func TestFunctionErrorPropagates(t *testing.T) {
	is := is.New(t)

	boom := errors.New("boom")
	f := func(y float64) (float64, error) {
		if y > 5 {
			return 0, boom
		}
		return y, nil
	}
	_, err := rootfind.Find(f, 1, 10)
	is.True(errors.Is(err, rootfind.ErrRootFinding))
	is.True(errors.Is(err, boom))
}

func TestNoConvergence(t *testing.T) {
	is := is.New(t)

	f := func(y float64) (float64, error) { return math.Cbrt(y - 0.3), nil }
	_, err := rootfind.Find(f, -1, 1, rootfind.WithMaxIterations(2), rootfind.WithTolerance(1e-15))
	is.True(errors.Is(err, rootfind.ErrRootFinding))
	is.True(!errors.Is(err, rootfind.ErrBracketNotFound))
}

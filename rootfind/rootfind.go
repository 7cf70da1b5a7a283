// Package rootfind locates roots of monotonic one-dimensional functions.
//
// A root is found in two steps. First a bracket (an interval where the function
// changes sign) is grown from an initial guess, then Brent's method converges
// on the root inside the bracket. Transformations that have no closed-form
// inverse (biexponential, hyperlog, logicle) are evaluated this way.
package rootfind

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultLower and DefaultUpper form the initial bracket guess used
	// when the caller has no better estimate.
	DefaultLower = -10.0
	DefaultUpper = 1024.0

	// MaxBracketIterations caps the number of times a bracket is grown.
	MaxBracketIterations = 100

	// DefaultMaxIterations caps the number of Brent iterations.
	DefaultMaxIterations = 1000

	// DefaultTolerance is the absolute accuracy of a returned root.
	DefaultTolerance = 1e-12
)

var (
	// ErrBracketNotFound is returned when no sign change could be found
	// within MaxBracketIterations growth steps.
	ErrBracketNotFound = errors.New("root bracket not found")

	// ErrRootFinding is returned when the solver fails to converge or the
	// function cannot be evaluated.
	ErrRootFinding = errors.New("root finding failed")
)

// Func is a function whose root is sought. An error aborts the search.
type Func func(y float64) (float64, error)

// Options control the convergence of Find.
type Options struct {
	// Absolute accuracy of the root.
	Tolerance float64

	// Maximum number of Brent iterations after a bracket was found.
	MaxIterations int
}

// Option modifies Options.
type Option func(o *Options)

// WithTolerance sets the absolute accuracy of the returned root.
// Default: DefaultTolerance
func WithTolerance(tol float64) Option {
	return func(o *Options) {
		o.Tolerance = tol
	}
}

// WithMaxIterations sets the maximum number of Brent iterations.
// Default: DefaultMaxIterations
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

func applyOptions(o *Options, opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// Find returns y such that f(y) is approximately zero. The search starts from
// the interval [lower, upper] which is grown until it brackets a root.
//
// Errors wrap ErrRootFinding; a failed bracket search additionally wraps
// ErrBracketNotFound.
func Find(f Func, lower, upper float64, opts ...Option) (float64, error) {
	o := Options{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
	applyOptions(&o, opts...)

	lo, hi, flo, fhi, err := bracket(f, lower, upper)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRootFinding, err)
	}

	y, err := brent(f, lo, hi, flo, fhi, o)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRootFinding, err)
	}
	return y, nil
}

// Bracket grows [lower, upper] until f changes sign between the two ends (or
// is exactly zero at one of them). In each step, the end where |f| is smaller
// is moved outwards so that the interval doubles in width.
func Bracket(f Func, lower, upper float64) (float64, float64, error) {
	lo, hi, _, _, err := bracket(f, lower, upper)
	return lo, hi, err
}

func bracket(f Func, lower, upper float64) (lo, hi, flo, fhi float64, err error) {
	if lower > upper {
		lower, upper = upper, lower
	}
	if lower == upper {
		return 0, 0, 0, 0, fmt.Errorf("%w: empty initial interval at %g", ErrBracketNotFound, lower)
	}

	for i := 0; ; i++ {
		flo, err = eval(f, lower)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		fhi, err = eval(f, upper)
		if err != nil {
			return 0, 0, 0, 0, err
		}

		if flo == 0 || fhi == 0 || straddles(flo, fhi) {
			return lower, upper, flo, fhi, nil
		}

		if i >= MaxBracketIterations {
			return 0, 0, 0, 0, fmt.Errorf("%w: no sign change in [%g, %g] after %d iterations",
				ErrBracketNotFound, lower, upper, MaxBracketIterations)
		}

		width := upper - lower
		if math.Abs(flo) <= math.Abs(fhi) {
			lower = upper - 2*width
		} else {
			upper = lower + 2*width
		}
	}
}

func straddles(a, b float64) bool {
	return (a < 0 && b > 0) || (a > 0 && b < 0)
}

func eval(f Func, y float64) (float64, error) {
	v, err := f(y)
	if err != nil {
		return 0, fmt.Errorf("evaluating function at %g: %w", y, err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("function is NaN at %g", y)
	}
	return v, nil
}

// brent runs Brent's method on a bracket [a, b] with f(a) and f(b) of
// opposite sign (or one of them zero).
func brent(f Func, a, b, fa, fb float64, o Options) (float64, error) {
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	c, fc := b, fb
	var d, e float64

	for i := 0; i < o.MaxIterations; i++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*epsilon*math.Abs(b) + 0.5*o.Tolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		// Interpolation is meaningless once an end has overflowed,
		// so fall back to bisection.
		finite := !math.IsInf(fa, 0) && !math.IsInf(fb, 0) && !math.IsInf(fc, 0)

		if finite && math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)

			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}

		var err error
		fb, err = eval(f, b)
		if err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("no convergence after %d iterations", o.MaxIterations)
}

const epsilon = 2.220446049250313e-16

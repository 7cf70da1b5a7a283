package transform

import (
	"fmt"
	"math"

	"github.com/ezachrisen/flowgate/rootfind"
)

// Function maps one input value to one output value.
type Function interface {
	Apply(x float64) (float64, error)
	String() string
}

// Linear is a*x + b.
type Linear struct {
	A, B float64
}

func (f Linear) Apply(x float64) (float64, error) {
	return f.A*x + f.B, nil
}

func (f Linear) String() string {
	return fmt.Sprintf("linear(a=%g, b=%g)", f.A, f.B)
}

// Ln is ln(x) * R / D. Inputs at or below 1 map to 0.
type Ln struct {
	R, D float64
}

func (f Ln) Apply(x float64) (float64, error) {
	if x <= 1 {
		return 0, nil
	}
	return math.Log(x) * f.R / f.D, nil
}

func (f Ln) String() string {
	return fmt.Sprintf("ln(r=%g, d=%g)", f.R, f.D)
}

// Log is log_Base(x) * R / D. Inputs at or below 1 map to 0. A zero Base
// means base 10.
type Log struct {
	R, D, Base float64
}

func (f Log) Apply(x float64) (float64, error) {
	if x <= 1 {
		return 0, nil
	}
	var l float64
	switch f.base() {
	case 10:
		l = math.Log10(x)
	case 2:
		l = math.Log2(x)
	default:
		l = math.Log(x) / math.Log(f.base())
	}
	return l * f.R / f.D, nil
}

func (f Log) base() float64 {
	if f.Base == 0 {
		return 10
	}
	return f.Base
}

func (f Log) String() string {
	return fmt.Sprintf("log(r=%g, d=%g, base=%g)", f.R, f.D, f.base())
}

// Quadratic is a*x² + b*x + c.
type Quadratic struct {
	A, B, C float64
}

func (f Quadratic) Apply(x float64) (float64, error) {
	return f.A*x*x + f.B*x + f.C, nil
}

func (f Quadratic) String() string {
	return fmt.Sprintf("quadratic(a=%g, b=%g, c=%g)", f.A, f.B, f.C)
}

// Biexponential returns y such that Forward(y) == x.
type Biexponential struct {
	A, B, C, D, F float64
}

// Forward is a*e^(b*y) - c*e^(-d*y) + f.
func (f Biexponential) Forward(y float64) float64 {
	return f.A*math.Exp(f.B*y) - f.C*math.Exp(-f.D*y) + f.F
}

func (f Biexponential) Apply(x float64) (float64, error) {
	return rootfind.Find(target(f.Forward, x), rootfind.DefaultLower, rootfind.DefaultUpper)
}

func (f Biexponential) String() string {
	return fmt.Sprintf("biexponential(a=%g, b=%g, c=%g, d=%g, f=%g)", f.A, f.B, f.C, f.D, f.F)
}

// Hyperlog returns y such that Forward(y) == x.
type Hyperlog struct {
	B, D, R float64
}

// Forward is 10^(y*d/r) + b*(d/r)*y - 1 for y >= 0, mirrored for y < 0.
func (f Hyperlog) Forward(y float64) float64 {
	k := f.D / f.R
	if y >= 0 {
		return math.Pow(10, y*k) + f.B*k*y - 1
	}
	return -math.Pow(10, -y*k) + f.B*k*y + 1
}

func (f Hyperlog) Apply(x float64) (float64, error) {
	return rootfind.Find(target(f.Forward, x), rootfind.DefaultLower, rootfind.DefaultUpper)
}

func (f Hyperlog) String() string {
	return fmt.Sprintf("hyperlog(b=%g, d=%g, r=%g)", f.B, f.D, f.R)
}

// Logicle returns y such that Forward(y) == x. Use NewLogicle to create one;
// the width parameter p is derived from W.
type Logicle struct {
	T, W, M float64
	p       float64
}

// NewLogicle solves the width parameter p from 2p*ln(p)/(p+1) = w.
func NewLogicle(t, w, m float64) (Logicle, error) {
	width := func(p float64) (float64, error) {
		return 2*p*math.Log(p)/(p+1) - w, nil
	}
	p, err := rootfind.Find(width, 1, 1024)
	if err != nil {
		return Logicle{}, fmt.Errorf("solving width parameter p for w=%g: %w", w, err)
	}
	return Logicle{T: t, W: w, M: m, p: p}, nil
}

// P is the width parameter.
func (f Logicle) P() float64 {
	return f.p
}

// Forward is the two-branch logicle function S(y; T, W, M).
func (f Logicle) Forward(y float64) float64 {
	if y >= f.W {
		return f.s(y - f.W)
	}
	return -f.s(f.W - y)
}

func (f Logicle) s(e float64) float64 {
	p2 := f.p * f.p
	return f.T * math.Exp(-(f.M - f.W)) * (math.Exp(e) - p2*math.Exp(-e/f.p) + p2 - 1)
}

func (f Logicle) Apply(x float64) (float64, error) {
	return rootfind.Find(target(f.Forward, x), f.W-10, f.W+10)
}

func (f Logicle) String() string {
	return fmt.Sprintf("logicle(t=%g, w=%g, m=%g)", f.T, f.W, f.M)
}

// SplitScale is linear below a threshold and logarithmic above it. Use
// NewSplitScale to create one.
type SplitScale struct {
	R, MaxValue, TransitionChannel float64

	a, b, d, t, log10c float64
}

// NewSplitScale derives the branch coefficients from the range r, the
// maximum value and the transition channel.
func NewSplitScale(r, maxValue, transitionChannel float64) (SplitScale, error) {
	if r <= 0 || maxValue <= 0 || transitionChannel <= 0 {
		return SplitScale{}, fmt.Errorf("r, max value and transition channel must be positive, got %g, %g, %g",
			r, maxValue, transitionChannel)
	}
	f := SplitScale{R: r, MaxValue: maxValue, TransitionChannel: transitionChannel}
	f.b = transitionChannel / 2
	f.d = 2 * math.Log10E * r / transitionChannel
	f.t = maxValue / math.Pow(10, f.d)
	f.a = transitionChannel / (2 * f.t)
	f.log10c = transitionChannel*f.d/r - math.Log10(f.t)
	return f, nil
}

// Threshold is the input value where the logarithmic branch begins.
func (f SplitScale) Threshold() float64 {
	return f.t
}

func (f SplitScale) Apply(x float64) (float64, error) {
	if x < f.t {
		return f.a*x + f.b, nil
	}
	return (math.Log10(x) + f.log10c) * f.R / f.d, nil
}

func (f SplitScale) String() string {
	return fmt.Sprintf("splitscale(r=%g, max=%g, transition=%g)", f.R, f.MaxValue, f.TransitionChannel)
}

func target(forward func(float64) float64, x float64) rootfind.Func {
	return func(y float64) (float64, error) {
		return forward(y) - x, nil
	}
}

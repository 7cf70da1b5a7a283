package transform

import (
	"fmt"
	"strings"

	"github.com/ezachrisen/flowgate"
)

// Kind identifies a transformation family in a Description.
type Kind string

const (
	KindLinear        Kind = "linear"
	KindLn            Kind = "ln"
	KindLog           Kind = "log"
	KindQuadratic     Kind = "quadratic"
	KindBiexponential Kind = "biexponential"
	KindHyperlog      Kind = "hyperlog"
	KindLogicle       Kind = "logicle"
	KindSplitScale    Kind = "splitscale"
	KindUniversal     Kind = "universal"
)

// Description is a decoded transformation definition. Which constants are
// read depends on Kind:
//
//	linear         a, b
//	ln             r, d
//	log            r, d, base (default 10)
//	quadratic      a, b, c
//	biexponential  a, b, c, d, f
//	hyperlog       b, d, r
//	logicle        t, w, m
//	splitscale     r, max_value, transition_channel
//	universal      expr, inputs
//
// All kinds except universal read one input, Parameter.
type Description struct {
	Name      string `yaml:"name"`
	Kind      Kind   `yaml:"kind"`
	Parameter string `yaml:"parameter,omitempty"`

	A    float64 `yaml:"a,omitempty"`
	B    float64 `yaml:"b,omitempty"`
	C    float64 `yaml:"c,omitempty"`
	D    float64 `yaml:"d,omitempty"`
	F    float64 `yaml:"f,omitempty"`
	R    float64 `yaml:"r,omitempty"`
	T    float64 `yaml:"t,omitempty"`
	W    float64 `yaml:"w,omitempty"`
	M    float64 `yaml:"m,omitempty"`
	Base float64 `yaml:"base,omitempty"`

	MaxValue          float64 `yaml:"max_value,omitempty"`
	TransitionChannel float64 `yaml:"transition_channel,omitempty"`

	Expr   string            `yaml:"expr,omitempty"`
	Inputs map[string]string `yaml:"inputs,omitempty"`
}

// New builds the transformation described by d.
func New(d Description) (Transformation, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidTransformation)
	}

	in := flowgate.Ref(d.Parameter)
	if d.Kind != KindUniversal && d.Parameter == "" {
		return nil, invalid(d.Name, "missing input parameter")
	}

	switch d.Kind {
	case KindLinear:
		return NewLinear(d.Name, in, d.A, d.B), nil
	case KindLn:
		return single(NewLn(d.Name, in, d.R, d.D))
	case KindLog:
		return single(NewLog(d.Name, in, d.R, d.D, d.Base))
	case KindQuadratic:
		return NewQuadratic(d.Name, in, d.A, d.B, d.C), nil
	case KindBiexponential:
		return NewBiexponential(d.Name, in, d.A, d.B, d.C, d.D, d.F), nil
	case KindHyperlog:
		return single(NewHyperlog(d.Name, in, d.B, d.D, d.R))
	case KindLogicle:
		return single(NewLogicleTransformation(d.Name, in, d.T, d.W, d.M))
	case KindSplitScale:
		return single(NewSplitScaleTransformation(d.Name, in, d.R, d.MaxValue, d.TransitionChannel))
	case KindUniversal:
		inputs := make(map[string]flowgate.Ref, len(d.Inputs))
		for v, p := range d.Inputs {
			inputs[v] = flowgate.Ref(p)
		}
		u, err := NewUniversal(d.Name, d.Expr, inputs)
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, invalid(d.Name, "unknown kind %q", d.Kind)
	}
}

// single keeps a nil *Single out of the Transformation interface.
func single(s *Single, err error) (Transformation, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewCollectionFromDescriptions builds every transformation and collects
// them. The first failure is returned.
func NewCollectionFromDescriptions(ds []Description) (*Collection, error) {
	ts := make([]Transformation, 0, len(ds))
	for _, d := range ds {
		t, err := New(d)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return NewCollection(ts...)
}

package transform

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ezachrisen/flowgate"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Universal computes a parameter from a CEL expression over several inputs.
// Each input parameter is bound to a CEL variable of type double; the
// expression must evaluate to a double.
//
// Besides CEL's arithmetic operators, the expression can call
// exp, ln, log10, sqrt, abs (one argument) and pow, log (two arguments;
// log(x, b) is the base-b logarithm).
//
//	u, err := NewUniversal("ratio", "fsc / (ssc + 1.0)", map[string]flowgate.Ref{
//		"fsc": "FSC-A",
//		"ssc": "SSC-A",
//	})
type Universal struct {
	ref    flowgate.Ref
	expr   string
	vars   []string
	inputs map[string]flowgate.Ref
	prg    celgo.Program
}

// NewUniversal compiles expr. inputs maps CEL variable names to the
// parameters they are bound to.
func NewUniversal(name string, expr string, inputs map[string]flowgate.Ref) (*Universal, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, invalid(name, "missing expression")
	}

	u := &Universal{
		ref:    flowgate.Ref(name),
		expr:   expr,
		inputs: make(map[string]flowgate.Ref, len(inputs)),
	}
	for v, r := range inputs {
		u.vars = append(u.vars, v)
		u.inputs[v] = r
	}
	slices.Sort(u.vars)

	opts := mathFunctions()
	for _, v := range u.vars {
		opts = append(opts, celgo.Variable(v, celgo.DoubleType))
	}

	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: creating CEL environment: %w", ErrInvalidTransformation, name, err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %s: compiling %q: %w", ErrInvalidTransformation, name, expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(celgo.DoubleType) {
		return nil, invalid(name, "expression %q returns %s, want double", expr, ast.OutputType())
	}

	u.prg, err = env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTransformation, name, err)
	}
	return u, nil
}

func (u *Universal) Ref() flowgate.Ref {
	return u.ref
}

// Expr is the CEL expression.
func (u *Universal) Expr() string {
	return u.expr
}

// Dependencies returns the input parameters, ordered by variable name.
func (u *Universal) Dependencies() []flowgate.Ref {
	deps := make([]flowgate.Ref, 0, len(u.vars))
	for _, v := range u.vars {
		if !slices.Contains(deps, u.inputs[v]) {
			deps = append(deps, u.inputs[v])
		}
	}
	return deps
}

// Scale resolves every input and evaluates the expression.
func (u *Universal) Scale(ev flowgate.Event, r flowgate.Retriever) (float64, error) {
	data := make(map[string]any, len(u.vars))
	for _, v := range u.vars {
		x, err := r.Scale(u.inputs[v], ev)
		if err != nil {
			return 0, err
		}
		data[v] = x
	}

	out, _, err := u.prg.Eval(data)
	if err != nil {
		return 0, &Error{Transformation: u.ref, Err: err}
	}
	y, ok := out.Value().(float64)
	if !ok {
		return 0, &Error{Transformation: u.ref, Err: fmt.Errorf("result %v (%T) is not a float64", out.Value(), out.Value())}
	}
	return y, nil
}

func (u *Universal) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s = %s", u.ref, u.expr))
	for i, v := range u.vars {
		if i == 0 {
			s.WriteString(" where ")
		} else {
			s.WriteString(", ")
		}
		s.WriteString(fmt.Sprintf("%s=%s", v, u.inputs[v]))
	}
	return s.String()
}

func mathFunctions() []celgo.EnvOption {
	return []celgo.EnvOption{
		unaryFunction("exp", math.Exp),
		unaryFunction("ln", math.Log),
		unaryFunction("log10", math.Log10),
		unaryFunction("sqrt", math.Sqrt),
		unaryFunction("abs", math.Abs),
		binaryFunction("pow", math.Pow),
		binaryFunction("log", func(x, b float64) float64 {
			return math.Log(x) / math.Log(b)
		}),
	}
}

// unaryFunction declares a CEL function double -> double.
func unaryFunction(name string, fn func(float64) float64) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(name+"_double",
			[]*celgo.Type{celgo.DoubleType},
			celgo.DoubleType,
			celgo.UnaryBinding(func(v ref.Val) ref.Val {
				x, ok := v.(types.Double)
				if !ok {
					return types.NewErr("%s: unexpected argument type %s", name, v.Type())
				}
				return types.Double(fn(float64(x)))
			})))
}

// binaryFunction declares a CEL function (double, double) -> double.
func binaryFunction(name string, fn func(float64, float64) float64) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(name+"_double_double",
			[]*celgo.Type{celgo.DoubleType, celgo.DoubleType},
			celgo.DoubleType,
			celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				x, ok := lhs.(types.Double)
				if !ok {
					return types.NewErr("%s: unexpected argument type %s", name, lhs.Type())
				}
				y, ok := rhs.(types.Double)
				if !ok {
					return types.NewErr("%s: unexpected argument type %s", name, rhs.Type())
				}
				return types.Double(fn(float64(x), float64(y)))
			})))
}

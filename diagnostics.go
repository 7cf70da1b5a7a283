package flowgate

import (
	"fmt"
	"strings"

	"github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
)

// Explanation records how a gate classified one event: the parameter
// values it read and, for boolean gates, how each operand classified the
// event.
type Explanation struct {
	Gate   Gate
	Event  Event
	Inside bool
	Err    error

	// Values read by the gate, in the order they were read.
	Values []ParameterValue

	// Operands explains each operand of a boolean gate.
	Operands []*Explanation
}

// ParameterValue is a resolved parameter.
type ParameterValue struct {
	Ref   Ref
	Value float64
	Err   error
}

// Explain classifies ev with g and records what the gate saw. Operands of
// boolean gates are explained separately; a boolean gate's verdict is
// still computed by the gate itself.
func Explain(g Gate, ev Event, r Retriever) *Explanation {
	rec := &recorder{r: r}
	x := &Explanation{
		Gate:  g,
		Event: ev,
	}
	x.Inside, x.Err = g.Inside(ev, rec)
	x.Values = rec.values

	if _, ok := g.(*Boolean); ok {
		for _, o := range g.Dependencies() {
			if o != nil {
				x.Operands = append(x.Operands, Explain(o, ev, r))
			}
		}
		// operands resolve the parameters, not the boolean gate
		x.Values = nil
	}
	return x
}

type recorder struct {
	r      Retriever
	values []ParameterValue
}

func (rec *recorder) Scale(ref Ref, ev Event) (float64, error) {
	v, err := rec.r.Scale(ref, ev)
	rec.values = append(rec.values, ParameterValue{Ref: ref, Value: v, Err: err})
	return v, err
}

// String renders the explanation as a boxed report.
func (x *Explanation) String() string {
	Box := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	s := strings.Builder{}
	s.WriteString("Gate:\n")
	s.WriteString("-----\n")
	s.WriteString(fmt.Sprint(x.Gate))
	s.WriteString("\n\n")

	s.WriteString("Event:\n")
	s.WriteString("------\n")
	s.WriteString(x.Event.String())
	s.WriteString("\n\n")

	s.WriteString("Verdict:\n")
	s.WriteString("--------\n")
	s.WriteString(x.verdict())
	s.WriteString("\n")

	if len(x.Values) > 0 {
		s.WriteString("\nParameters:\n")
		s.WriteString("-----------\n")
		s.WriteString(valueTable(x.Values).String())
		s.WriteString("\n")
	}

	if len(x.Operands) > 0 {
		s.WriteString("\nOperands:\n")
		s.WriteString("---------\n")
		s.WriteString(x.operandTable().String())
		s.WriteString("\n")
	}
	return Box.String("GATE EVALUATION DIAGNOSTIC REPORT", s.String())
}

func (x *Explanation) verdict() string {
	switch {
	case x.Err != nil:
		return "ERROR: " + x.Err.Error()
	case x.Inside:
		return "INSIDE"
	default:
		return "OUTSIDE"
	}
}

func valueTable(values []ParameterValue) *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Parameter"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}
	for _, v := range values {
		val := fmt.Sprintf("%g", v.Value)
		if v.Err != nil {
			val = v.Err.Error()
		}
		table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
			{Text: string(v.Ref)},
			{Align: simpletable.AlignRight, Text: val},
		})
	}
	table.SetStyle(simpletable.StyleUnicode)
	return table
}

// operandTable flattens nested operands, indenting each level.
func (x *Explanation) operandTable() *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Gate"},
			{Align: simpletable.AlignCenter, Text: "Kind"},
			{Align: simpletable.AlignCenter, Text: "Verdict"},
			{Align: simpletable.AlignCenter, Text: "Parameters"},
		},
	}

	var add func(o *Explanation, depth int)
	add = func(o *Explanation, depth int) {
		vals := make([]string, len(o.Values))
		for i, v := range o.Values {
			vals[i] = fmt.Sprintf("%s=%g", v.Ref, v.Value)
		}
		table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
			{Text: strings.Repeat("  ", depth) + o.Gate.ID()},
			{Text: Kind(o.Gate)},
			{Text: o.verdict()},
			{Text: strings.Join(vals, " ")},
		})
		for _, c := range o.Operands {
			add(c, depth+1)
		}
	}
	for _, o := range x.Operands {
		add(o, 0)
	}

	table.SetStyle(simpletable.StyleUnicode)
	return table
}

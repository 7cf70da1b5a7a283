package flowgate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Result of analyzing a population.
type Result struct {
	// RunID identifies the analysis in logs.
	RunID uuid.UUID

	// The analyzed population, with the resolver used for the analysis.
	Population *Population

	// Subpopulations by gate ID, for gates that evaluated without error.
	Subpopulations map[string]*Population

	// Errors by gate ID, for gates that failed.
	Errors map[string]error

	// Statistics by gate ID, one entry per requested parameter, in the
	// order requested. Only set if the analyzer was asked for statistics.
	Statistics map[string][]Statistics

	// StatisticsErrors by gate ID, for gates whose subpopulation evaluated
	// but whose statistics could not be computed. The subpopulation is
	// kept.
	StatisticsErrors map[string]error

	// How long the analysis took.
	Duration time.Duration

	// gate IDs in evaluation order
	gates []string
}

// HasErrors reports whether any gate or any gate's statistics failed.
func (u *Result) HasErrors() bool {
	return len(u.Errors) > 0 || len(u.StatisticsErrors) > 0
}

// Subpopulation returns the events inside the gate.
func (u *Result) Subpopulation(id string) (*Population, bool) {
	p, ok := u.Subpopulations[id]
	return p, ok
}

// Count is the number of events inside the gate, or 0 if the gate failed.
func (u *Result) Count(id string) int {
	return u.Subpopulations[id].Len()
}

// GateIDs returns the analyzed gates in order.
func (u *Result) GateIDs() []string {
	out := make([]string, len(u.gates))
	copy(out, u.gates)
	return out
}

// computeStatistics fills Statistics and StatisticsErrors. A gate whose
// statistics fail gets no Statistics entry.
func (u *Result) computeStatistics(refs []Ref, r Retriever) {
	u.Statistics = make(map[string][]Statistics, len(u.Subpopulations))
	u.StatisticsErrors = map[string]error{}
gates:
	for _, id := range u.gates {
		sub, ok := u.Subpopulations[id]
		if !ok {
			continue
		}
		stats := make([]Statistics, 0, len(refs))
		for _, ref := range refs {
			s, err := ComputeStatistics(sub, ref, r)
			if err != nil {
				u.StatisticsErrors[id] = fmt.Errorf("parameter %s: %w", ref, err)
				continue gates
			}
			stats = append(stats, s)
		}
		u.Statistics[id] = stats
	}
}

// Results are the results of analyzing several populations.
type Results []*Result

// HasErrors reports whether any result has errors.
func (rs Results) HasErrors() bool {
	for _, r := range rs {
		if r.HasErrors() {
			return true
		}
	}
	return false
}

func (rs Results) String() string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return b.String()
}

// String summarizes the analysis: one row per gate with the number of
// events inside it.
func (u *Result) String() string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("\nANALYSIS %s\n", u.RunID))
	tw.AppendHeader(table.Row{"\nGate", "\nEvents", "% of\nParent", "\nError"})

	for _, id := range u.gates {
		if err, ok := u.Errors[id]; ok {
			tw.AppendRow(table.Row{id, "", "", err.Error()})
			continue
		}
		sub := u.Subpopulations[id]
		var msg string
		if err, ok := u.StatisticsErrors[id]; ok {
			msg = err.Error()
		}
		tw.AppendRow(table.Row{
			id,
			humanize.Comma(int64(sub.Len())),
			fmt.Sprintf("%.2f", sub.PercentOfParent()),
			msg,
		})
	}
	tw.AppendFooter(table.Row{"Total", humanize.Comma(int64(u.Population.Len())), "", fmt.Sprintf("%d failed", len(u.Errors))})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 60},
	})
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

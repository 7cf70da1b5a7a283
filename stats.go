package flowgate

import (
	"fmt"
	"math"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"
)

// Statistics summarize one parameter over a population.
type Statistics struct {
	Parameter Ref

	// N is the number of events.
	N int

	// PercentOfParent is the population's share of its parent, in percent.
	PercentOfParent float64

	Min, Max float64
	Mean     float64

	// GeometricMean is NaN if any value is not positive.
	GeometricMean float64

	// Quartiles use the empirical distribution: the smallest value whose
	// cumulative share reaches 25, 50 and 75 percent.
	Q1, Median, Q3 float64

	// StdDev is the unbiased sample standard deviation.
	StdDev float64

	// CV is the coefficient of variation, in percent.
	CV float64

	Skewness float64

	// Kurtosis is the bias-corrected sample excess kurtosis.
	Kurtosis float64
}

// ComputeStatistics resolves ref for every event of pop and summarizes the
// values. An empty population yields NaN for every value statistic.
func ComputeStatistics(pop *Population, ref Ref, r Retriever) (Statistics, error) {
	if r == nil {
		if pop.Resolver() == nil {
			return Statistics{}, fmt.Errorf("statistics for %s: population has no resolver", ref)
		}
		r = pop.Resolver()
	}
	s := Statistics{
		Parameter:       ref,
		N:               pop.Len(),
		PercentOfParent: pop.PercentOfParent(),
	}

	x := make([]float64, pop.Len())
	for i := range x {
		ev := pop.Event(i)
		v, err := r.Scale(ref, ev)
		if err != nil {
			return Statistics{}, &EventError{EventID: ev.ID(), Err: err}
		}
		x[i] = v
	}

	if len(x) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.GeometricMean = nan, nan, nan, nan
		s.Q1, s.Median, s.Q3 = nan, nan, nan
		s.StdDev, s.CV, s.Skewness, s.Kurtosis = nan, nan, nan, nan
		return s, nil
	}

	slices.Sort(x)
	s.Min, s.Max = x[0], x[len(x)-1]
	s.Mean = stat.Mean(x, nil)
	s.GeometricMean = math.NaN()
	if s.Min > 0 {
		s.GeometricMean = stat.GeometricMean(x, nil)
	}
	s.Q1 = stat.Quantile(0.25, stat.Empirical, x, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	s.Q3 = stat.Quantile(0.75, stat.Empirical, x, nil)
	s.StdDev = stat.StdDev(x, nil)
	s.CV = 100 * s.StdDev / s.Mean
	s.Skewness = stat.Skew(x, nil)
	s.Kurtosis = stat.ExKurtosis(x, nil)
	return s, nil
}

// StatisticsTable renders statistics, one row per entry.
func StatisticsTable(stats []Statistics) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Parameter", "N", "%", "Min", "Q1", "Median", "Q3", "Max", "Mean", "GeoMean", "SD", "CV%", "Skew", "Kurt"})
	for _, s := range stats {
		tw.AppendRow(table.Row{
			s.Parameter, s.N, short(s.PercentOfParent),
			short(s.Min), short(s.Q1), short(s.Median), short(s.Q3), short(s.Max),
			short(s.Mean), short(s.GeometricMean), short(s.StdDev), short(s.CV), short(s.Skewness), short(s.Kurtosis),
		})
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func short(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

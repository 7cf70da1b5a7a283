package flowgate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer applies every gate of a GateSet to a population.
//
// The gate set can be replaced while analyses are running (SwapGates); an
// analysis uses the gate set that was current when it started.
type Analyzer struct {
	gates atomic.Pointer[GateSet]
	opts  AnalyzerOptions
}

// AnalyzerOptions determine how an analysis is run.
type AnalyzerOptions struct {
	// Collections are layered over the population's resolver, for
	// example compensation and transformations.
	Collections []Collection

	// Parallel is the number of gates evaluated at the same time.
	// Values below 2 evaluate gates one after the other.
	Parallel int

	// Logger receives progress and per-gate failures.
	Logger *zap.Logger

	// Metrics, if set, are updated after every gate.
	Metrics *Metrics

	// Statistics lists the parameters summarized for every subpopulation.
	Statistics []Ref
}

// AnalyzerOption is a functional option that sets AnalyzerOptions.
type AnalyzerOption func(o *AnalyzerOptions)

// WithCollections adds providers on top of the population's resolver.
func WithCollections(cs ...Collection) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Collections = append(o.Collections, cs...)
	}
}

// WithParallel evaluates up to n gates at a time.
// Default: 1
func WithParallel(n int) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Parallel = n
	}
}

// WithLogger sets the logger.
// Default: a no-op logger
func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Logger = l
	}
}

// WithMetrics updates m during analyses.
func WithMetrics(m *Metrics) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Metrics = m
	}
}

// WithStatistics computes statistics on the parameters for every
// subpopulation.
func WithStatistics(refs ...Ref) AnalyzerOption {
	return func(o *AnalyzerOptions) {
		o.Statistics = append(o.Statistics, refs...)
	}
}

func applyAnalyzerOptions(o *AnalyzerOptions, opts ...AnalyzerOption) {
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Parallel < 1 {
		o.Parallel = 1
	}
}

// NewAnalyzer validates gs and creates an analyzer for it.
func NewAnalyzer(gs *GateSet, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{}
	applyAnalyzerOptions(&a.opts, opts...)
	if err := a.SwapGates(gs); err != nil {
		return nil, err
	}
	return a, nil
}

// Gates returns the current gate set.
func (a *Analyzer) Gates() *GateSet {
	return a.gates.Load()
}

// SwapGates validates gs and makes it the gate set of future analyses.
func (a *Analyzer) SwapGates(gs *GateSet) error {
	if gs == nil {
		return errors.New("nil gate set")
	}
	if err := gs.Validate(); err != nil {
		return err
	}
	a.gates.Store(gs)
	a.opts.Logger.Debug("gate set installed", zap.Int("gates", gs.Len()))
	return nil
}

// Options returns the analyzer's options.
func (a *Analyzer) Options() AnalyzerOptions {
	return a.opts
}

// Analyze applies every gate to pop.
//
// Resolver construction errors (duplicate or circular parameters) and
// context cancellation are returned as errors. A gate that fails on some
// event does not stop the analysis: its error is recorded in
// Result.Errors and the other gates proceed. Likewise a statistic that
// cannot be computed for a gate is recorded in Result.StatisticsErrors and
// the gate's subpopulation is kept.
func (a *Analyzer) Analyze(ctx context.Context, pop *Population) (*Result, error) {
	if pop == nil {
		return nil, errors.New("nil population")
	}
	start := time.Now()
	gs := a.gates.Load()
	log := a.opts.Logger

	r, err := Extend(pop.Resolver(), a.opts.Collections...)
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}
	base := pop.WithResolver(r)

	res := &Result{
		RunID:          uuid.New(),
		Population:     base,
		Subpopulations: map[string]*Population{},
		Errors:         map[string]error{},
	}
	log = log.With(zap.String("run_id", res.RunID.String()))
	log.Info("analysis started", zap.Int("events", base.Len()), zap.Int("gates", gs.Len()))

	gates := gs.Gates()
	subs := make([]*Population, len(gates))
	errs := make([]error, len(gates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Parallel)
	for i, g := range gates {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			subs[i], errs[i] = Gated(g, base, r)
			if errs[i] != nil {
				log.Warn("gate evaluation failed", zap.String("gate", g.ID()), zap.Error(errs[i]))
				a.opts.Metrics.observeGate(g.ID(), 0, 0, errs[i])
				return nil
			}
			log.Debug("gate evaluated", zap.String("gate", g.ID()), zap.Int("inside", subs[i].Len()))
			a.opts.Metrics.observeGate(g.ID(), base.Len(), subs[i].Len(), nil)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, g := range gates {
		res.gates = append(res.gates, g.ID())
		if errs[i] != nil {
			res.Errors[g.ID()] = errs[i]
			continue
		}
		res.Subpopulations[g.ID()] = subs[i]
	}

	if len(a.opts.Statistics) > 0 {
		res.computeStatistics(a.opts.Statistics, r)
		for id, err := range res.StatisticsErrors {
			log.Warn("statistics failed", zap.String("gate", id), zap.Error(err))
		}
	}

	res.Duration = time.Since(start)
	if a.opts.Metrics != nil {
		a.opts.Metrics.AnalysisDuration.Observe(res.Duration.Seconds())
	}
	log.Info("analysis finished",
		zap.Duration("duration", res.Duration),
		zap.Int("failed_gates", len(res.Errors)),
		zap.Int("failed_statistics", len(res.StatisticsErrors)))
	return res, nil
}

// AnalyzeAll analyzes each population in turn with the same gate set. The
// results are in the order of pops. An error that would make Analyze fail
// stops the run; gate and statistics errors are recorded per result.
func (a *Analyzer) AnalyzeAll(ctx context.Context, pops ...*Population) (Results, error) {
	out := make(Results, 0, len(pops))
	for i, pop := range pops {
		res, err := a.Analyze(ctx, pop)
		if err != nil {
			return nil, fmt.Errorf("population %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

package flowgate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the analyzer's Prometheus instruments.
type Metrics struct {
	EventsEvaluated  *prometheus.CounterVec
	EventsInside     *prometheus.CounterVec
	GateErrors       *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// creates unregistered instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEvaluated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgate_events_evaluated_total",
			Help: "Events classified, by gate",
		}, []string{"gate"}),
		EventsInside: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgate_events_inside_total",
			Help: "Events classified inside, by gate",
		}, []string{"gate"}),
		GateErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgate_gate_errors_total",
			Help: "Gates that failed to evaluate, by gate",
		}, []string{"gate"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowgate_analysis_duration_seconds",
			Help:    "Duration of a full analysis in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
	}
}

func (m *Metrics) observeGate(id string, evaluated, inside int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.GateErrors.WithLabelValues(id).Inc()
		return
	}
	m.EventsEvaluated.WithLabelValues(id).Add(float64(evaluated))
	m.EventsInside.WithLabelValues(id).Add(float64(inside))
}

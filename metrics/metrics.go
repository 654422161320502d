// Package metrics defines the Prometheus collectors of the GP engine and an
// HTTP server to scrape them during long runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of the numeric core. A nil *Metrics records
// nothing.
type Metrics struct {
	Factorizations       *prometheus.CounterVec
	JitterRetries        prometheus.Counter
	FactorizationSeconds prometheus.Histogram
	ProblemSize          prometheus.Histogram
	CandidatesScored     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Factorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gp_factorizations_total",
				Help: "Cholesky factorizations by outcome (ok, jittered, failed).",
			},
			[]string{"outcome"},
		),
		JitterRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gp_jitter_retries_total",
				Help: "Factorization attempts made with diagonal jitter.",
			},
		),
		FactorizationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gp_factorization_seconds",
				Help:    "Wall time of a factorization including jitter retries.",
				Buckets: prometheus.ExponentialBuckets(1e-5, 4, 12),
			},
		),
		ProblemSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gp_problem_size",
				Help:    "Order of the factorized covariance matrices.",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2000, 4000, 8000},
			},
		),
		CandidatesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gp_candidates_scored_total",
				Help: "Hyperparameter candidates scored by outcome (ok, failed).",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.Factorizations,
		m.JitterRetries,
		m.FactorizationSeconds,
		m.ProblemSize,
		m.CandidatesScored,
	)
	return m
}

// ObserveFactorization records one call of the factorization policy. attempts
// counts the unjittered attempt too.
func (m *Metrics) ObserveFactorization(n, attempts int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
	case attempts > 1:
		outcome = "jittered"
	}
	m.Factorizations.WithLabelValues(outcome).Inc()
	if attempts > 1 {
		m.JitterRetries.Add(float64(attempts - 1))
	}
	m.FactorizationSeconds.Observe(elapsed.Seconds())
	m.ProblemSize.Observe(float64(n))
}

func (m *Metrics) ObserveCandidate(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.CandidatesScored.WithLabelValues(outcome).Inc()
}

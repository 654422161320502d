// Package gp computes GP regression posteriors and marginal likelihoods.
//
// Each call is a pure computation over the current contents of an
// observation set: the Gram matrix is built, K + σ²I is factorized once
// (O(n³)) and every quantity is obtained from triangular solves against the
// factor. The inverse of K + σ²I is never formed.
package gp

import (
	"errors"
	"math"
	"time"

	"github.com/go-logr/logr"

	"github.com/schluedj/Bayesian-NonParametrics/config"
	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gram"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/linalg"
	"github.com/schluedj/Bayesian-NonParametrics/logging"
	"github.com/schluedj/Bayesian-NonParametrics/metrics"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

// MeanFunc is the prior mean of the process.
type MeanFunc func(x []float64) float64

// DefaultMaxPoints bounds the training set size of a default engine.
const DefaultMaxPoints = 4096

type Engine struct {
	jitter    linalg.JitterPolicy
	maxPoints int
	workers   int
	mean      MeanFunc
	log       logr.Logger
	metrics   *metrics.Metrics
}

type Option func(*Engine)

func WithJitter(p linalg.JitterPolicy) Option {
	return func(e *Engine) { e.jitter = p }
}

// WithMaxPoints bounds the number of training points; 0 disables the bound.
func WithMaxPoints(n int) Option {
	return func(e *Engine) { e.maxPoints = n }
}

// WithWorkers spreads Gram matrix rows over n goroutines.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMeanFunc replaces the zero prior mean.
func WithMeanFunc(m MeanFunc) Option {
	return func(e *Engine) { e.mean = m }
}

func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		jitter:    linalg.DefaultJitter(),
		maxPoints: DefaultMaxPoints,
		workers:   1,
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// FromConfig builds an engine from the engine section of the configuration.
// Further options are applied after the configured values.
func FromConfig(cfg config.EngineConfig, opts ...Option) *Engine {
	base := []Option{
		WithJitter(linalg.JitterPolicy{
			Relative:   cfg.Jitter.Relative,
			MaxRetries: cfg.Jitter.MaxRetries,
		}),
		WithMaxPoints(cfg.MaxPoints),
		WithWorkers(cfg.Workers),
	}
	return New(append(base, opts...)...)
}

var defaultEngine = New()

// Prior returns the prior predictive distribution at query.
func Prior(k kern.Bound, query [][]float64) (*Posterior, error) {
	return defaultEngine.Prior(k, query)
}

// Predict returns the posterior predictive distribution at query given the
// observations and the noise variance.
func Predict(k kern.Bound, set *obs.Set, query [][]float64, noise float64) (*Posterior, error) {
	return defaultEngine.Predict(k, set, query, noise)
}

// LogMarginalLikelihood scores theta and noise on the observations.
func LogMarginalLikelihood(k kern.Kernel, set *obs.Set, theta []float64, noise float64) (float64, error) {
	return defaultEngine.LogMarginalLikelihood(k, set, theta, noise)
}

func (e *Engine) Logger() logr.Logger {
	return e.log
}

func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

func (e *Engine) Jitter() linalg.JitterPolicy {
	return e.jitter
}

func (e *Engine) meanAt(x []float64) float64 {
	if e.mean == nil {
		return 0
	}
	return e.mean(x)
}

// CheckSize fails with errs.ErrProblemTooLarge when n training points exceed
// the engine's bound.
func (e *Engine) CheckSize(n int) error {
	if e.maxPoints > 0 && n > e.maxPoints {
		return errs.Newf(errs.ErrProblemTooLarge,
			"%d points exceed the limit of %d (factorization ~%.3g flops)",
			n, e.maxPoints, linalg.FactorCost(n))
	}
	return nil
}

// Factorize builds K(xs, xs) + noise·I and factorizes it with the engine's
// jitter policy.
func (e *Engine) Factorize(k kern.Bound, xs [][]float64, noise float64) (*linalg.Factor, error) {
	if err := CheckNoise(noise); err != nil {
		return nil, err
	}
	n := len(xs)
	if err := e.CheckSize(n); err != nil {
		return nil, err
	}
	e.log.V(logging.TRACE).Info("factorizing", "n", n, "flops", linalg.FactorCost(n))
	kxx, err := gram.SymParallel(k.Kernel, k.Theta, xs, e.workers)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		utils.AddDiag(kxx, noise)
	}

	start := time.Now()
	f, err := linalg.Factorize(kxx, e.jitter)
	elapsed := time.Since(start)
	if err != nil {
		attempts := 1
		var numErr *errs.NumericError
		if errors.As(err, &numErr) {
			attempts = numErr.Attempts
		}
		e.metrics.ObserveFactorization(n, attempts, elapsed, err)
		e.log.V(logging.DEBUG).Info("factorization failed", "n", n, "error", err.Error())
		return nil, err
	}
	e.metrics.ObserveFactorization(n, f.Attempts(), elapsed, nil)
	if f.Attempts() > 1 {
		e.log.V(logging.DEBUG).Info("factorization needed jitter",
			"n", n, "jitter", f.Jitter(), "attempts", f.Attempts())
	}
	return f, nil
}

// CheckNoise rejects a noise variance that is negative or not finite.
func CheckNoise(noise float64) error {
	if math.IsNaN(noise) || math.IsInf(noise, 0) || noise < 0 {
		return errs.Newf(errs.ErrInvalidHyperparameters,
			"noise variance must be finite and >= 0, got %v", noise)
	}
	return nil
}

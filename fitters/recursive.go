// Package fitters conditions a Gaussian process on observations that arrive
// one at a time.
package fitters

import (
	"sync"

	"github.com/schluedj/Bayesian-NonParametrics/gp"
	"github.com/schluedj/Bayesian-NonParametrics/gram"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/linalg"
	"github.com/schluedj/Bayesian-NonParametrics/logging"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
)

// Recursive keeps the Cholesky factor of K + σ²I for a growing training set.
// Each new sample borders the factor in O(n²) instead of refactorizing in
// O(n³). Predictions equal those of gp.Engine.Predict on the same set, up to
// rounding.
type Recursive struct {
	mu     sync.Mutex
	engine *gp.Engine
	kernel kern.Bound
	noise  float64
	set    *obs.Set

	factor  *linalg.Factor // nil when it must be rebuilt
	version uint64         // set version the factor describes
	cond    *gp.Conditioned
}

func NewRecursive(engine *gp.Engine, k kern.Bound, noise float64) (*Recursive, error) {
	if err := k.Kernel.Validate(k.Theta); err != nil {
		return nil, err
	}
	if err := gp.CheckNoise(noise); err != nil {
		return nil, err
	}
	set := obs.NewSet()
	return &Recursive{
		engine:  engine,
		kernel:  k,
		noise:   noise,
		set:     set,
		factor:  linalg.Empty(),
		version: set.Version(),
	}, nil
}

func (r *Recursive) AddSample(x []float64, y float64) error {
	return r.AddBatch([][]float64{x}, []float64{y})
}

// AddBatch appends the observations, all or none, and borders the factor
// with each of them in order. A pivot that is not positive, or a factor that
// needed jitter, leaves the factor to be rebuilt with the engine's jitter
// policy at the next query.
func (r *Recursive) AddBatch(xs [][]float64, ys []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.engine.CheckSize(r.set.Len() + len(xs)); err != nil {
		return err
	}
	version := r.set.Version()
	if err := r.set.AppendBatch(xs, ys); err != nil {
		return err
	}
	if len(xs) == 0 {
		return nil
	}
	r.cond = nil
	all, _, after := r.set.Snapshot()
	if r.factor == nil || r.version != version || after != version+1 {
		r.factor = nil
		return nil
	}
	// A jittered factor carries a shift computed from the old trace; a fresh
	// factorization of the grown set would pick a different one.
	if r.factor.Jitter() != 0 {
		r.factor = nil
		return nil
	}

	log := r.engine.Logger()
	next := r.factor.Clone()
	n := len(all) - len(xs)
	for i := n; i < len(all); i++ {
		x := all[i]
		col, err := gram.Column(r.kernel.Kernel, r.kernel.Theta, all[:i], x)
		if err != nil {
			r.factor = nil
			return err
		}
		diag := r.kernel.Kernel.Eval(x, x, r.kernel.Theta) + r.noise
		if err := next.Extend(col, diag); err != nil {
			log.V(logging.DEBUG).Info("incremental update failed, refactorizing on next query",
				"n", i+1, "error", err.Error())
			r.factor = nil
			return nil
		}
	}
	log.V(logging.TRACE).Info("factor extended", "n", next.Size(), "added", len(xs))
	r.factor = next
	r.version = after
	return nil
}

// conditioned returns the factorized state for the current observations,
// refactorizing from scratch when the incremental factor is missing or out
// of date.
func (r *Recursive) conditioned() (*gp.Conditioned, error) {
	xs, ys, version := r.set.Snapshot()
	if r.cond != nil && r.version == version {
		return r.cond, nil
	}
	if r.factor == nil || r.version != version {
		f, err := r.engine.Factorize(r.kernel, xs, r.noise)
		if err != nil {
			return nil, err
		}
		r.factor, r.version = f, version
	}
	c, err := r.engine.FromFactor(r.kernel, xs, ys, r.noise, r.factor)
	if err != nil {
		return nil, err
	}
	r.cond = c
	return c, nil
}

// Predict returns the posterior at query given every sample added so far.
func (r *Recursive) Predict(query [][]float64) (*gp.Posterior, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.conditioned()
	if err != nil {
		return nil, err
	}
	return c.Predict(query)
}

func (r *Recursive) LogMarginalLikelihood() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.conditioned()
	if err != nil {
		return 0, err
	}
	return c.LogMarginalLikelihood(), nil
}

// Observations returns the underlying set. Appending to it directly is
// allowed; the factor is then rebuilt at the next query.
func (r *Recursive) Observations() *obs.Set {
	return r.set
}

func (r *Recursive) Len() int {
	return r.set.Len()
}

// Factor returns the current incremental factor, or nil if it is pending a
// rebuild.
func (r *Recursive) Factor() *linalg.Factor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.factor
}

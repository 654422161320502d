package gp

import (
	"math"

	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

// LogMarginalLikelihood is
//
//	log p(y | X, θ, σ²) = -½ rᵀ(K+σ²I)⁻¹r - ½ log|K+σ²I| - (n/2) log 2π
//
// with r = y - m(X). It is zero for an empty training set.
func (c *Conditioned) LogMarginalLikelihood() float64 {
	n := len(c.resid)
	if n == 0 {
		return 0
	}
	fit := utils.Dot(c.resid, c.alpha)
	return -0.5*fit - 0.5*c.factor.LogDet() - 0.5*float64(n)*math.Log(2*math.Pi)
}

// LogMarginalLikelihood scores the hyperparameters theta of k and the noise
// variance on the observations in set. It is meant to be called repeatedly
// by an external search over (theta, noise).
func (e *Engine) LogMarginalLikelihood(k kern.Kernel, set *obs.Set, theta []float64, noise float64) (float64, error) {
	b, err := kern.Bind(k, theta)
	if err != nil {
		return 0, err
	}
	c, err := e.Condition(b, set, noise)
	if err != nil {
		return 0, err
	}
	return c.LogMarginalLikelihood(), nil
}

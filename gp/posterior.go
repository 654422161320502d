package gp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gram"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/linalg"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

// Posterior is a Gaussian over the function values at Query.
type Posterior struct {
	Query [][]float64
	Mean  *mat.VecDense
	Cov   *mat.SymDense
}

func (p *Posterior) Len() int {
	return len(p.Query)
}

// Var is the marginal variance at the i-th query point, never negative.
func (p *Posterior) Var(i int) float64 {
	return math.Max(p.Cov.At(i, i), 0)
}

func (p *Posterior) StdDev() []float64 {
	out := make([]float64, p.Len())
	for i := range out {
		out[i] = math.Sqrt(p.Var(i))
	}
	return out
}

func (p *Posterior) MeanValues() []float64 {
	return mat.Col(nil, 0, p.Mean)
}

// Conditioned holds a factorized training set: everything the posterior and
// the marginal likelihood need, computed once.
type Conditioned struct {
	engine *Engine
	kernel kern.Bound
	noise  float64
	xs     [][]float64
	resid  []float64 // y - m(X)
	alpha  []float64 // (K + σ²I)⁻¹ (y - m(X))
	factor *linalg.Factor
}

// Condition factorizes K(X, X) + noise·I for the observations in set. A nil
// set is treated as empty.
func (e *Engine) Condition(k kern.Bound, set *obs.Set, noise float64) (*Conditioned, error) {
	if err := k.Kernel.Validate(k.Theta); err != nil {
		return nil, err
	}
	if err := CheckNoise(noise); err != nil {
		return nil, err
	}
	var xs [][]float64
	var ys []float64
	if set != nil {
		xs, ys, _ = set.Snapshot()
	}
	var f *linalg.Factor
	if len(xs) > 0 {
		var err error
		if f, err = e.Factorize(k, xs, noise); err != nil {
			return nil, err
		}
	}
	return e.FromFactor(k, xs, ys, noise, f)
}

// FromFactor wraps a factor computed elsewhere, such as one grown row by row.
// f must factor K(xs, xs) + noise·I (plus its own jitter); a nil f is only
// allowed for an empty training set.
func (e *Engine) FromFactor(k kern.Bound, xs [][]float64, ys []float64, noise float64, f *linalg.Factor) (*Conditioned, error) {
	if len(xs) != len(ys) {
		return nil, errs.Newf(errs.ErrDimensionMismatch,
			"%d points but %d targets", len(xs), len(ys))
	}
	if f == nil {
		if len(xs) > 0 {
			return nil, errs.New(errs.ErrDimensionMismatch, "missing factor for non-empty training set")
		}
		f = linalg.Empty()
	}
	if f.Size() != len(xs) {
		return nil, errs.Newf(errs.ErrDimensionMismatch,
			"factor of order %d for %d points", f.Size(), len(xs))
	}
	resid := make([]float64, len(ys))
	for i, y := range ys {
		resid[i] = y - e.meanAt(xs[i])
	}
	return &Conditioned{
		engine: e,
		kernel: k,
		noise:  noise,
		xs:     xs,
		resid:  resid,
		alpha:  f.SolveVec(resid),
		factor: f,
	}, nil
}

func (c *Conditioned) Len() int {
	return len(c.xs)
}

func (c *Conditioned) Factor() *linalg.Factor {
	return c.factor
}

// Predict returns the posterior predictive distribution at query:
//
//	mean = m(X*) + K*ᵀ α
//	cov  = K** - VᵀV,  V = L⁻¹K*
//
// with the diagonal of cov clamped at zero.
func (c *Conditioned) Predict(query [][]float64) (*Posterior, error) {
	e := c.engine
	if err := c.checkQuery(query); err != nil {
		return nil, err
	}
	m := len(query)
	q := utils.CopyPoints(query)
	kss, err := gram.SymParallel(c.kernel.Kernel, c.kernel.Theta, q, e.workers)
	if err != nil {
		return nil, err
	}
	mean := mat.NewVecDense(m, nil)
	for i, x := range q {
		mean.SetVec(i, e.meanAt(x))
	}
	n := len(c.xs)
	if n == 0 {
		return &Posterior{Query: q, Mean: mean, Cov: kss}, nil
	}

	ks, err := gram.CrossParallel(c.kernel.Kernel, c.kernel.Theta, c.xs, q, e.workers)
	if err != nil {
		return nil, err
	}
	var kta mat.VecDense
	kta.MulVec(ks.T(), mat.NewVecDense(n, c.alpha))
	mean.AddVec(mean, &kta)

	v := c.factor.SolveLower(ks)
	cov := mat.NewSymDense(m, nil)
	cov.SymRankK(kss, -1, v.T())
	for i := 0; i < m; i++ {
		if cov.At(i, i) < 0 {
			cov.SetSym(i, i, 0)
		}
	}
	return &Posterior{Query: q, Mean: mean, Cov: cov}, nil
}

func (c *Conditioned) checkQuery(query [][]float64) error {
	if len(query) == 0 {
		return errs.ErrEmptyQuerySet
	}
	dim := len(query[0])
	if len(c.xs) > 0 {
		dim = len(c.xs[0])
	}
	for i, x := range query {
		if len(x) != dim {
			return errs.Newf(errs.ErrDimensionMismatch,
				"query point %d has dimension %d, want %d", i, len(x), dim)
		}
	}
	return nil
}

// Prior returns the prior predictive distribution at query: the mean
// function and the Gram matrix of the query points.
func (e *Engine) Prior(k kern.Bound, query [][]float64) (*Posterior, error) {
	c, err := e.FromFactor(k, nil, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	return c.Predict(query)
}

// Predict conditions on set and evaluates the posterior at query. An empty
// set yields the prior.
func (e *Engine) Predict(k kern.Bound, set *obs.Set, query [][]float64, noise float64) (*Posterior, error) {
	if len(query) == 0 {
		return nil, errs.ErrEmptyQuerySet
	}
	c, err := e.Condition(k, set, noise)
	if err != nil {
		return nil, err
	}
	return c.Predict(query)
}

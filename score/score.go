// Package score evaluates the log marginal likelihood of many hyperparameter
// candidates on one training set. It does not search: callers pick the
// candidates and decide what to do with the scores.
package score

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gp"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/logging"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
)

type Candidate struct {
	Theta []float64
	Noise float64
}

// Result is the score of one candidate. Err is set when the candidate could
// not be scored, e.g. invalid hyperparameters or a Gram matrix that stays
// singular after every jitter retry.
type Result struct {
	Candidate
	LML float64
	Err error
}

// Grid returns the cartesian product of the per-hyperparameter axes and the
// noise values. The first axis varies slowest and the noise fastest.
func Grid(axes [][]float64, noises []float64) []Candidate {
	total := len(noises)
	for _, a := range axes {
		total *= len(a)
	}
	if total == 0 {
		return nil
	}
	out := make([]Candidate, 0, total)
	idx := make([]int, len(axes))
	for {
		theta := make([]float64, len(axes))
		for i, a := range axes {
			theta[i] = a[idx[i]]
		}
		for _, n := range noises {
			out = append(out, Candidate{Theta: theta, Noise: n})
		}
		// Odometer increment, last axis first.
		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Evaluate scores every candidate against a snapshot of set, using at most
// workers goroutines. Scoring failures are reported per candidate. If ctx is
// cancelled before every candidate is scored, the pending ones carry the
// context error, which is also returned.
func Evaluate(ctx context.Context, engine *gp.Engine, k kern.Kernel, set *obs.Set, cands []Candidate, workers int) ([]Result, error) {
	snap := obs.NewSet()
	if set != nil {
		snap = set.Clone()
	}
	results := make([]Result, len(cands))
	for i, c := range cands {
		results[i].Candidate = c
	}
	if workers < 1 {
		workers = 1
	}
	log := engine.Logger()
	log.V(logging.DEBUG).Info("scoring candidates",
		"candidates", len(cands), "n", snap.Len(), "workers", workers)

	done := make([]bool, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cands {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := &results[i]
			r.LML, r.Err = engine.LogMarginalLikelihood(k, snap, r.Theta, r.Noise)
			engine.Metrics().ObserveCandidate(r.Err)
			if r.Err != nil {
				log.V(logging.TRACE).Info("candidate failed", "theta", r.Theta, "noise", r.Noise, "error", r.Err.Error())
			} else {
				log.V(logging.TRACE).Info("candidate scored", "theta", r.Theta, "noise", r.Noise, "lml", r.LML)
			}
			done[i] = true
			return nil
		})
	}
	err := g.Wait()
	pending := 0
	for i := range results {
		if !done[i] {
			pending++
		}
	}
	if pending == 0 {
		return results, nil
	}
	if err == nil {
		err = ctx.Err()
	}
	for i := range results {
		if !done[i] {
			results[i].Err = err
		}
	}
	log.V(logging.DEBUG).Info("scoring interrupted", "pending", pending, "error", err.Error())
	return results, err
}

// Best returns the result with the highest finite log marginal likelihood.
// The boolean is false if no candidate was scored.
func Best(results []Result) (Result, bool) {
	best, found := Result{LML: math.Inf(-1)}, false
	for _, r := range results {
		if r.Err != nil || math.IsNaN(r.LML) || math.IsInf(r.LML, 0) {
			continue
		}
		if !found || r.LML > best.LML {
			best, found = r, true
		}
	}
	return best, found
}

// Failed counts the results that carry a numeric failure, as opposed to
// invalid input or cancellation.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if errs.IsNumeric(r.Err) {
			n++
		}
	}
	return n
}

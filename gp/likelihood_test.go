package gp

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/gram"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
	"github.com/schluedj/Bayesian-NonParametrics/obs"
)

func TestLogMarginalLikelihoodSinglePoint(t *testing.T) {
	k := &kern.SquaredExp{}
	theta := []float64{1.7, 3}
	set := mustSet(t, []float64{0.3}, []float64{0.9})

	got, err := LogMarginalLikelihood(k, set, theta, 0.2)
	require.NoError(t, err)

	v := 1.7 + 0.2
	want := -0.5*0.9*0.9/v - 0.5*math.Log(v) - 0.5*math.Log(2*math.Pi)
	assert.InDelta(t, want, got, 1e-12)
}

func TestLogMarginalLikelihoodMatchesDenseFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	xs, ys := sinData(rng, 6, 0.2)
	k := &kern.Matern32{}
	theta := []float64{0.9, 1.4}
	noise := 0.05

	got, err := LogMarginalLikelihood(k, mustSet(t, xs, ys), theta, noise)
	require.NoError(t, err)

	kxx, err := gram.Sym(k, theta, obs.Scalars(xs))
	require.NoError(t, err)
	n := len(xs)
	c := mat.NewDense(n, n, nil)
	c.Copy(kxx)
	for i := 0; i < n; i++ {
		c.Set(i, i, c.At(i, i)+noise)
	}
	var inv mat.Dense
	require.NoError(t, inv.Inverse(c))
	y := mat.NewVecDense(n, ys)
	var cy mat.VecDense
	cy.MulVec(&inv, y)
	want := -0.5*mat.Dot(y, &cy) - 0.5*math.Log(mat.Det(c)) - 0.5*float64(n)*math.Log(2*math.Pi)
	assert.InDelta(t, want, got, 1e-8)
}

func TestLogMarginalLikelihoodEmptySet(t *testing.T) {
	got, err := LogMarginalLikelihood(&kern.SquaredExp{}, obs.NewSet(), []float64{1, 1}, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestLogMarginalLikelihoodUsesMeanFunction(t *testing.T) {
	// A constant mean equal to the data makes the fit term vanish.
	e := New(WithMeanFunc(func([]float64) float64 { return 4 }))
	set := mustSet(t, []float64{0}, []float64{4})
	got, err := e.LogMarginalLikelihood(&kern.SquaredExp{}, set, []float64{1, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, -0.5*math.Log(2)-0.5*math.Log(2*math.Pi), got, 1e-12)
}

func TestLogMarginalLikelihoodPrefersTrueLengthscale(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	xs := make([]float64, 40)
	ys := make([]float64, 40)
	for i := range xs {
		xs[i] = -4 + 8*float64(i)/39
		ys[i] = math.Sin(xs[i]) + 0.05*rng.NormFloat64()
	}
	set := mustSet(t, xs, ys)
	k := &kern.SquaredExp{}

	lml := func(inv float64) float64 {
		v, err := LogMarginalLikelihood(k, set, []float64{1, inv}, 0.0025)
		require.NoError(t, err)
		return v
	}
	// A sine has a lengthscale of order one; both extremes fit worse.
	assert.Greater(t, lml(1), lml(100))
	assert.Greater(t, lml(1), lml(0.001))
}

func TestLogMarginalLikelihoodErrors(t *testing.T) {
	set := mustSet(t, []float64{0, 1}, []float64{0, 1})

	_, err := LogMarginalLikelihood(&kern.SquaredExp{}, set, []float64{-1, 1}, 0.1)
	assert.True(t, errors.Is(err, errs.ErrInvalidHyperparameters))

	_, err = LogMarginalLikelihood(&kern.SquaredExp{}, set, []float64{1, 1, 1}, 0.1)
	assert.True(t, errors.Is(err, errs.ErrInvalidHyperparameters))

	_, err = LogMarginalLikelihood(&kern.SquaredExp{}, set, []float64{1, 1}, -0.1)
	assert.True(t, errors.Is(err, errs.ErrInvalidHyperparameters))

	_, err = New(WithMaxPoints(1)).LogMarginalLikelihood(&kern.SquaredExp{}, set, []float64{1, 1}, 0.1)
	assert.True(t, errors.Is(err, errs.ErrProblemTooLarge))
}

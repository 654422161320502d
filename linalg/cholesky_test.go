package linalg

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
)

// randomSPD returns AᵀA + n·I for a random A.
func randomSPD(rng *rand.Rand, n int) *mat.SymDense {
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	s := mat.NewSymDense(n, nil)
	s.SymOuterK(1, a.T())
	for i := 0; i < n; i++ {
		s.SetSym(i, i, s.At(i, i)+float64(n))
	}
	return s
}

func TestFactorizeKnownMatrix(t *testing.T) {
	// Classic example with integer factor.
	a := mat.NewSymDense(3, []float64{
		4, 12, -16,
		12, 37, -43,
		-16, -43, 98,
	})
	f, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Jitter())
	assert.Equal(t, 1, f.Attempts())

	want := []float64{
		2, 0, 0,
		6, 1, 0,
		-8, 5, 3,
	}
	l := f.L()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i*3+j], l.At(i, j), 1e-12)
		}
	}
	assert.InDelta(t, 2*math.Log(2*1*3), f.LogDet(), 1e-12)
}

func TestSolve(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := randomSPD(rng, 6)
	f, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)

	b := []float64{1, -2, 0.5, 3, 0, -1}
	x := f.SolveVec(b)
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(6, x))
	for i := range b {
		assert.InDelta(t, b[i], ax.AtVec(i), 1e-10)
	}

	bm := mat.NewDense(6, 2, nil)
	for i := 0; i < 6; i++ {
		bm.Set(i, 0, b[i])
		bm.Set(i, 1, float64(i))
	}
	xm := f.SolveMat(bm)
	var axm mat.Dense
	axm.Mul(a, xm)
	assert.True(t, mat.EqualApprox(&axm, bm, 1e-10))

	// L (L⁻¹B) = B.
	v := f.SolveLower(bm)
	var lv mat.Dense
	lv.Mul(f.L(), v)
	assert.True(t, mat.EqualApprox(&lv, bm, 1e-10))
}

func TestLogDetMatchesDeterminant(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	a := randomSPD(rng, 5)
	f, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)
	assert.InDelta(t, math.Log(mat.Det(a)), f.LogDet(), 1e-9)
}

func TestJitterRecoversSingularMatrix(t *testing.T) {
	// Gram matrix of two identical points.
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	f, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)
	assert.Equal(t, 1e-6, f.Jitter())
	assert.Equal(t, 2, f.Attempts())

	var llt mat.Dense
	l := f.L()
	llt.Mul(l, l.T())
	assert.InDelta(t, 1+1e-6, llt.At(0, 0), 1e-12)
	assert.InDelta(t, 1, llt.At(0, 1), 1e-12)
}

func TestNotPositiveDefinite(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	_, err := Factorize(a, DefaultJitter())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotPositiveDefinite))

	var numErr *errs.NumericError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, 2, numErr.Size)
	assert.Equal(t, 6, numErr.Attempts)
	assert.InDelta(t, 1.6e-5, numErr.Jitter, 1e-18)

	// No retries at all.
	_, err = Factorize(a, JitterPolicy{})
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, 1, numErr.Attempts)
	assert.Equal(t, 0.0, numErr.Jitter)
}

func TestZeroMatrixUsesAbsoluteJitter(t *testing.T) {
	f, err := Factorize(mat.NewSymDense(3, nil), DefaultJitter())
	require.NoError(t, err)
	assert.Equal(t, 1e-6, f.Jitter())
}

func TestNonFiniteEntries(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, math.NaN(), math.NaN(), 1})
	_, err := Factorize(a, DefaultJitter())
	var numErr *errs.NumericError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, "non-finite entry", numErr.Reason)
}

func TestEmptyMatrix(t *testing.T) {
	f, err := Factorize(&mat.SymDense{}, DefaultJitter())
	require.NoError(t, err)
	assert.Equal(t, 0, f.Size())
	assert.Equal(t, 0.0, f.LogDet())
	assert.Empty(t, f.SolveVec(nil))
}

func TestEmptyFactor(t *testing.T) {
	f := Empty()
	assert.Equal(t, 0, f.Size())
	assert.Equal(t, 0.0, f.Jitter())
	assert.Equal(t, 0.0, f.LogDet())
	require.NoError(t, f.Extend(nil, 4))
	assert.Equal(t, 1, f.Size())
	assert.InDelta(t, math.Log(4), f.LogDet(), 1e-12)
}

func TestExtendMatchesFullFactorization(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n := 7
	a := randomSPD(rng, n)

	f := Empty()
	for k := 0; k < n; k++ {
		col := make([]float64, k)
		for i := range col {
			col[i] = a.At(i, k)
		}
		require.NoError(t, f.Extend(col, a.At(k, k)))
	}
	full, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(full.L(), f.L(), 1e-10))
	assert.InDelta(t, full.LogDet(), f.LogDet(), 1e-10)
}

func TestExtendRejectsNonPositivePivot(t *testing.T) {
	f, err := Factorize(mat.NewSymDense(1, []float64{1}), DefaultJitter())
	require.NoError(t, err)
	err = f.Extend([]float64{1}, 1)
	assert.True(t, errors.Is(err, errs.ErrNotPositiveDefinite))
	assert.Equal(t, 1, f.Size(), "factor must be unchanged")

	err = f.Extend([]float64{1, 2}, 1)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestExtendKeepsJitter(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	f, err := Factorize(a, DefaultJitter())
	require.NoError(t, err)
	require.NoError(t, f.Extend([]float64{0, 0}, 2))
	l := f.L()
	assert.InDelta(t, math.Sqrt(2+f.Jitter()), l.At(2, 2), 1e-12)
}

func TestFactorCost(t *testing.T) {
	assert.Equal(t, 9.0, FactorCost(3))
	assert.Greater(t, FactorCost(2000), 2.6e9)
}

func TestCloneIsIndependent(t *testing.T) {
	f, err := Factorize(mat.NewSymDense(1, []float64{4}), DefaultJitter())
	require.NoError(t, err)
	c := f.Clone()
	require.NoError(t, c.Extend([]float64{1}, 2))
	assert.Equal(t, 1, f.Size())
	assert.Equal(t, 2, c.Size())
	assert.InDelta(t, math.Log(4), f.LogDet(), 1e-12)
}

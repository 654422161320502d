// Package linalg factorizes symmetric positive-definite matrices and solves
// linear systems with the factor.
//
// Factorizing an n×n matrix costs O(n³) flops and O(n²) memory, and every
// solve against the factor costs O(n²) per right-hand side. The cubic term is
// what makes exact GP regression impractical beyond a few thousand points;
// FactorCost exposes the estimate so callers can time-box large problems.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
)

// JitterPolicy controls the diagonal jitter added when a factorization fails.
// The first retry adds Relative·trace(M)/n to the diagonal, and each further
// retry doubles it.
type JitterPolicy struct {
	Relative   float64
	MaxRetries int
}

func DefaultJitter() JitterPolicy {
	return JitterPolicy{
		Relative:   1e-6,
		MaxRetries: 5,
	}
}

// Factor is the lower Cholesky factor L of M + jitter·I.
type Factor struct {
	chol     blas64.Triangular
	jitter   float64
	attempts int
}

// Empty returns the factor of a 0×0 matrix, the starting point for Extend.
func Empty() *Factor {
	return &Factor{chol: lowerTri(0, nil)}
}

// FactorCost estimates the flops of a dense Cholesky factorization.
func FactorCost(n int) float64 {
	fn := float64(n)
	return fn * fn * fn / 3
}

// Factorize computes the Cholesky factor of a, retrying with growing jitter
// as described by policy. The returned error wraps errs.ErrNotPositiveDefinite
// and is an *errs.NumericError.
func Factorize(a mat.Symmetric, policy JitterPolicy) (*Factor, error) {
	n := a.SymmetricDim()
	if n == 0 {
		return Empty(), nil
	}
	trace := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &errs.NumericError{
					Err:    errs.ErrNotPositiveDefinite,
					Size:   n,
					Reason: "non-finite entry",
				}
			}
		}
		trace += a.At(i, i)
	}
	base := policy.Relative * trace / float64(n)
	if !(base > 0) {
		base = policy.Relative
	}
	retries := policy.MaxRetries
	if base <= 0 || retries < 0 {
		retries = 0
	}

	jitter := 0.0
	for attempt := 0; attempt <= retries; attempt++ {
		switch attempt {
		case 0:
		case 1:
			jitter = base
		default:
			jitter *= 2
		}
		if t, ok := potrf(a, jitter); ok {
			return &Factor{chol: t, jitter: jitter, attempts: attempt + 1}, nil
		}
	}
	return nil, &errs.NumericError{
		Err:      errs.ErrNotPositiveDefinite,
		Size:     n,
		Jitter:   jitter,
		Attempts: retries + 1,
	}
}

// potrf copies the lower triangle of a, adds jitter to the diagonal and
// factorizes in place.
func potrf(a mat.Symmetric, jitter float64) (blas64.Triangular, bool) {
	n := a.SymmetricDim()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			data[i*n+j] = a.At(i, j)
		}
		data[i*n+i] += jitter
	}
	t, ok := lapack64.Potrf(blas64.Symmetric{
		N:      n,
		Stride: n,
		Data:   data,
		Uplo:   blas.Lower,
	})
	if !ok {
		return t, false
	}
	for i := 0; i < n; i++ {
		d := data[i*n+i]
		if !(d > 0) || math.IsInf(d, 0) {
			return t, false
		}
	}
	return t, true
}

func lowerTri(n int, data []float64) blas64.Triangular {
	return blas64.Triangular{
		N:      n,
		Stride: max(n, 1),
		Data:   data,
		Uplo:   blas.Lower,
		Diag:   blas.NonUnit,
	}
}

// Size is the order of the factored matrix.
func (f *Factor) Size() int {
	return f.chol.N
}

// Jitter is the diagonal jitter that made the factorization succeed.
func (f *Factor) Jitter() float64 {
	return f.jitter
}

// Attempts counts the factorizations tried, including the unjittered one.
func (f *Factor) Attempts() int {
	return f.attempts
}

// L returns a copy of the lower-triangular factor.
func (f *Factor) L() *mat.TriDense {
	n := f.chol.N
	if n == 0 {
		return &mat.TriDense{}
	}
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		copy(data[i*n:i*n+i+1], f.chol.Data[i*f.chol.Stride:i*f.chol.Stride+i+1])
	}
	return mat.NewTriDense(n, mat.Lower, data)
}

// LogDet returns log|M + jitter·I| = 2·Σ log L[i][i].
func (f *Factor) LogDet() float64 {
	ld := 0.0
	for i := 0; i < f.chol.N; i++ {
		ld += math.Log(f.chol.Data[i*f.chol.Stride+i])
	}
	return 2 * ld
}

// SolveVec returns x with (M + jitter·I) x = b.
func (f *Factor) SolveVec(b []float64) []float64 {
	x := append([]float64(nil), b...)
	f.SolveVecInPlace(x)
	return x
}

// SolveVecInPlace overwrites x with the solution of (M + jitter·I) y = x.
func (f *Factor) SolveVecInPlace(x []float64) {
	if len(x) != f.chol.N {
		panic(mat.ErrShape)
	}
	if f.chol.N == 0 {
		return
	}
	vec := blas64.Vector{N: len(x), Inc: 1, Data: x}
	// L z = b, then Lᵀ x = z.
	blas64.Trsv(blas.NoTrans, f.chol, vec)
	blas64.Trsv(blas.Trans, f.chol, vec)
}

// SolveMat returns X with (M + jitter·I) X = B.
func (f *Factor) SolveMat(b mat.Matrix) *mat.Dense {
	x := mat.DenseCopyOf(b)
	if f.checkRows(x) {
		raw := x.RawMatrix()
		blas64.Trsm(blas.Left, blas.NoTrans, 1, f.chol, raw)
		blas64.Trsm(blas.Left, blas.Trans, 1, f.chol, raw)
	}
	return x
}

// SolveLower returns L⁻¹B, the forward substitution alone.
func (f *Factor) SolveLower(b mat.Matrix) *mat.Dense {
	x := mat.DenseCopyOf(b)
	if f.checkRows(x) {
		blas64.Trsm(blas.Left, blas.NoTrans, 1, f.chol, x.RawMatrix())
	}
	return x
}

func (f *Factor) checkRows(x *mat.Dense) bool {
	if x.IsEmpty() {
		return false
	}
	r, _ := x.Dims()
	if r != f.chol.N {
		panic(mat.ErrShape)
	}
	return true
}

// Clone returns a factor that can be extended without affecting f.
func (f *Factor) Clone() *Factor {
	c := *f
	return &c
}

// Extend grows the factor by one row and column for the bordered matrix
//
//	[ M    col  ]
//	[ colᵀ diag ]
//
// in O(n²). The factor's jitter is added to diag so the result stays the
// factor of the bordered matrix plus the same jitter·I. If the new pivot is
// not positive the factor is left unchanged and an error wrapping
// errs.ErrNotPositiveDefinite is returned.
func (f *Factor) Extend(col []float64, diag float64) error {
	n := f.chol.N
	if len(col) != n {
		return errs.Newf(errs.ErrDimensionMismatch,
			"extend: column has length %d, want %d", len(col), n)
	}
	l := append([]float64(nil), col...)
	if n > 0 {
		blas64.Trsv(blas.NoTrans, f.chol, blas64.Vector{N: n, Inc: 1, Data: l})
	}
	d2 := diag + f.jitter
	for _, v := range l {
		d2 -= v * v
	}
	if !(d2 > 0) || math.IsInf(d2, 0) {
		return &errs.NumericError{
			Err:      errs.ErrNotPositiveDefinite,
			Size:     n + 1,
			Jitter:   f.jitter,
			Attempts: 1,
			Reason:   "bordered update",
		}
	}

	m := n + 1
	data := make([]float64, m*m)
	for i := 0; i < n; i++ {
		copy(data[i*m:i*m+i+1], f.chol.Data[i*f.chol.Stride:i*f.chol.Stride+i+1])
	}
	copy(data[n*m:n*m+n], l)
	data[n*m+n] = math.Sqrt(d2)
	f.chol = lowerTri(m, data)
	return nil
}

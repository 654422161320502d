// Package gram assembles covariance matrices by evaluating a kernel pairwise
// over point sets. A build costs O(|A|·|B|) kernel evaluations; callers
// should reuse matrices whose inputs have not changed.
package gram

import (
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/kern"
)

// Sym returns the square Gram matrix of pts. Only the upper triangle is
// evaluated; the symmetric storage reflects it, so the result is exactly
// symmetric whatever the evaluation order.
func Sym(k kern.Kernel, theta []float64, pts [][]float64) (*mat.SymDense, error) {
	return SymParallel(k, theta, pts, 1)
}

// Cross returns the |a|×|b| cross-covariance matrix.
func Cross(k kern.Kernel, theta []float64, a, b [][]float64) (*mat.Dense, error) {
	return CrossParallel(k, theta, a, b, 1)
}

// SymParallel is Sym with rows spread over at most workers goroutines.
func SymParallel(k kern.Kernel, theta []float64, pts [][]float64, workers int) (*mat.SymDense, error) {
	if err := check(k, theta, pts, nil); err != nil {
		return nil, err
	}
	n := len(pts)
	if n == 0 {
		return &mat.SymDense{}, nil
	}
	out := mat.NewSymDense(n, nil)
	raw := out.RawSymmetric()
	row := func(i int) {
		for j := i; j < n; j++ {
			raw.Data[i*raw.Stride+j] = k.Eval(pts[i], pts[j], theta)
		}
	}
	forRows(n, workers, row)
	return out, nil
}

// CrossParallel is Cross with rows spread over at most workers goroutines.
func CrossParallel(k kern.Kernel, theta []float64, a, b [][]float64, workers int) (*mat.Dense, error) {
	if err := check(k, theta, a, b); err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(len(a), len(b), nil)
	raw := out.RawMatrix()
	row := func(i int) {
		for j := range b {
			raw.Data[i*raw.Stride+j] = k.Eval(a[i], b[j], theta)
		}
	}
	forRows(len(a), workers, row)
	return out, nil
}

// Column returns k(p, x) for every x in pts.
func Column(k kern.Kernel, theta []float64, pts [][]float64, p []float64) ([]float64, error) {
	if err := check(k, theta, pts, [][]float64{p}); err != nil {
		return nil, err
	}
	col := make([]float64, len(pts))
	for i, x := range pts {
		col[i] = k.Eval(x, p, theta)
	}
	return col, nil
}

// Each row writes a disjoint slice of the output, so rows need no locking.
func forRows(n, workers int, row func(i int)) {
	if workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			row(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			row(i)
			return nil
		})
	}
	_ = g.Wait()
}

func check(k kern.Kernel, theta []float64, a, b [][]float64) error {
	if err := k.Validate(theta); err != nil {
		return err
	}
	dim := -1
	for _, set := range [][][]float64{a, b} {
		for i, p := range set {
			if dim < 0 {
				dim = len(p)
				continue
			}
			if len(p) != dim {
				return errs.Newf(errs.ErrDimensionMismatch,
					"point %d has dimension %d, want %d", i, len(p), dim)
			}
		}
	}
	return nil
}

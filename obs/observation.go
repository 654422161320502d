// Package obs stores the training data of a GP: input points paired with
// their targets.
package obs

import (
	"sync"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

// Set is an ordered collection of (point, target) pairs sharing one input
// dimensionality. It owns copies of everything appended to it. Points never
// change once appended; every append bumps Version so that derived state
// (Gram matrices, factors) can be invalidated.
//
// A Set is safe for concurrent use: reads never overlap an append.
type Set struct {
	mu      sync.RWMutex
	dim     int
	xs      [][]float64
	ys      []float64
	version uint64
}

func NewSet() *Set {
	return &Set{dim: -1}
}

// FromSlices builds a set from parallel slices of points and targets.
func FromSlices(xs [][]float64, ys []float64) (*Set, error) {
	s := NewSet()
	if err := s.AppendBatch(xs, ys); err != nil {
		return nil, err
	}
	return s, nil
}

// Scalars turns scalar inputs into one-dimensional points.
func Scalars(xs []float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = []float64{x}
	}
	return out
}

func (s *Set) Append(x []float64, y float64) error {
	return s.AppendBatch([][]float64{x}, []float64{y})
}

// AppendBatch appends every pair or none of them.
func (s *Set) AppendBatch(xs [][]float64, ys []float64) error {
	if len(xs) != len(ys) {
		return errs.Newf(errs.ErrDimensionMismatch,
			"%d points but %d targets", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	for i, x := range xs {
		if len(x) == 0 {
			return errs.Newf(errs.ErrInvalidObservation, "point %d is empty", i)
		}
		if dim < 0 {
			dim = len(x)
		}
		if len(x) != dim {
			return errs.Newf(errs.ErrDimensionMismatch,
				"point %d has dimension %d, want %d", i, len(x), dim)
		}
		if !utils.AllFinite(x) || !utils.AllFinite(ys[i:i+1]) {
			return errs.Newf(errs.ErrInvalidObservation, "pair %d is not finite", i)
		}
	}
	s.dim = dim
	s.xs = append(s.xs, utils.CopyPoints(xs)...)
	s.ys = append(s.ys, ys...)
	s.version++
	return nil
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.xs)
}

// Dim is the input dimensionality, or 0 for an empty set.
func (s *Set) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(s.dim, 0)
}

// Version increases with every successful append.
func (s *Set) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Point returns the i-th point. It must not be modified.
func (s *Set) Point(i int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xs[i]
}

// Snapshot returns the points and a copy of the targets together with the
// version they belong to. The points must not be modified.
func (s *Set) Snapshot() (xs [][]float64, ys []float64, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	xs = append([][]float64(nil), s.xs...)
	ys = append([]float64(nil), s.ys...)
	return xs, ys, s.version
}

func (s *Set) Points() [][]float64 {
	xs, _, _ := s.Snapshot()
	return xs
}

func (s *Set) Targets() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float64(nil), s.ys...)
}

func (s *Set) Clone() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Set{
		dim:     s.dim,
		xs:      append([][]float64(nil), s.xs...),
		ys:      append([]float64(nil), s.ys...),
		version: s.version,
	}
}

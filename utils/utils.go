package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Concatenate multiple hyperparameter vectors.
func ConcatVecs(size int, vecs ...[]float64) []float64 {
	out := make([]float64, 0, size)
	for _, vec := range vecs {
		out = append(out, vec...)
	}
	return out
}

// Split a vector into consecutive slices of the given sizes. The slices share
// the backing array of vec.
func SplitVec(vec []float64, sizes ...int) [][]float64 {
	out := make([][]float64, len(sizes))
	offset := 0
	for i, size := range sizes {
		out[i] = vec[offset : offset+size : offset+size]
		offset += size
	}
	return out
}

// Add v to every diagonal entry of a symmetric matrix, in place.
func AddDiag(m *mat.SymDense, v float64) {
	if v == 0 {
		return
	}
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		m.SetSym(i, i, m.At(i, i)+v)
	}
}

// Squared Euclidean distance.
func SqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Deep copy of a point collection.
func CopyPoints(xs [][]float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = append([]float64(nil), x...)
	}
	return out
}

func AllFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

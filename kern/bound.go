package kern

import (
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

// Bound pairs a kernel with a validated hyperparameter vector.
type Bound struct {
	Kernel Kernel
	Theta  []float64
}

// Bind validates theta against k and copies it.
func Bind(k Kernel, theta []float64) (Bound, error) {
	if err := k.Validate(theta); err != nil {
		return Bound{}, err
	}
	return Bound{
		Kernel: k,
		Theta:  append([]float64(nil), theta...),
	}, nil
}

// Build returns the leaf kernel of the given kind bound to theta.
func Build(kind Kind, theta []float64) (Bound, error) {
	k, err := New(kind)
	if err != nil {
		return Bound{}, err
	}
	return Bind(k, theta)
}

// BuildSum binds theta to the sum of the given leaf kinds. theta holds the
// hyperparameters of every summand, concatenated in order.
func BuildSum(theta []float64, kinds ...Kind) (Bound, error) {
	k, err := NewSum(kinds...)
	if err != nil {
		return Bound{}, err
	}
	return Bind(k, theta)
}

// NewSum returns the sum of the given leaf kinds, or the leaf itself when
// there is only one.
func NewSum(kinds ...Kind) (Kernel, error) {
	parts := make([]Kernel, len(kinds))
	for i, kind := range kinds {
		k, err := New(kind)
		if err != nil {
			return nil, err
		}
		parts[i] = k
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return NewAdd(parts...), nil
}

// Plus sums two bound kernels, concatenating their hyperparameters.
func (b Bound) Plus(other Bound) Bound {
	k := NewAdd(b.Kernel, other.Kernel)
	return Bound{
		Kernel: k,
		Theta:  utils.ConcatVecs(k.NumHyper(), b.Theta, other.Theta),
	}
}

func (b Bound) Cov(x, y []float64) (float64, error) {
	return Cov(b.Kernel, x, y, b.Theta)
}

package kern

import (
	"fmt"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	add *Add
	_   Kernel = add // Check that Add respects the Kernel interface.
)

// Add is the sum of its parts. Its hyperparameter vector is the concatenation
// of the parts' vectors, in part order.
type Add struct {
	parts []Kernel
	sizes []int
	order int
}

// NewAdd sums kernels. Nested sums are flattened, so NewAdd(NewAdd(a, b), c)
// has the same parts and hyperparameter layout as NewAdd(a, b, c).
func NewAdd(kernels ...Kernel) *Add {
	parts := make([]Kernel, 0, len(kernels))
	for _, k := range kernels {
		switch k := k.(type) {
		case *Add:
			parts = append(parts, k.parts...)
		default:
			parts = append(parts, k)
		}
	}
	sizes := make([]int, len(parts))
	order := 0
	for i, part := range parts {
		sizes[i] = part.NumHyper()
		order += sizes[i]
	}
	return &Add{
		parts: parts,
		sizes: sizes,
		order: order,
	}
}

func (k *Add) Kind() Kind {
	return KindSum
}

func (k *Add) NumHyper() int {
	return k.order
}

// Parts returns the flattened summands.
func (k *Add) Parts() []Kernel {
	return append([]Kernel(nil), k.parts...)
}

// Split slices theta into the parts' hyperparameter vectors.
func (k *Add) Split(theta []float64) [][]float64 {
	return utils.SplitVec(theta, k.sizes...)
}

func (k *Add) Validate(theta []float64) error {
	if len(k.parts) == 0 {
		return errs.New(errs.ErrInvalidHyperparameters, "sum: no parts")
	}
	if len(theta) != k.order {
		return errs.Newf(errs.ErrInvalidHyperparameters,
			"sum: want %d hyperparameters, got %d", k.order, len(theta))
	}
	for i, sub := range k.Split(theta) {
		if err := k.parts[i].Validate(sub); err != nil {
			return fmt.Errorf("sum part %d: %w", i, err)
		}
	}
	return nil
}

func (k *Add) Eval(a, b, theta []float64) float64 {
	val := 0.0
	offset := 0
	for i, part := range k.parts {
		val += part.Eval(a, b, theta[offset:offset+k.sizes[i]])
		offset += k.sizes[i]
	}
	return val
}

// Package kern implements covariance functions for GP regression.
//
// Kernels are stateless: the hyperparameters are passed to every evaluation.
// The set of kernels is closed and enumerated by Kind; sums of kernels are
// kernels themselves (see Add).
package kern

import (
	"fmt"
	"math"
	"strings"

	"github.com/schluedj/Bayesian-NonParametrics/errs"
)

type Kernel interface {
	// Variant of the kernel.
	Kind() Kind

	// Number of hyperparameters :math:`|\theta|`.
	NumHyper() int

	// Check the arity and the constraints of every entry of theta.
	Validate(theta []float64) error

	// Covariance :math:`k(a, b; \theta)`. Assumes Validate(theta) succeeded
	// and len(a) == len(b).
	Eval(a, b, theta []float64) float64
}

type Kind int

const (
	KindSquaredExp Kind = iota
	KindLinearExp
	KindConstant
	KindLinear
	KindMatern12
	KindMatern32
	KindSum
)

var kindNames = map[Kind]string{
	KindSquaredExp: "sqexp",
	KindLinearExp:  "linexp",
	KindConstant:   "const",
	KindLinear:     "linear",
	KindMatern12:   "matern12",
	KindMatern32:   "matern32",
	KindSum:        "sum",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a name such as "sqexp" to the corresponding leaf kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == name && kind != KindSum {
			return kind, nil
		}
	}
	return 0, errs.Newf(errs.ErrInvalidHyperparameters, "unknown kernel %q", name)
}

// New returns the kernel of a leaf kind. Sums are built with NewAdd.
func New(kind Kind) (Kernel, error) {
	switch kind {
	case KindSquaredExp:
		return &SquaredExp{}, nil
	case KindLinearExp:
		return &LinearExp{}, nil
	case KindConstant:
		return &Constant{}, nil
	case KindLinear:
		return &Linear{}, nil
	case KindMatern12:
		return &Matern12{}, nil
	case KindMatern32:
		return &Matern32{}, nil
	}
	return nil, errs.Newf(errs.ErrInvalidHyperparameters, "no leaf kernel for %s", kind)
}

// Cov evaluates k after validating theta and the dimensions of the inputs.
func Cov(k Kernel, a, b, theta []float64) (float64, error) {
	if err := k.Validate(theta); err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, errs.Newf(errs.ErrDimensionMismatch,
			"inputs of dimension %d and %d", len(a), len(b))
	}
	return k.Eval(a, b, theta), nil
}

// checkArity is shared by the leaf kernels.
func checkArity(kind Kind, want int, theta []float64) error {
	if len(theta) != want {
		return errs.Newf(errs.ErrInvalidHyperparameters,
			"%s: want %d hyperparameters, got %d", kind, want, len(theta))
	}
	for i, v := range theta {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.Newf(errs.ErrInvalidHyperparameters,
				"%s: theta[%d] = %v is not finite", kind, i, v)
		}
	}
	return nil
}

func checkPositive(kind Kind, theta []float64, idx ...int) error {
	for _, i := range idx {
		if theta[i] <= 0 {
			return errs.Newf(errs.ErrInvalidHyperparameters,
				"%s: theta[%d] = %v must be > 0", kind, i, theta[i])
		}
	}
	return nil
}

func checkNonNegative(kind Kind, theta []float64, idx ...int) error {
	for _, i := range idx {
		if theta[i] < 0 {
			return errs.Newf(errs.ErrInvalidHyperparameters,
				"%s: theta[%d] = %v must be >= 0", kind, i, theta[i])
		}
	}
	return nil
}

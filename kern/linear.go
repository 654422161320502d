package kern

import (
	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	linear *Linear
	_      Kernel = linear // Check that Linear respects the Kernel interface.
)

// Linear is the dot-product kernel, theta = [variance].
type Linear struct{}

func (k *Linear) Kind() Kind {
	return KindLinear
}

func (k *Linear) NumHyper() int {
	return 1
}

func (k *Linear) Validate(theta []float64) error {
	if err := checkArity(KindLinear, 1, theta); err != nil {
		return err
	}
	return checkPositive(KindLinear, theta, 0)
}

func (k *Linear) Eval(a, b, theta []float64) float64 {
	return theta[0] * utils.Dot(a, b)
}

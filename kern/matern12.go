package kern

import (
	"math"

	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	matern12 *Matern12
	_        Kernel = matern12 // Check that Matern12 respects the Kernel interface.
)

// Matern12 (exponential kernel), theta = [variance, lengthscale].
type Matern12 struct{}

func (k *Matern12) Kind() Kind {
	return KindMatern12
}

func (k *Matern12) NumHyper() int {
	return 2
}

func (k *Matern12) Validate(theta []float64) error {
	if err := checkArity(KindMatern12, 2, theta); err != nil {
		return err
	}
	return checkPositive(KindMatern12, theta, 0, 1)
}

func (k *Matern12) Eval(a, b, theta []float64) float64 {
	r := math.Sqrt(utils.SqDist(a, b))
	return theta[0] * math.Exp(-r/theta[1])
}

package kern

import (
	"math"

	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	matern32 *Matern32
	_        Kernel = matern32 // Check that Matern32 respects the Kernel interface.
)

// Matern32, theta = [variance, lengthscale].
type Matern32 struct{}

func (k *Matern32) Kind() Kind {
	return KindMatern32
}

func (k *Matern32) NumHyper() int {
	return 2
}

func (k *Matern32) Validate(theta []float64) error {
	if err := checkArity(KindMatern32, 2, theta); err != nil {
		return err
	}
	return checkPositive(KindMatern32, theta, 0, 1)
}

func (k *Matern32) Eval(a, b, theta []float64) float64 {
	// lambda * r, with lambda = sqrt(3) / lengthscale.
	lr := math.Sqrt(3) / theta[1] * math.Sqrt(utils.SqDist(a, b))
	return theta[0] * (1 + lr) * math.Exp(-lr)
}

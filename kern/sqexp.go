package kern

import (
	"math"

	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	sqExp *SquaredExp
	_     Kernel = sqExp // Check that SquaredExp respects the Kernel interface.
)

// SquaredExp is :math:`\theta_1 \exp(-\theta_2 \|a - b\|^2 / 2)`, with
// theta = [scale, inverse lengthscale].
type SquaredExp struct{}

func (k *SquaredExp) Kind() Kind {
	return KindSquaredExp
}

func (k *SquaredExp) NumHyper() int {
	return 2
}

func (k *SquaredExp) Validate(theta []float64) error {
	if err := checkArity(KindSquaredExp, 2, theta); err != nil {
		return err
	}
	return checkPositive(KindSquaredExp, theta, 0, 1)
}

func (k *SquaredExp) Eval(a, b, theta []float64) float64 {
	return theta[0] * math.Exp(-0.5*theta[1]*utils.SqDist(a, b))
}

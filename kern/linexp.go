package kern

import (
	"math"

	"github.com/schluedj/Bayesian-NonParametrics/utils"
)

var (
	linExp *LinearExp
	_      Kernel = linExp // Check that LinearExp respects the Kernel interface.
)

// LinearExp is the squared exponential plus a constant and a linear term:
// :math:`\theta_1 \exp(-\theta_2 \|a - b\|^2 / 2) + \theta_3 + \theta_4 a^\top b`.
// The last two entries may be zero, which switches the terms off.
type LinearExp struct{}

func (k *LinearExp) Kind() Kind {
	return KindLinearExp
}

func (k *LinearExp) NumHyper() int {
	return 4
}

func (k *LinearExp) Validate(theta []float64) error {
	if err := checkArity(KindLinearExp, 4, theta); err != nil {
		return err
	}
	if err := checkPositive(KindLinearExp, theta, 0, 1); err != nil {
		return err
	}
	return checkNonNegative(KindLinearExp, theta, 2, 3)
}

func (k *LinearExp) Eval(a, b, theta []float64) float64 {
	se := theta[0] * math.Exp(-0.5*theta[1]*utils.SqDist(a, b))
	return se + theta[2] + theta[3]*utils.Dot(a, b)
}

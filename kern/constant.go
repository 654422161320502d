package kern

var (
	constant *Constant
	_        Kernel = constant // Check that Constant respects the Kernel interface.
)

// Constant is the covariance of a constant offset, theta = [variance].
type Constant struct{}

func (k *Constant) Kind() Kind {
	return KindConstant
}

func (k *Constant) NumHyper() int {
	return 1
}

func (k *Constant) Validate(theta []float64) error {
	if err := checkArity(KindConstant, 1, theta); err != nil {
		return err
	}
	return checkPositive(KindConstant, theta, 0)
}

func (k *Constant) Eval(a, b, theta []float64) float64 {
	return theta[0]
}

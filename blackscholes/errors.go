package blackscholes

import "github.com/pkg/errors"

var (
	// ErrInvalidParameter marks inputs the model cannot be evaluated on.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNonConvergence is returned together with the best estimate when the solver gives up.
	ErrNonConvergence = errors.New("implied volatility did not converge")
	// ErrOutOfRange marks a market price outside the no-arbitrage bounds.
	ErrOutOfRange = errors.New("market price outside no-arbitrage bounds")
)

func invalidParameter(name string, value interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, "%s=%v", name, value)
}

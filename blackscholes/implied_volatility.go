package blackscholes

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	DefaultPrecision         = 1e-4
	DefaultMaxIterations     = 100
	DefaultInitialVolatility = 0.5
	DefaultMinVolatility     = 1e-4
	DefaultMaxVolatility     = 5.0

	// below this vega a Newton step is meaningless
	minVega = 1e-8
	// secant steps before the bisection solver falls back to halving
	secantSteps = 5
)

// SolverConfig controls both implied volatility solvers.
type SolverConfig struct {
	Precision         float64 // accept when |model − market| < Precision
	MaxIterations     int
	InitialVolatility float64 // Newton seed
	MinVolatility     float64 // floor after each Newton step, lower bracket for bisection
	MaxVolatility     float64 // ceiling after each Newton step, upper bracket for bisection
	CheckBounds       bool    // reject prices outside NoArbitrageBounds before iterating
	Logger            logrus.FieldLogger
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Precision:         DefaultPrecision,
		MaxIterations:     DefaultMaxIterations,
		InitialVolatility: DefaultInitialVolatility,
		MinVolatility:     DefaultMinVolatility,
		MaxVolatility:     DefaultMaxVolatility,
	}
}

func (c SolverConfig) Validate() error {
	if !positive(c.Precision) {
		return invalidParameter("precision", c.Precision)
	}
	if c.MaxIterations <= 0 {
		return invalidParameter("max iterations", c.MaxIterations)
	}
	if !positive(c.MinVolatility) {
		return invalidParameter("min volatility", c.MinVolatility)
	}
	if !positive(c.MaxVolatility) || c.MaxVolatility <= c.MinVolatility {
		return invalidParameter("max volatility", c.MaxVolatility)
	}
	if !positive(c.InitialVolatility) {
		return invalidParameter("initial volatility", c.InitialVolatility)
	}
	return nil
}

// ImpliedVolatilityResult is the solver's best estimate. Iterations counts
// completed steps; on exhaustion it equals MaxIterations.
type ImpliedVolatilityResult struct {
	Volatility float64 `json:"volatility"`
	Price      float64 `json:"price"` // model price at Volatility
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

var silent = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

func (c SolverConfig) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return silent
	}
	return c.Logger
}

func (c SolverConfig) clamp(sigma float64) float64 {
	return math.Min(math.Max(sigma, c.MinVolatility), c.MaxVolatility)
}

func prepareSolve(p OptionParameters, marketPrice float64, cfg SolverConfig) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if math.IsNaN(marketPrice) || math.IsInf(marketPrice, 0) {
		return invalidParameter("market price", marketPrice)
	}
	if !cfg.CheckBounds {
		return nil
	}
	lower, upper, err := NoArbitrageBounds(p)
	if err != nil {
		return err
	}
	if marketPrice < lower || marketPrice > upper {
		return errors.Wrapf(ErrOutOfRange, "market price %v not in [%v, %v]", marketPrice, lower, upper)
	}
	return nil
}

// SolveImpliedVolatility inverts the pricing formula with Newton-Raphson on σ.
// A non-converged run still returns its last estimate along with an error
// wrapping ErrNonConvergence.
func SolveImpliedVolatility(p OptionParameters, marketPrice float64, cfg SolverConfig) (ImpliedVolatilityResult, error) {
	if err := prepareSolve(p, marketPrice, cfg); err != nil {
		return ImpliedVolatilityResult{}, err
	}
	log := cfg.logger().WithField("method", "newton")

	sigma := cfg.InitialVolatility
	var res ImpliedVolatilityResult
	for i := 0; i < cfg.MaxIterations; i++ {
		pr, err := Evaluate(p.WithVolatility(sigma))
		if err != nil {
			return ImpliedVolatilityResult{}, err
		}
		res = ImpliedVolatilityResult{Volatility: sigma, Price: pr.Price, Iterations: i}

		diff := pr.Price - marketPrice
		log.WithFields(logrus.Fields{
			"iteration": i,
			"sigma":     sigma,
			"price":     pr.Price,
			"vega":      pr.Vega,
			"diff":      diff,
		}).Debug("newton step")

		if math.Abs(diff) < cfg.Precision {
			res.Converged = true
			return res, nil
		}
		if pr.Vega < minVega {
			if diff > 0 {
				// model price sits on its σ→0 plateau above the market: retry from
				// the floor, and once there the market is below the lower bound
				sigma = cfg.MinVolatility
				continue
			}
			return res, errors.Wrapf(ErrNonConvergence, "vega %v vanished at iteration %d, sigma=%v", pr.Vega, i, sigma)
		}
		sigma = cfg.clamp(sigma - diff/pr.Vega)
	}
	res.Iterations = cfg.MaxIterations
	return res, errors.Wrapf(ErrNonConvergence, "no solution within %d iterations, last sigma=%v price=%v",
		cfg.MaxIterations, res.Volatility, res.Price)
}

// SolveImpliedVolatilityBisection brackets σ in [MinVolatility, MaxVolatility].
// The first few steps interpolate linearly between the bracket prices, after
// that the bracket is halved.
func SolveImpliedVolatilityBisection(p OptionParameters, marketPrice float64, cfg SolverConfig) (ImpliedVolatilityResult, error) {
	if err := prepareSolve(p, marketPrice, cfg); err != nil {
		return ImpliedVolatilityResult{}, err
	}
	log := cfg.logger().WithField("method", "bisection")
	priceAt := func(iv float64) (float64, error) {
		return Price(p.WithVolatility(iv))
	}

	ivMin, ivMax := cfg.MinVolatility, cfg.MaxVolatility
	opMin, err := priceAt(ivMin)
	if err != nil {
		return ImpliedVolatilityResult{}, err
	}
	opMax, err := priceAt(ivMax)
	if err != nil {
		return ImpliedVolatilityResult{}, err
	}

	// market price outside what the bracket can reach
	if marketPrice < opMin-cfg.Precision {
		return ImpliedVolatilityResult{Volatility: ivMin, Price: opMin},
			errors.Wrapf(ErrNonConvergence, "market price %v below model price %v at sigma=%v", marketPrice, opMin, ivMin)
	}
	if marketPrice > opMax+cfg.Precision {
		return ImpliedVolatilityResult{Volatility: ivMax, Price: opMax},
			errors.Wrapf(ErrNonConvergence, "market price %v above model price %v at sigma=%v", marketPrice, opMax, ivMax)
	}

	iv := (ivMin + ivMax) / 2
	var res ImpliedVolatilityResult
	for i := 0; i < cfg.MaxIterations; i++ {
		op, err := priceAt(iv)
		if err != nil {
			return ImpliedVolatilityResult{}, err
		}
		res = ImpliedVolatilityResult{Volatility: iv, Price: op, Iterations: i}
		log.WithFields(logrus.Fields{"iteration": i, "sigma": iv, "price": op}).Debug("bisection step")

		if math.Abs(op-marketPrice) < cfg.Precision {
			res.Converged = true
			return res, nil
		}
		if op < marketPrice {
			ivMin, opMin = iv, op
		} else {
			ivMax, opMax = iv, op
		}

		if i >= secantSteps || scalar.EqualWithinAbs(opMax, opMin, 1e-15) {
			iv = (ivMax + ivMin) / 2
		} else {
			iv = cfg.clamp(ivMin + (marketPrice-opMin)*(ivMax-ivMin)/(opMax-opMin))
		}
	}
	res.Iterations = cfg.MaxIterations
	return res, errors.Wrapf(ErrNonConvergence, "bracket [%v, %v] not resolved within %d iterations",
		ivMin, ivMax, cfg.MaxIterations)
}

// Package cli is the bsiv command line: it prices a European option or solves
// for the volatility implied by a market price.
package cli

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlerive/bsiv/blackscholes"
	"github.com/charlerive/bsiv/config"
	"github.com/charlerive/bsiv/logger"
	"github.com/charlerive/bsiv/report"
)

const (
	ModeOptionPrice       = "optionprice"
	ModeImpliedVolatility = "impliedvolatility"

	MethodNewton    = "newton"
	MethodBisection = "bisection"
)

const (
	ExitOK = iota
	ExitInvalid
	ExitNotConverged
)

// ExitCode maps an error returned by the command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, blackscholes.ErrNonConvergence):
		return ExitNotConverged
	default:
		return ExitInvalid
	}
}

type runArgs struct {
	spot, strike, rate float64
	sigma, marketPrice float64
	tau                float64
	expiryDate         string
	optionType         string
	mode               string
	precision          float64
	iterations         int
	initialVolatility  float64
	maxVolatility      float64
	method             string
	checkBounds        bool
	greeks             bool
	output             string
	decimals           int32
	logLevel           string
}

// NewCommand builds the root command. cfg seeds the flag defaults and now is
// the clock used to turn --expirydate into tau.
func NewCommand(cfg config.Config, now func() time.Time) *cobra.Command {
	var a runArgs
	cmd := &cobra.Command{
		Use:   "bsiv --s 10 --x 10 --r 0.01 --tau 0.25 --sigma 0.3 --optiontype put",
		Short: "Black-Scholes option price and implied volatility",
		Long: "Prices a European option under Black-Scholes (--mode optionprice) or solves for the\n" +
			"volatility that reproduces a market price (--mode impliedvolatility).",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.initialVolatility = cfg.InitialVolatility
			return run(cmd, a, now)
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&a.spot, "s", "s", 0, "stock price")
	f.Float64VarP(&a.strike, "x", "x", 0, "strike price")
	f.Float64VarP(&a.rate, "r", "r", 0, "risk-free interest rate")
	f.Float64VarP(&a.sigma, "sigma", "v", 0, "volatility, for optionprice")
	f.Float64Var(&a.marketPrice, "mp", 0, "market price of the option, for impliedvolatility")
	f.Float64VarP(&a.tau, "tau", "t", 0, "time to expiration in years")
	f.StringVar(&a.expiryDate, "expirydate", "", "expiry date in dd/mm/yyyy format, instead of --tau")
	f.StringVar(&a.optionType, "optiontype", string(blackscholes.Call), "call or put")
	f.StringVarP(&a.mode, "mode", "m", ModeOptionPrice, "optionprice or impliedvolatility")
	f.Float64VarP(&a.precision, "precision", "p", cfg.Precision, "threshold below which to accept a volatility estimate")
	f.IntVarP(&a.iterations, "iterations", "i", cfg.Iterations, "maximum number of solver iterations")
	f.Float64Var(&a.maxVolatility, "max-volatility", blackscholes.DefaultMaxVolatility,
		"largest volatility the solvers search; raise it for prices close to the spot")
	f.StringVar(&a.method, "method", MethodNewton, "implied volatility solver: newton or bisection")
	f.BoolVar(&a.checkBounds, "check-bounds", false, "reject market prices outside the no-arbitrage bounds before solving")
	f.BoolVar(&a.greeks, "greeks", false, "print greeks along with the price")
	f.StringVarP(&a.output, "output", "o", cfg.Output, "output format: text, table or json")
	f.Int32Var(&a.decimals, "decimals", 6, "decimal places of printed values")
	f.StringVar(&a.logLevel, "log-level", cfg.LogLevel, "log level")

	for _, name := range []string{"s", "x", "r"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.MarkFlagsMutuallyExclusive("tau", "expirydate")
	return cmd
}

func run(cmd *cobra.Command, a runArgs, now func() time.Time) error {
	log, err := logger.New(a.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.output = strings.ToLower(a.output)
	if !report.ValidFormat(a.output) {
		return errors.Wrapf(blackscholes.ErrInvalidParameter, "output=%q", a.output)
	}

	params, err := buildParams(cmd, a, now)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"spot":   params.Spot,
		"strike": params.Strike,
		"rate":   params.Rate,
		"tau":    params.Tau,
		"type":   params.Type,
		"mode":   a.mode,
	}).Debug("parameters")

	rep := report.Report{Params: params}
	var solveErr error
	switch strings.ToLower(a.mode) {
	case ModeOptionPrice:
		if !cmd.Flags().Changed("sigma") {
			return errors.Wrap(blackscholes.ErrInvalidParameter, "--sigma is required for optionprice")
		}
		params = params.WithVolatility(a.sigma)
		rep.Params = params
		pr, err := blackscholes.Evaluate(params)
		if err != nil {
			return err
		}
		rep.Pricing = &pr
		if a.greeks {
			g, err := blackscholes.ComputeGreeks(params)
			if err != nil {
				return err
			}
			rep.Greeks = &g
		}
	case ModeImpliedVolatility:
		if !cmd.Flags().Changed("mp") {
			return errors.Wrap(blackscholes.ErrInvalidParameter, "--mp is required for impliedvolatility")
		}
		res, err := solve(params, a, log)
		if err != nil && !errors.Is(err, blackscholes.ErrNonConvergence) {
			return err
		}
		if err != nil {
			log.WithError(err).Warn("best estimate is not converged")
		}
		solveErr = err
		rep.ImpliedVolatility = &res
	default:
		return errors.Wrapf(blackscholes.ErrInvalidParameter, "mode=%q, want %s or %s", a.mode, ModeOptionPrice, ModeImpliedVolatility)
	}

	if err := report.Write(cmd.OutOrStdout(), a.output, a.decimals, rep); err != nil {
		return err
	}
	return solveErr
}

func buildParams(cmd *cobra.Command, a runArgs, now func() time.Time) (blackscholes.OptionParameters, error) {
	optionType, err := blackscholes.ParseOptionType(a.optionType)
	if err != nil {
		return blackscholes.OptionParameters{}, err
	}

	tau := a.tau
	switch {
	case cmd.Flags().Changed("tau"):
	case a.expiryDate != "":
		expiry, err := blackscholes.ParseExpiryDate(a.expiryDate, time.Local)
		if err != nil {
			return blackscholes.OptionParameters{}, err
		}
		tau = blackscholes.TimeToExpiry(expiry, now())
	default:
		return blackscholes.OptionParameters{}, errors.Wrap(blackscholes.ErrInvalidParameter, "one of --tau or --expirydate is required")
	}

	return blackscholes.NewOptionParameters(a.spot, a.strike, a.rate, tau, optionType)
}

func solve(p blackscholes.OptionParameters, a runArgs, log logrus.FieldLogger) (blackscholes.ImpliedVolatilityResult, error) {
	cfg := blackscholes.DefaultSolverConfig()
	cfg.Precision = a.precision
	cfg.MaxIterations = a.iterations
	cfg.InitialVolatility = a.initialVolatility
	cfg.MaxVolatility = a.maxVolatility
	cfg.CheckBounds = a.checkBounds
	cfg.Logger = log

	switch strings.ToLower(a.method) {
	case MethodNewton:
		return blackscholes.SolveImpliedVolatility(p, a.marketPrice, cfg)
	case MethodBisection:
		return blackscholes.SolveImpliedVolatilityBisection(p, a.marketPrice, cfg)
	}
	return blackscholes.ImpliedVolatilityResult{}, errors.Wrapf(blackscholes.ErrInvalidParameter, "method=%q", a.method)
}

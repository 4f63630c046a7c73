package blackscholes

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Black–Scholes model for European options without dividends
// see wiki: https://en.wikipedia.org/wiki/Black%E2%80%93Scholes_model

// PricingResult is the model price together with its vega.
type PricingResult struct {
	Price float64 `json:"price"`
	Vega  float64 `json:"vega"` // ∂price/∂σ
}

// Greeks are quoted the way desks read them: vega and rho per one point
// (0.01) of volatility and rate, theta per calendar day.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// bsm caches the intermediate terms shared by price and greeks.
type bsm struct {
	OptionParameters
	sqrtT float64
	df    float64 // e^(−rτ)
	d1    float64
	d2    float64
	nd1   float64 // φ(d1)
}

func newBSM(p OptionParameters) (*bsm, error) {
	if err := p.validateWithVolatility(); err != nil {
		return nil, err
	}
	m := &bsm{OptionParameters: p}
	m.sqrtT = math.Sqrt(p.Tau)
	m.df = math.Exp(-p.Rate * p.Tau)
	m.calcD1()
	m.calcD2()
	m.nd1 = Pdf(m.d1)
	return m, nil
}

func (m *bsm) calcD1() {
	m.d1 = (math.Log(m.Spot/m.Strike) + (m.Rate+m.Volatility*m.Volatility/2)*m.Tau) / (m.Volatility * m.sqrtT)
}

func (m *bsm) calcD2() {
	m.d2 = m.d1 - m.Volatility*m.sqrtT
}

func (m *bsm) price() float64 {
	var op float64
	if m.Type == Call {
		op = m.Spot*Cdf(m.d1) - m.Strike*m.df*Cdf(m.d2)
	} else {
		op = m.Strike*m.df*Cdf(-m.d2) - m.Spot*Cdf(-m.d1)
	}
	// far out of the money the subtraction can land a few ulps below zero
	return math.Max(op, 0)
}

func (m *bsm) vega() float64 {
	return m.Spot * m.nd1 * m.sqrtT
}

func (m *bsm) delta() float64 {
	if m.Type == Call {
		return Cdf(m.d1)
	}
	return Cdf(m.d1) - 1
}

func (m *bsm) gamma() float64 {
	return m.nd1 / (m.Spot * m.Volatility * m.sqrtT)
}

func (m *bsm) theta() float64 {
	decay := -m.Spot * m.Volatility / (2 * m.sqrtT) * m.nd1
	if m.Type == Call {
		return decay - m.Rate*m.Strike*m.df*Cdf(m.d2)
	}
	return decay + m.Rate*m.Strike*m.df*Cdf(-m.d2)
}

func (m *bsm) rho() float64 {
	if m.Type == Call {
		return m.Tau * m.Strike * m.df * Cdf(m.d2)
	}
	return -m.Tau * m.Strike * m.df * Cdf(-m.d2)
}

// Price returns the Black-Scholes value of the option described by p.
func Price(p OptionParameters) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	return m.price(), nil
}

// Vega returns ∂price/∂σ. It is the same for calls and puts.
func Vega(p OptionParameters) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	return m.vega(), nil
}

// Evaluate returns price and vega from a single evaluation of d1/d2.
func Evaluate(p OptionParameters) (PricingResult, error) {
	m, err := newBSM(p)
	if err != nil {
		return PricingResult{}, err
	}
	return PricingResult{Price: m.price(), Vega: m.vega()}, nil
}

// ComputeGreeks returns delta, gamma, vega, theta and rho, with vega and rho
// per volatility/rate point and theta per calendar day.
func ComputeGreeks(p OptionParameters) (Greeks, error) {
	m, err := newBSM(p)
	if err != nil {
		return Greeks{}, err
	}
	return Greeks{
		Delta: m.delta(),
		Gamma: m.gamma(),
		Vega:  m.vega() / 100,
		Theta: m.theta() / 365,
		Rho:   m.rho() / 100,
	}, nil
}

// Cdf is the standard normal cumulative distribution function.
func Cdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// Pdf is the standard normal density.
func Pdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

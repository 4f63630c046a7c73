package blackscholes

import (
	"math"
	"strings"
)

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" and the short "c"/"p" forms, case-insensitively.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", invalidParameter("option type", s)
}

func (t OptionType) valid() bool {
	return t == Call || t == Put
}

// OptionParameters holds the inputs of one European option valuation.
// Volatility is only required by the pricing functions; the solvers ignore it.
type OptionParameters struct {
	Spot       float64    `json:"spot"`       // S, underlying price
	Strike     float64    `json:"strike"`     // X
	Rate       float64    `json:"rate"`       // r, continuously compounded, may be negative
	Volatility float64    `json:"volatility"` // σ, annualised
	Tau        float64    `json:"tau"`        // years to expiry
	Type       OptionType `json:"type"`
}

// NewOptionParameters validates and builds parameters without a volatility.
func NewOptionParameters(spot, strike, rate, tau float64, optionType OptionType) (OptionParameters, error) {
	p := OptionParameters{
		Spot:   spot,
		Strike: strike,
		Rate:   rate,
		Tau:    tau,
		Type:   optionType,
	}
	if err := p.Validate(); err != nil {
		return OptionParameters{}, err
	}
	return p, nil
}

// WithVolatility returns a copy of p priced at sigma.
func (p OptionParameters) WithVolatility(sigma float64) OptionParameters {
	p.Volatility = sigma
	return p
}

// Validate checks everything except the volatility.
func (p OptionParameters) Validate() error {
	if !positive(p.Spot) {
		return invalidParameter("spot", p.Spot)
	}
	if !positive(p.Strike) {
		return invalidParameter("strike", p.Strike)
	}
	if !positive(p.Tau) {
		return invalidParameter("tau", p.Tau)
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return invalidParameter("rate", p.Rate)
	}
	if !p.Type.valid() {
		return invalidParameter("option type", p.Type)
	}
	return nil
}

func (p OptionParameters) validateWithVolatility() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !positive(p.Volatility) {
		return invalidParameter("volatility", p.Volatility)
	}
	return nil
}

// positive is false for NaN and +Inf as well as for x <= 0.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// DiscountedStrike is X·e^(−rτ).
func (p OptionParameters) DiscountedStrike() float64 {
	return p.Strike * math.Exp(-p.Rate*p.Tau)
}

// NoArbitrageBounds returns the range any European option price must lie in,
// i.e. the model price as σ→0 and σ→∞.
func NoArbitrageBounds(p OptionParameters) (lower, upper float64, err error) {
	if err = p.Validate(); err != nil {
		return 0, 0, err
	}
	k := p.DiscountedStrike()
	if p.Type == Call {
		return math.Max(p.Spot-k, 0), p.Spot, nil
	}
	return math.Max(k-p.Spot, 0), k, nil
}

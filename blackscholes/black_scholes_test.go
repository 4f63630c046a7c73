package blackscholes

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

var pricingCases = []OptionParameters{
	{Spot: 10, Strike: 10, Rate: 0.01, Volatility: 0.3, Tau: 0.25, Type: Put},
	{Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Tau: 1, Type: Call},
	{Spot: 100, Strike: 120, Rate: 0.03, Volatility: 0.35, Tau: 0.5, Type: Put},
	{Spot: 50, Strike: 40, Rate: -0.01, Volatility: 0.6, Tau: 2, Type: Call},
	{Spot: 100, Strike: 80, Rate: 0.02, Volatility: 0.15, Tau: 0.1, Type: Put},
	{Spot: 4600, Strike: 5000, Rate: 0.025, Volatility: 1.0304, Tau: 0.1644, Type: Put},
	{Spot: 25490.88, Strike: 25000, Rate: 0, Volatility: 0.56, Tau: 0.0309, Type: Call},
}

func withType(p OptionParameters, t OptionType) OptionParameters {
	p.Type = t
	return p
}

func TestPrice_ReferenceValues(t *testing.T) {
	tests := []struct {
		name   string
		params OptionParameters
		want   float64
	}{
		{"atm put", pricingCases[0], 0.58470},
		{"atm call", withType(pricingCases[0], Call), 0.60967},
		{"hull call", pricingCases[1], 10.45058},
		{"otm put", pricingCases[2], 22.19914},
		{"negative rate call", pricingCases[3], 19.91588},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.params)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestPrice_NoArbitrageBounds(t *testing.T) {
	for _, p := range pricingCases {
		for _, typ := range []OptionType{Call, Put} {
			p := withType(p, typ)
			price, err := Price(p)
			require.NoError(t, err)
			lower, upper, err := NoArbitrageBounds(p)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, price, 0.0, "%+v", p)
			assert.LessOrEqual(t, price, upper+1e-9, "%+v", p)
			assert.GreaterOrEqual(t, price, lower-1e-9, "%+v", p)
		}
	}
}

func TestPrice_PutCallParity(t *testing.T) {
	for _, p := range pricingCases {
		call, err := Price(withType(p, Call))
		require.NoError(t, err)
		put, err := Price(withType(p, Put))
		require.NoError(t, err)

		rhs := p.Spot - p.DiscountedStrike()
		tol := 1e-9 * math.Max(1, p.Spot)
		assert.True(t, scalar.EqualWithinAbs(call-put, rhs, tol), "parity: %v != %v for %+v", call-put, rhs, p)
	}
}

func TestPrice_MonotoneInVolatility(t *testing.T) {
	for _, p := range pricingCases {
		for _, typ := range []OptionType{Call, Put} {
			prev := -1.0
			for sigma := 0.05; sigma <= 3; sigma += 0.05 {
				q := withType(p, typ).WithVolatility(sigma)
				price, err := Price(q)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, price, prev-1e-12, "%+v", q)
				prev = price

				vega, err := Vega(q)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, vega, 0.0)
			}
		}
	}
}

func TestVega_MatchesFiniteDifference(t *testing.T) {
	const h = 1e-5
	for _, p := range pricingCases {
		vega, err := Vega(p)
		require.NoError(t, err)
		up, err := Price(p.WithVolatility(p.Volatility + h))
		require.NoError(t, err)
		down, err := Price(p.WithVolatility(p.Volatility - h))
		require.NoError(t, err)
		assert.InEpsilon(t, (up-down)/(2*h), vega, 1e-4, "%+v", p)
	}
}

func TestEvaluate(t *testing.T) {
	p := pricingCases[1]
	res, err := Evaluate(p)
	require.NoError(t, err)

	price, _ := Price(p)
	vega, _ := Vega(p)
	assert.Equal(t, price, res.Price)
	assert.Equal(t, vega, res.Vega)
	assert.InDelta(t, 37.5240, res.Vega, 1e-3)
}

func TestPrice_InvalidParameters(t *testing.T) {
	base := pricingCases[0]
	tests := []struct {
		name   string
		mutate func(p *OptionParameters)
	}{
		{"zero volatility", func(p *OptionParameters) { p.Volatility = 0 }},
		{"negative volatility", func(p *OptionParameters) { p.Volatility = -0.2 }},
		{"zero tau", func(p *OptionParameters) { p.Tau = 0 }},
		{"negative tau", func(p *OptionParameters) { p.Tau = -1 }},
		{"zero spot", func(p *OptionParameters) { p.Spot = 0 }},
		{"negative strike", func(p *OptionParameters) { p.Strike = -10 }},
		{"nan rate", func(p *OptionParameters) { p.Rate = math.NaN() }},
		{"infinite spot", func(p *OptionParameters) { p.Spot = math.Inf(1) }},
		{"unknown type", func(p *OptionParameters) { p.Type = "straddle" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)

			price, err := Price(p)
			assert.True(t, errors.Is(err, ErrInvalidParameter), "got %v", err)
			assert.False(t, math.IsNaN(price))

			_, err = Vega(p)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			_, err = Evaluate(p)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			_, err = ComputeGreeks(p)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestInvalidParameter_NamesTheField(t *testing.T) {
	_, err := Price(pricingCases[0].WithVolatility(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volatility=0")
}

func TestNewOptionParameters(t *testing.T) {
	p, err := NewOptionParameters(10, 10, -0.005, 0.25, Put)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Volatility)
	assert.Equal(t, 0.3, p.WithVolatility(0.3).Volatility)
	assert.Equal(t, 0.0, p.Volatility, "WithVolatility must not mutate the receiver")

	_, err = NewOptionParameters(-10, 10, 0.01, 0.25, Call)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	_, err = NewOptionParameters(10, 10, 0.01, 0, Call)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestParseOptionType(t *testing.T) {
	for in, want := range map[string]OptionType{"call": Call, "C": Call, " Put ": Put, "p": Put} {
		got, err := ParseOptionType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOptionType("straddle")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestComputeGreeks(t *testing.T) {
	p := pricingCases[1]
	call, err := ComputeGreeks(p)
	require.NoError(t, err)
	put, err := ComputeGreeks(withType(p, Put))
	require.NoError(t, err)

	assert.InDelta(t, 0.636831, call.Delta, 1e-6)
	assert.InDelta(t, call.Delta-1, put.Delta, 1e-12)
	assert.InDelta(t, 0.018762, call.Gamma, 1e-6)
	assert.Equal(t, call.Gamma, put.Gamma)
	assert.InDelta(t, 0.375240, call.Vega, 1e-6)
	assert.InDelta(t, -6.414028/365, call.Theta, 1e-6)
	assert.InDelta(t, 0.532325, call.Rho, 1e-6)
	assert.Less(t, put.Rho, 0.0)
}

func TestCdf(t *testing.T) {
	assert.Equal(t, 0.5, Cdf(0))
	assert.InDelta(t, 0.975002104851780, Cdf(1.96), 1e-14)
	assert.InDelta(t, 1-Cdf(1.3), Cdf(-1.3), 1e-15)
	assert.InEpsilon(t, 2.866515718791939e-07, Cdf(-5), 1e-9)
	assert.InDelta(t, 0.3989422804014327, Pdf(0), 1e-15)
}

func BenchmarkPrice(b *testing.B) {
	p := pricingCases[5]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Price(p)
	}
}

func BenchmarkGreeks(b *testing.B) {
	p := pricingCases[5]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ComputeGreeks(p)
	}
}

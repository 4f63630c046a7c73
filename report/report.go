package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/charlerive/bsiv/blackscholes"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Report is what one command line run produces. Exactly one of Pricing and
// ImpliedVolatility is set.
type Report struct {
	Params            blackscholes.OptionParameters         `json:"params"`
	Pricing           *blackscholes.PricingResult           `json:"pricing,omitempty"`
	Greeks            *blackscholes.Greeks                  `json:"greeks,omitempty"`
	ImpliedVolatility *blackscholes.ImpliedVolatilityResult `json:"implied_volatility,omitempty"`
}

func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatTable, FormatJSON:
		return true
	}
	return false
}

// Write renders r. Numbers are rounded to decimals places except in json.
func Write(w io.Writer, format string, decimals int32, r Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Field", "Value"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.AppendBulk(rows(r, decimals))
		table.Render()
		return nil
	case FormatText:
		for _, row := range rows(r, decimals) {
			if _, err := fmt.Fprintf(w, "%s: %s\n", row[0], row[1]); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("unknown output format %q", format)
}

func rows(r Report, decimals int32) [][]string {
	num := func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(decimals)
	}
	var out [][]string
	if r.Pricing != nil {
		out = append(out, []string{"Option Price", num(r.Pricing.Price)})
		if r.Greeks != nil {
			out = append(out,
				[]string{"Delta", num(r.Greeks.Delta)},
				[]string{"Gamma", num(r.Greeks.Gamma)},
				[]string{"Vega", num(r.Greeks.Vega)},
				[]string{"Theta", num(r.Greeks.Theta)},
				[]string{"Rho", num(r.Greeks.Rho)},
			)
		}
	}
	if iv := r.ImpliedVolatility; iv != nil {
		out = append(out,
			[]string{"Implied Volatility", num(iv.Volatility)},
			[]string{"Model Price", num(iv.Price)},
			[]string{"Iterations", strconv.Itoa(iv.Iterations)},
			[]string{"Converged", strconv.FormatBool(iv.Converged)},
		)
	}
	return out
}

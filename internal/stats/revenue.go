package stats

import (
	"github.com/shopspring/decimal"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// SplitMode selects how a rep's pay is derived from their production.
type SplitMode string

const (
	// SplitPercent pays a percentage of revenue (value is the percentage,
	// e.g. 30 for 30%).
	SplitPercent SplitMode = "percent"
	// SplitFlat pays a fixed amount per closed deal (value is the amount).
	SplitFlat SplitMode = "flat"
	// SplitNone disables pay computation.
	SplitNone SplitMode = "none"
)

// Revenue returns kw × ratePerKW. Both the rate and the result are decimal
// so repeated summation stays exact; kW itself arrives as the float the
// parser produced.
func Revenue(kw float64, ratePerKW decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(kw).Mul(ratePerKW)
}

// TotalRevenue sums per-deal revenue across deals at the given rate.
// Nil kW counts as 0, consistent with every other aggregate.
func TotalRevenue(deals []domain.Deal, ratePerKW decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for i := range deals {
		total = total.Add(Revenue(deals[i].KWValue(), ratePerKW))
	}
	return total
}

// Pay computes a rep's cut for the given revenue and deal count under the
// configured split. Percent splits apply value/100 to revenue; flat splits
// pay value × count. SplitNone (and unknown modes) pay zero.
func Pay(mode SplitMode, value decimal.Decimal, revenue decimal.Decimal, count int) decimal.Decimal {
	switch mode {
	case SplitPercent:
		return revenue.Mul(value).Div(decimal.NewFromInt(100))
	case SplitFlat:
		return value.Mul(decimal.NewFromInt(int64(count)))
	}
	return decimal.Zero
}

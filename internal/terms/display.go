// internal/terms/display.go
package terms

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/models"
)

// Formatted is the customer-facing rendering of Terms.
type Formatted struct {
	Rate                    string `json:"rate"`
	PerTransactionFee       string `json:"perTransactionFee"`
	DailyLimit              string `json:"dailyLimit"`
	MonthlyVolumeLimit      string `json:"monthlyVolumeLimit"`
	SettlementDelay         string `json:"settlementDelay"`
	ContractLength          string `json:"contractLength"`
	ProjectedMonthlyRevenue string `json:"projectedMonthlyRevenue"`
	ProjectedFees           string `json:"projectedFees"`
	ProjectedNetProfit      string `json:"projectedNetProfit"`
}

func Display(t models.Terms) Formatted {
	return Formatted{
		Rate:                    Percent(t.Rate),
		PerTransactionFee:       Money(t.PerTransactionFee),
		DailyLimit:              Money(t.DailyLimit),
		MonthlyVolumeLimit:      Money(t.MonthlyVolumeLimit),
		SettlementDelay:         settlementLabel(t.SettlementDelay),
		ContractLength:          fmt.Sprintf("%d months", t.ContractLengthMonths),
		ProjectedMonthlyRevenue: Money(t.ProjectedMonthlyRevenue),
		ProjectedFees:           Money(t.ProjectedFees),
		ProjectedNetProfit:      Money(t.ProjectedNetProfit),
	}
}

// Money renders d as US dollars with thousands separators, e.g. $240,000.00.
func Money(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func Percent(d decimal.Decimal) string {
	return d.String() + "%"
}

func settlementLabel(s models.SettlementDelay) string {
	switch s {
	case models.SettlementNextBusinessDay:
		return "Next business day"
	default:
		return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
	}
}

// internal/terms/generator.go
package terms

import (
	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/risk"
)

const ContractLengthMonths = 12

var (
	defaultMonthlyVolume = decimal.NewFromInt(50_000)
	perTransactionFee    = decimal.RequireFromString("0.30")
	flatFeePer           = decimal.NewFromInt(100)
	projectionCap        = decimal.RequireFromString("0.8")
)

type tier struct {
	minScore     int
	rate         decimal.Decimal
	dailyLimit   decimal.Decimal
	monthlyLimit decimal.Decimal
}

// Highest tier first.
var tiers = []tier{
	{90, decimal.RequireFromString("2.9"), decimal.NewFromInt(50_000), decimal.NewFromInt(500_000)},
	{80, decimal.RequireFromString("3.2"), decimal.NewFromInt(40_000), decimal.NewFromInt(400_000)},
	{70, decimal.RequireFromString("3.5"), decimal.NewFromInt(30_000), decimal.NewFromInt(300_000)},
}

var fallbackTier = tier{0, decimal.RequireFromString("4.0"), decimal.NewFromInt(20_000), decimal.NewFromInt(200_000)}

// Generate prices an approved merchant. Projected revenue is the declared
// monthly volume capped at 80% of the tier's monthly limit.
func Generate(business models.BusinessData, riskScore int) models.Terms {
	t := selectTier(riskScore)

	volume := defaultMonthlyVolume
	if v, ok := risk.ParseAmount(string(business.MonthlyProcessingVolume)); ok && v >= 0 {
		volume = decimal.NewFromFloat(v)
	}

	revenue := decimal.Min(volume, t.monthlyLimit.Mul(projectionCap)).Round(2)
	fees := revenue.Mul(t.rate).Div(flatFeePer).
		Add(revenue.Div(flatFeePer).Mul(perTransactionFee)).
		Round(2)

	return models.Terms{
		Rate:                    t.rate,
		PerTransactionFee:       perTransactionFee,
		DailyLimit:              t.dailyLimit,
		MonthlyVolumeLimit:      t.monthlyLimit,
		SettlementDelay:         models.SettlementNextBusinessDay,
		ContractLengthMonths:    ContractLengthMonths,
		ProjectedMonthlyRevenue: revenue,
		ProjectedFees:           fees,
		ProjectedNetProfit:      revenue.Sub(fees),
	}
}

func selectTier(score int) tier {
	for _, t := range tiers {
		if score >= t.minScore {
			return t
		}
	}
	return fallbackTier
}

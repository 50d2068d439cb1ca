// internal/models/terms.go
package models

import "github.com/shopspring/decimal"

type SettlementDelay string

const (
	SettlementNextBusinessDay SettlementDelay = "NEXT_BUSINESS_DAY"
)

// Terms is the pricing schedule offered to an approved merchant. Rate is a
// percentage (3.5 means 3.5%); every other amount is in dollars.
type Terms struct {
	Rate                    decimal.Decimal `json:"rate"`
	PerTransactionFee       decimal.Decimal `json:"perTransactionFee"`
	DailyLimit              decimal.Decimal `json:"dailyLimit"`
	MonthlyVolumeLimit      decimal.Decimal `json:"monthlyVolumeLimit"`
	SettlementDelay         SettlementDelay `json:"settlementDelay"`
	ContractLengthMonths    int             `json:"contractLengthMonths"`
	ProjectedMonthlyRevenue decimal.Decimal `json:"projectedMonthlyRevenue"`
	ProjectedFees           decimal.Decimal `json:"projectedFees"`
	ProjectedNetProfit      decimal.Decimal `json:"projectedNetProfit"`
}

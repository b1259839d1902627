package domain

import "github.com/shopspring/decimal"

// Portfolio the trading view of an account: balance, holdings and the capped
// snapshot history. Returned to callers after a trade and persisted as one
// unit by the account store.
type Portfolio struct {
	Balance  decimal.Decimal
	Holdings map[string]decimal.Decimal
	History  []PortfolioSnapshot
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioHistoryLimit maximum snapshots retained per account, oldest evicted first.
const PortfolioHistoryLimit = 100

// PortfolioSnapshot point-in-time portfolio state appended after every accepted trade.
// TotalValue records the post-trade cash balance only, not mark-to-market net
// worth; the client's history charts were built against that shape, so it stays.
type PortfolioSnapshot struct {
	Timestamp  time.Time
	TotalValue decimal.Decimal
	Holdings   map[string]decimal.Decimal
}

// NewPortfolioSnapshot captures balance and a copy of holdings at ts.
func NewPortfolioSnapshot(ts time.Time, balance decimal.Decimal, holdings map[string]decimal.Decimal) PortfolioSnapshot {
	copied := make(map[string]decimal.Decimal, len(holdings))
	for s, q := range holdings {
		copied[s] = q
	}
	return PortfolioSnapshot{
		Timestamp:  ts,
		TotalValue: balance,
		Holdings:   copied,
	}
}

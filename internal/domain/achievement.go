package domain

import "github.com/shopspring/decimal"

// TradeStats aggregates over a user's full trade history.
type TradeStats struct {
	TradeCount    int
	TotalVolume   decimal.Decimal
	UniqueSymbols int
}

// Achievement profile badge derived from trade statistics. Unlocked state is
// recomputed on every read, nothing is persisted.
type Achievement struct {
	Key         string
	Title       string
	Description string
	Unlocked    bool
}

// Package profile derives read-only trade statistics and achievements.
// Nothing here is cached: every call recomputes from the trade store, which
// stays the single source of truth.
package profile

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

// TradeStore is the trade history the aggregator reads from.
type TradeStore interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]domain.Trade, error)
}

var highVolumeThreshold = decimal.NewFromInt(50000)

// achievementRule evaluates one badge from the aggregate stats. Rules are
// independent and order-insensitive.
type achievementRule struct {
	key         string
	title       string
	description string
	unlocked    func(stats domain.TradeStats) bool
}

var achievementRules = []achievementRule{
	{
		key:         "first-trade",
		title:       "First Trade",
		description: "Complete your first simulated trade.",
		unlocked:    func(s domain.TradeStats) bool { return s.TradeCount >= 1 },
	},
	{
		key:         "ten-trades",
		title:       "Active Trader",
		description: "Complete 10 or more simulated trades.",
		unlocked:    func(s domain.TradeStats) bool { return s.TradeCount >= 10 },
	},
	{
		key:         "high-volume",
		title:       "High Roller",
		description: "Trade over $50,000 total notional volume.",
		unlocked:    func(s domain.TradeStats) bool { return s.TotalVolume.GreaterThanOrEqual(highVolumeThreshold) },
	},
	{
		key:         "diversified",
		title:       "Diversified Portfolio",
		description: "Trade at least 3 different coins.",
		unlocked:    func(s domain.TradeStats) bool { return s.UniqueSymbols >= 3 },
	},
}

// Aggregator computes profile statistics on demand.
type Aggregator struct {
	trades TradeStore
}

// NewAggregator creates an Aggregator over the trade store.
func NewAggregator(trades TradeStore) *Aggregator {
	return &Aggregator{trades: trades}
}

// Aggregate recomputes trade count, total notional volume, distinct symbols
// and achievement flags from the user's full trade history.
func (a *Aggregator) Aggregate(ctx context.Context, userID string) (domain.TradeStats, []domain.Achievement, error) {
	all, err := a.trades.ListByUser(ctx, userID, 0)
	if err != nil {
		return domain.TradeStats{}, nil, errors.Wrap(err, "list trades")
	}

	stats := domain.TradeStats{
		TradeCount:  len(all),
		TotalVolume: decimal.Zero,
	}
	symbols := make(map[string]struct{})
	for _, t := range all {
		stats.TotalVolume = stats.TotalVolume.Add(t.Value)
		symbols[t.Symbol] = struct{}{}
	}
	stats.UniqueSymbols = len(symbols)

	achievements := make([]domain.Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		achievements = append(achievements, domain.Achievement{
			Key:         rule.key,
			Title:       rule.title,
			Description: rule.description,
			Unlocked:    rule.unlocked(stats),
		})
	}

	return stats, achievements, nil
}

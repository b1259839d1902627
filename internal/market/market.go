// Package market supplies best-effort price and news feeds for display and as
// the price input to trade requests. Feed failures fall back to static
// payloads and are logged; they never fail or block trading.
package market

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CoinPrice display payload for one tracked coin.
type CoinPrice struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change24h"`
	MarketCap float64   `json:"marketCap"`
	Sparkline []float64 `json:"sparkline"`
}

// NewsItem one headline for the dashboard news feed.
type NewsItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// PriceProvider fetches current prices for the tracked coins.
type PriceProvider interface {
	Prices(ctx context.Context) ([]CoinPrice, error)
}

// NewsProvider fetches current headlines.
type NewsProvider interface {
	News(ctx context.Context) ([]NewsItem, error)
}

// Service wraps the providers with the static fallbacks.
type Service struct {
	prices PriceProvider
	news   NewsProvider
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates the market service. A nil logger is replaced with a nop.
func NewService(prices PriceProvider, news NewsProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{prices: prices, news: news, logger: logger, now: time.Now}
}

// Prices returns current coin prices, or the static fallback set when the
// provider errors or is unreachable. Never fails.
func (s *Service) Prices(ctx context.Context) []CoinPrice {
	prices, err := s.prices.Prices(ctx)
	if err != nil {
		s.logger.Warn("market price fetch failed, using fallback", zap.Error(err))
		return FallbackPrices()
	}
	return prices
}

// News returns current headlines, or the static fallback set when the
// provider errors or is unreachable. Never fails.
func (s *Service) News(ctx context.Context) []NewsItem {
	items, err := s.news.News(ctx)
	if err != nil || len(items) == 0 {
		if err != nil {
			s.logger.Warn("news fetch failed, using fallback", zap.Error(err))
		}
		return FallbackNews(s.now().UTC())
	}
	return items
}

// FallbackPrices is the fixed payload served when the price feed is down.
func FallbackPrices() []CoinPrice {
	return []CoinPrice{
		{
			ID:        "bitcoin",
			Symbol:    "BTC",
			Name:      "Bitcoin",
			Price:     67000,
			Change24h: 2.35,
			MarketCap: 1_300_000_000_000,
			Sparkline: []float64{},
		},
		{
			ID:        "ethereum",
			Symbol:    "ETH",
			Name:      "Ethereum",
			Price:     3200,
			Change24h: -1.1,
			MarketCap: 380_000_000_000,
			Sparkline: []float64{},
		},
		{
			ID:        "tether",
			Symbol:    "USDT",
			Name:      "Tether",
			Price:     1,
			Change24h: 0,
			MarketCap: 110_000_000_000,
			Sparkline: []float64{},
		},
	}
}

// FallbackNews is the fixed payload served when the news feed is down.
func FallbackNews(now time.Time) []NewsItem {
	return []NewsItem{
		{
			Title:       "CryptoSim virtual market update",
			Description: "Practice trading with simulated BTC, ETH, USDT, BNB and SOL while tracking your portfolio in real time.",
			Source:      "CryptoSim News Bot",
			PublishedAt: now,
		},
		{
			Title:       "Market education tip",
			Description: "Watch how your simulated portfolio value responds to price swings without risking real capital.",
			Source:      "CryptoSim Academy",
			PublishedAt: now,
		},
	}
}

package market

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
)

// binanceCoin maps a tracked coin to its Binance USDT ticker. Tether itself
// has no USDT pair and is reported at 1.
type binanceCoin struct {
	id     string
	symbol string
	name   string
	ticker string
}

var binanceCoins = []binanceCoin{
	{id: "bitcoin", symbol: "BTC", name: "Bitcoin", ticker: "BTCUSDT"},
	{id: "ethereum", symbol: "ETH", name: "Ethereum", ticker: "ETHUSDT"},
	{id: "tether", symbol: "USDT", name: "Tether"},
	{id: "binancecoin", symbol: "BNB", name: "BNB", ticker: "BNBUSDT"},
	{id: "solana", symbol: "SOL", name: "Solana", ticker: "SOLUSDT"},
}

// BinancePricer serves the price feed from Binance 24h ticker statistics.
// Selectable in config as an alternative to CoinGecko; public market data
// needs no API keys.
type BinancePricer struct {
	client *binance.Client
}

// NewBinancePricer creates the pricer over a Binance client.
func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

// Prices fetches 24h ticker stats for every tracked coin.
func (p *BinancePricer) Prices(ctx context.Context) ([]CoinPrice, error) {
	prices := make([]CoinPrice, 0, len(binanceCoins))
	for _, coin := range binanceCoins {
		if coin.ticker == "" {
			prices = append(prices, CoinPrice{
				ID:        coin.id,
				Symbol:    coin.symbol,
				Name:      coin.name,
				Price:     1,
				Sparkline: []float64{},
			})
			continue
		}

		stats, err := p.client.NewListPriceChangeStatsService().Symbol(coin.ticker).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch binance stats for %s", coin.ticker)
		}
		if len(stats) == 0 {
			return nil, errors.Errorf("no binance stats for %s", coin.ticker)
		}

		last, err := strconv.ParseFloat(stats[0].LastPrice, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse binance price %q", stats[0].LastPrice)
		}
		change, err := strconv.ParseFloat(stats[0].PriceChangePercent, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse binance change %q", stats[0].PriceChangePercent)
		}

		prices = append(prices, CoinPrice{
			ID:        coin.id,
			Symbol:    coin.symbol,
			Name:      coin.name,
			Price:     last,
			Change24h: change,
			Sparkline: []float64{},
		})
	}
	return prices, nil
}

package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/cryptosim/pkg/retrier"
)

const (
	defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	coinGeckoTimeout    = 10 * time.Second
)

// coinGeckoIDs tracked coins in CoinGecko's naming.
var coinGeckoIDs = []string{"bitcoin", "ethereum", "tether", "binancecoin", "solana"}

// CoinGeckoClient fetches coin prices from the CoinGecko markets endpoint.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	retrier    *retrier.Retrier
}

// NewCoinGeckoClient creates a client against the public CoinGecko API.
func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    defaultCoinGeckoURL,
		httpClient: &http.Client{Timeout: coinGeckoTimeout},
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(500*time.Millisecond),
		),
	}
}

type coinGeckoMarket struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	SparklineIn7d            *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

// Prices fetches current market data for the tracked coins.
func (c *CoinGeckoClient) Prices(ctx context.Context) ([]CoinPrice, error) {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&sparkline=true",
		c.baseURL, strings.Join(coinGeckoIDs, ","))

	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]CoinPrice, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build coingecko request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "fetch coingecko markets")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, errors.Errorf("coingecko status %d: %s", resp.StatusCode, string(body))
		}

		var markets []coinGeckoMarket
		if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
			return nil, errors.Wrap(err, "decode coingecko response")
		}

		prices := make([]CoinPrice, 0, len(markets))
		for _, m := range markets {
			price := CoinPrice{
				ID:        m.ID,
				Symbol:    strings.ToUpper(m.Symbol),
				Name:      m.Name,
				Price:     m.CurrentPrice,
				Change24h: m.PriceChangePercentage24h,
				MarketCap: m.MarketCap,
				Sparkline: []float64{},
			}
			if m.SparklineIn7d != nil && m.SparklineIn7d.Price != nil {
				price.Sparkline = m.SparklineIn7d.Price
			}
			prices = append(prices, price)
		}
		return prices, nil
	})
}

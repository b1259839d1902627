package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/cryptosim/pkg/retrier"
)

const (
	defaultNewsAPIURL = "https://newsapi.org/v2"
	newsTimeout       = 10 * time.Second
	newsPageSize      = 8
)

// NewsClient fetches crypto headlines from NewsAPI.
type NewsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retrier    *retrier.Retrier
	now        func() time.Time
}

// NewNewsClient creates a client against NewsAPI. An empty apiKey makes every
// fetch fail, which the market service turns into the fallback payload.
func NewNewsClient(apiKey string) *NewsClient {
	return &NewsClient{
		baseURL:    defaultNewsAPIURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: newsTimeout},
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(500*time.Millisecond),
		),
		now: time.Now,
	}
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// News fetches today's crypto headlines.
func (c *NewsClient) News(ctx context.Context) ([]NewsItem, error) {
	if c.apiKey == "" {
		return nil, errors.New("news api key is not configured")
	}

	query := url.Values{}
	query.Set("q", "crypto OR bitcoin OR ethereum")
	query.Set("from", c.now().UTC().Format("2006-01-02"))
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", fmt.Sprintf("%d", newsPageSize))
	query.Set("apiKey", c.apiKey)
	endpoint := fmt.Sprintf("%s/everything?%s", c.baseURL, query.Encode())

	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]NewsItem, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build news request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "fetch news")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, errors.Errorf("newsapi status %d: %s", resp.StatusCode, string(body))
		}

		var decoded newsAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, errors.Wrap(err, "decode news response")
		}

		items := make([]NewsItem, 0, len(decoded.Articles))
		for _, a := range decoded.Articles {
			description := a.Description
			if description == "" {
				description = a.Content
			}
			source := a.Source.Name
			if source == "" {
				source = "NewsAPI"
			}
			published, err := time.Parse(time.RFC3339, a.PublishedAt)
			if err != nil {
				published = c.now().UTC()
			}
			items = append(items, NewsItem{
				Title:       a.Title,
				Description: description,
				Source:      source,
				URL:         a.URL,
				PublishedAt: published,
			})
		}
		return items, nil
	})
}

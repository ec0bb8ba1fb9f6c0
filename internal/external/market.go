package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agridash/internal/types"
)

// MarketFeedClient fetches commodity price quotes from a JSON feed. The feed
// is expected to return an array of quote objects; malformed entries are
// skipped rather than failing the whole batch.
type MarketFeedClient struct {
	base    *BaseClient
	feedURL string
}

// NewMarketFeedClient creates a client for the given feed URL.
func NewMarketFeedClient(feedURL, userAgent string, timeout time.Duration, opts ...BaseClientOption) *MarketFeedClient {
	httpClient := &http.Client{Timeout: timeout}
	return &MarketFeedClient{
		base: NewBaseClient(
			httpClient,
			"market-feed",
			DefaultRetryPolicy(),
			userAgent,
			types.ErrCodeUpstreamMarket,
			opts...,
		),
		feedURL: feedURL,
	}
}

type marketFeedQuote struct {
	Commodity  string    `json:"commodity"`
	Market     string    `json:"market"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	Unit       string    `json:"unit"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// FetchQuotes retrieves the current batch of quotes from the feed.
func (c *MarketFeedClient) FetchQuotes(ctx context.Context) ([]types.MarketPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build market feed request",
			err,
		)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamMarket,
			fmt.Sprintf("market feed returned %d", resp.StatusCode),
			nil,
		)
	}

	var quotes []marketFeedQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamMarket,
			"failed to decode market feed response",
			err,
		)
	}

	prices := make([]types.MarketPrice, 0, len(quotes))
	for _, q := range quotes {
		if q.Commodity == "" || q.Market == "" || q.PriceCents <= 0 {
			continue
		}
		recordedAt := q.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}
		prices = append(prices, types.MarketPrice{
			Commodity:  types.Crop(q.Commodity),
			Market:     q.Market,
			PriceCents: q.PriceCents,
			Currency:   q.Currency,
			Unit:       q.Unit,
			Source:     q.Source,
			RecordedAt: recordedAt.UTC(),
		})
	}
	return prices, nil
}

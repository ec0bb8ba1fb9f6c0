// Package market serves the dashboard's commodity price table. Quotes come
// from an external feed refreshed by the poller; when no feed is configured,
// a built-in set of reference quotes keeps the table populated so the
// dashboard works offline.
package market

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agridash/internal/types"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Upsert(ctx context.Context, prices []types.MarketPrice) (int, error)
	List(ctx context.Context, commodity types.Crop) ([]types.MarketPrice, error)
}

// FeedClient fetches quotes from the external feed.
type FeedClient interface {
	FetchQuotes(ctx context.Context) ([]types.MarketPrice, error)
}

// Metrics records upstream fetch outcomes.
type Metrics interface {
	RecordUpstreamFetch(source string, err error)
}

// Service implements the market price operations.
type Service struct {
	repo     Repository
	feed     FeedClient
	clock    types.Clock
	logger   *slog.Logger
	metrics  Metrics
	currency string
}

// NewService creates a market Service. feed and metrics may be nil; with a
// nil feed, Refresh loads the built-in reference quotes.
func NewService(repo Repository, feed FeedClient, clock types.Clock, logger *slog.Logger, metrics Metrics, currency string) *Service {
	return &Service{
		repo:     repo,
		feed:     feed,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		currency: currency,
	}
}

// ListPrices returns the stored quotes, optionally filtered by commodity.
func (s *Service) ListPrices(ctx context.Context, commodity types.Crop) ([]types.MarketPrice, error) {
	return s.repo.List(ctx, commodity)
}

// Refresh pulls the latest quotes and upserts them. Returns the number of
// quotes written.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	var prices []types.MarketPrice
	var err error

	if s.feed != nil {
		prices, err = s.feed.FetchQuotes(ctx)
		if s.metrics != nil {
			s.metrics.RecordUpstreamFetch("market_feed", err)
		}
		if err != nil {
			return 0, err
		}
	} else {
		prices = s.referenceQuotes()
		s.logger.InfoContext(ctx, "no market feed configured, loading reference quotes",
			slog.Int("count", len(prices)),
		)
	}

	for i := range prices {
		if prices[i].ID == "" {
			prices[i].ID = newPriceID()
		}
		if prices[i].Currency == "" {
			prices[i].Currency = s.currency
		}
		prices[i].Commodity = types.Crop(strings.ToLower(string(prices[i].Commodity)))
	}

	written, err := s.repo.Upsert(ctx, prices)
	if err != nil {
		return written, err
	}
	s.logger.InfoContext(ctx, "market prices refreshed", slog.Int("written", written))
	return written, nil
}

// newPriceID generates a prefixed UUID, e.g. "prc_1b4e28ba2fa1...".
func newPriceID() string {
	return "prc_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// referenceQuotes is the built-in price table used when no feed is
// configured. Values are indicative wholesale prices per kilogram.
func (s *Service) referenceQuotes() []types.MarketPrice {
	now := s.clock.Now()
	quote := func(crop types.Crop, marketName string, priceCents int64) types.MarketPrice {
		return types.MarketPrice{
			Commodity:  crop,
			Market:     marketName,
			PriceCents: priceCents,
			Currency:   s.currency,
			Unit:       "kg",
			Source:     "reference",
			RecordedAt: now,
		}
	}
	return []types.MarketPrice{
		quote(types.CropRice, "Cipinang", 1250000),
		quote(types.CropRice, "Kramat Jati", 1300000),
		quote(types.CropMaize, "Cipinang", 520000),
		quote(types.CropMaize, "Kramat Jati", 540000),
		quote(types.CropChili, "Kramat Jati", 4500000),
		quote(types.CropTomato, "Kramat Jati", 1400000),
	}
}

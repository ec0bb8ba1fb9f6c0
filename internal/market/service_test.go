package market

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agridash/internal/types"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, prices []types.MarketPrice) (int, error) {
	args := m.Called(ctx, prices)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, commodity types.Crop) ([]types.MarketPrice, error) {
	args := m.Called(ctx, commodity)
	if p := args.Get(0); p != nil {
		return p.([]types.MarketPrice), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) FetchQuotes(ctx context.Context) ([]types.MarketPrice, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]types.MarketPrice), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestService(repo Repository, feed FeedClient) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := fixedClock{now: time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)}
	return NewService(repo, feed, clock, logger, nil, "IDR")
}

func TestService_Refresh_FromFeed(t *testing.T) {
	repo := new(mockRepo)
	feed := new(mockFeed)
	svc := newTestService(repo, feed)

	feed.On("FetchQuotes", mock.Anything).Return([]types.MarketPrice{
		{Commodity: "RICE", Market: "Cipinang", PriceCents: 1250000, Unit: "kg", Source: "feed"},
	}, nil)

	var captured []types.MarketPrice
	repo.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]types.MarketPrice)
		}).
		Return(1, nil)

	n, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, captured, 1)
	assert.True(t, strings.HasPrefix(captured[0].ID, "prc_"))
	assert.Equal(t, types.CropRice, captured[0].Commodity)
	assert.Equal(t, "IDR", captured[0].Currency)
}

func TestService_Refresh_FeedError(t *testing.T) {
	repo := new(mockRepo)
	feed := new(mockFeed)
	svc := newTestService(repo, feed)

	feed.On("FetchQuotes", mock.Anything).
		Return(nil, types.NewAppError(types.ErrCodeUpstreamMarket, "feed down", nil))

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_Refresh_ReferenceFallback(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, nil)

	var captured []types.MarketPrice
	repo.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]types.MarketPrice)
		}).
		Return(6, nil)

	n, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.NotEmpty(t, captured)

	seen := map[types.Crop]bool{}
	for _, p := range captured {
		assert.Equal(t, "reference", p.Source)
		assert.Equal(t, "IDR", p.Currency)
		assert.Positive(t, p.PriceCents)
		seen[p.Commodity] = true
	}
	// Every supported crop has at least one reference quote.
	for _, crop := range types.SupportedCrops {
		assert.True(t, seen[crop], "no reference quote for %s", crop)
	}
}

func TestService_ListPrices(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, nil)

	want := []types.MarketPrice{{ID: "prc_1", Commodity: types.CropMaize}}
	repo.On("List", mock.Anything, types.CropMaize).Return(want, nil)

	got, err := svc.ListPrices(context.Background(), types.CropMaize)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

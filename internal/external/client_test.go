package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridash/internal/types"
)

func noSleep() BaseClientOption {
	return WithSleepFunc(func(time.Duration) {})
}

func TestBaseClient_SuccessFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "agridash-test/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.Client(), "test", DefaultRetryPolicy(), "agridash-test/1.0", types.ErrCodeUpstreamWeather, noSleep())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.Client(), "test", DefaultRetryPolicy(), "", types.ErrCodeUpstreamWeather, noSleep())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestBaseClient_ExhaustedRetriesMapsUpstreamCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.Client(), "test", RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond}, "", types.ErrCodeUpstreamMarket, noSleep())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	_, err := c.Do(req)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamMarket, appErr.Code)
}

func TestBaseClient_429MapsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.Client(), "test", RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond}, "", types.ErrCodeUpstreamWeather, noSleep())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	_, err := c.Do(req)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus())
}

func TestBaseClient_NonRetryable4xxReturnedAsIs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.Client(), "test", DefaultRetryPolicy(), "", types.ErrCodeUpstreamWeather, noSleep())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComputeBackoff_RetryAfterSeconds(t *testing.T) {
	c := NewBaseClient(http.DefaultClient, "test", RetryPolicy{MinWait: 100 * time.Millisecond, MaxWait: 5 * time.Second}, "", types.ErrCodeUpstreamWeather)

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, c.computeBackoff(0, resp))

	// Retry-After beyond MaxWait is clamped.
	resp.Header.Set("Retry-After", "30")
	assert.Equal(t, 5*time.Second, c.computeBackoff(0, resp))
}

func TestComputeBackoff_ExponentialWithJitterBounds(t *testing.T) {
	policy := RetryPolicy{MinWait: 100 * time.Millisecond, MaxWait: 2 * time.Second}
	c := NewBaseClient(http.DefaultClient, "test", policy, "", types.ErrCodeUpstreamWeather)

	for attempt := 0; attempt < 6; attempt++ {
		for i := 0; i < 20; i++ {
			wait := c.computeBackoff(attempt, nil)
			assert.GreaterOrEqual(t, wait, policy.MinWait)
			assert.LessOrEqual(t, wait, policy.MaxWait)
		}
	}
}

func TestOpenMeteoClient_CurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "-6.2000", q.Get("latitude"))
		assert.Equal(t, "106.8000", q.Get("longitude"))
		assert.Equal(t, "temperature_2m,relative_humidity_2m,precipitation", q.Get("current"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"time":"2026-08-30T06:00","temperature_2m":28.4,"relative_humidity_2m":81.0,"precipitation":1.2}}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, "agridash/1.0", 5*time.Second, noSleep())
	obs, err := c.CurrentWeather(context.Background(), -6.2, 106.8)
	require.NoError(t, err)

	assert.InDelta(t, 28.4, obs.TemperatureC, 1e-9)
	assert.InDelta(t, 81.0, obs.HumidityPct, 1e-9)
	assert.InDelta(t, 1.2, obs.PrecipitationMM, 1e-9)
	assert.Equal(t, time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC), obs.ObservedAt)
}

func TestOpenMeteoClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, "", 5*time.Second, noSleep())
	_, err := c.CurrentWeather(context.Background(), 0, 0)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}

func TestMarketFeedClient_FetchQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"commodity":"rice","market":"Cipinang","price_cents":1250000,"currency":"IDR","unit":"kg","source":"feed","recorded_at":"2026-08-29T00:00:00Z"},
			{"commodity":"","market":"Cipinang","price_cents":100,"currency":"IDR","unit":"kg"},
			{"commodity":"maize","market":"Kramat Jati","price_cents":0,"currency":"IDR","unit":"kg"}
		]`))
	}))
	defer srv.Close()

	c := NewMarketFeedClient(srv.URL, "agridash/1.0", 5*time.Second, noSleep())
	prices, err := c.FetchQuotes(context.Background())
	require.NoError(t, err)

	// Entries with missing commodity or non-positive price are skipped.
	require.Len(t, prices, 1)
	assert.Equal(t, types.CropRice, prices[0].Commodity)
	assert.Equal(t, int64(1250000), prices[0].PriceCents)
}

func TestMarketFeedClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewMarketFeedClient(srv.URL, "", 5*time.Second, noSleep())
	_, err := c.FetchQuotes(context.Background())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamMarket, appErr.Code)
}

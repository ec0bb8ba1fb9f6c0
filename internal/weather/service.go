// Package weather provides cached access to current weather observations.
// Observations change slowly relative to request traffic, so the service
// keeps a short-lived in-memory cache per location to avoid hammering the
// provider on every dashboard load.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"agridash/internal/types"
)

// Provider fetches a current observation for a coordinate pair.
type Provider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (types.WeatherObservation, error)
}

// CacheMetrics records cache hit/miss outcomes.
type CacheMetrics interface {
	RecordWeatherCache(result string)
	RecordUpstreamFetch(source string, err error)
}

type cacheEntry struct {
	obs       types.WeatherObservation
	fetchedAt time.Time
}

// Service wraps a Provider with a TTL cache keyed by rounded coordinates.
// Rounding to two decimal places (~1km) lets nearby requests share an entry.
type Service struct {
	provider Provider
	ttl      time.Duration
	clock    types.Clock
	logger   *slog.Logger
	metrics  CacheMetrics

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService creates a weather Service. metrics may be nil.
func NewService(provider Provider, ttl time.Duration, clock types.Clock, logger *slog.Logger, metrics CacheMetrics) *Service {
	return &Service{
		provider: provider,
		ttl:      ttl,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		cache:    make(map[string]cacheEntry),
	}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// Current returns the observation for the given coordinates, serving from
// cache when a fresh entry exists.
func (s *Service) Current(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	key := cacheKey(lat, lon)
	now := s.clock.Now()

	s.mu.Lock()
	entry, ok := s.cache[key]
	s.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < s.ttl {
		s.recordCache("hit")
		return entry.obs, nil
	}
	s.recordCache("miss")

	obs, err := s.provider.CurrentWeather(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.RecordUpstreamFetch("open_meteo", err)
	}
	if err != nil {
		// A stale entry beats an error for dashboard use.
		if ok {
			s.logger.WarnContext(ctx, "weather fetch failed, serving stale observation",
				slog.String("location", key),
				slog.String("error", err.Error()),
			)
			s.recordCache("stale")
			return entry.obs, nil
		}
		return types.WeatherObservation{}, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{obs: obs, fetchedAt: now}
	s.mu.Unlock()

	return obs, nil
}

// Warm fetches and caches the observation for a site, for use by the poller
// so the first dashboard request after startup is already served from cache.
func (s *Service) Warm(ctx context.Context, site types.Site) error {
	_, err := s.Current(ctx, site.Lat, site.Lon)
	if err != nil {
		return fmt.Errorf("warming weather cache for %q: %w", site.Name, err)
	}
	return nil
}

func (s *Service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordWeatherCache(result)
	}
}

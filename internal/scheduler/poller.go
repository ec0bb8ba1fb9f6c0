// Package scheduler implements the background refresh jobs for the
// dashboard: periodic market price refreshes and weather cache warming for
// the configured sites. The poller runs both concurrently on independent
// tickers so a slow market feed never delays weather warmth.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"agridash/internal/types"
)

// MarketRefresher abstracts the market price refresh operation.
type MarketRefresher interface {
	// Refresh pulls the latest quotes and returns the number written.
	Refresh(ctx context.Context) (int, error)
}

// WeatherWarmer abstracts the weather cache warming operation.
type WeatherWarmer interface {
	Warm(ctx context.Context, site types.Site) error
}

// Poller drives the periodic refresh loops. It runs until its context is
// cancelled; individual refresh failures are logged and retried on the next
// tick rather than stopping the loop.
type Poller struct {
	market          MarketRefresher
	weather         WeatherWarmer
	sites           []types.Site
	marketInterval  time.Duration
	weatherInterval time.Duration
	logger          *slog.Logger
}

// PollerConfig holds the configuration for creating a Poller.
type PollerConfig struct {
	Market          MarketRefresher
	Weather         WeatherWarmer
	Sites           []types.Site
	MarketInterval  time.Duration
	WeatherInterval time.Duration
	Logger          *slog.Logger
}

// NewPoller creates a Poller with the given configuration.
func NewPoller(cfg PollerConfig) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		market:          cfg.Market,
		weather:         cfg.Weather,
		sites:           cfg.Sites,
		marketInterval:  cfg.MarketInterval,
		weatherInterval: cfg.WeatherInterval,
		logger:          logger,
	}
}

// Run executes both refresh loops until ctx is cancelled. Each loop does one
// immediate pass on startup so the dashboard has data before the first tick.
// Returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if p.market != nil {
		g.Go(func() error {
			p.runLoop(ctx, "market_refresh", p.marketInterval, p.refreshMarket)
			return nil
		})
	}
	if p.weather != nil && len(p.sites) > 0 {
		g.Go(func() error {
			p.runLoop(ctx, "weather_warm", p.weatherInterval, p.warmWeather)
			return nil
		})
	}
	return g.Wait()
}

// RunOnce executes a single pass of both jobs, for one-shot invocation from
// the poller binary with -once.
func (p *Poller) RunOnce(ctx context.Context) {
	if p.market != nil {
		p.refreshMarket(ctx)
	}
	if p.weather != nil {
		p.warmWeather(ctx)
	}
}

func (p *Poller) runLoop(ctx context.Context, name string, interval time.Duration, job func(context.Context)) {
	p.logger.Info("poller loop starting",
		slog.String("job", name),
		slog.Duration("interval", interval),
	)

	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller loop stopping", slog.String("job", name))
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (p *Poller) refreshMarket(ctx context.Context) {
	start := time.Now()
	written, err := p.market.Refresh(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "market refresh failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return
	}
	p.logger.InfoContext(ctx, "market refresh complete",
		slog.Int("written", written),
		slog.Duration("elapsed", time.Since(start)),
	)
}

func (p *Poller) warmWeather(ctx context.Context) {
	warmed := 0
	for _, site := range p.sites {
		if ctx.Err() != nil {
			return
		}
		if err := p.weather.Warm(ctx, site); err != nil {
			p.logger.WarnContext(ctx, "weather warm failed",
				slog.String("site", site.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		warmed++
	}
	p.logger.InfoContext(ctx, "weather warm complete",
		slog.Int("warmed", warmed),
		slog.Int("sites", len(p.sites)),
	)
}

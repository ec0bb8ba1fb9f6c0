// Package main is the entry point for the AgriDash background poller.
//
// The poller refreshes market prices on its configured interval and warms
// the weather cache for every configured site, so the API serves fresh data
// without blocking dashboard requests on upstream calls. With -once it runs
// a single pass and exits, for cron-style scheduling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agridash/internal/config"
	"agridash/internal/db"
	"agridash/internal/external"
	"agridash/internal/market"
	"agridash/internal/metrics"
	"agridash/internal/scheduler"
	"agridash/internal/types"
	"agridash/internal/weather"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh pass and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("agridash poller starting",
		"environment", cfg.Environment,
		"once", once,
		"sites", len(cfg.Sites),
		"market_feed_configured", cfg.Market.FeedURL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	clock := types.RealClock{}
	collector := metrics.NewCollector()

	var feed market.FeedClient
	if cfg.Market.FeedURL != "" {
		feed = external.NewMarketFeedClient(cfg.Market.FeedURL, cfg.Weather.UserAgent, cfg.Market.Timeout)
	}
	marketSvc := market.NewService(db.NewMarketPriceRepository(pool), feed, clock, logger, collector, cfg.Market.Currency)

	meteoClient := external.NewOpenMeteoClient(cfg.Weather.BaseURL, cfg.Weather.UserAgent, cfg.Weather.Timeout)
	weatherSvc := weather.NewService(meteoClient, cfg.Weather.RefreshInterval, clock, logger, collector)

	poller := scheduler.NewPoller(scheduler.PollerConfig{
		Market:          marketSvc,
		Weather:         weatherSvc,
		Sites:           cfg.Sites,
		MarketInterval:  cfg.Market.RefreshInterval,
		WeatherInterval: cfg.Weather.RefreshInterval,
		Logger:          logger,
	})

	if once {
		poller.RunOnce(ctx)
		return nil
	}
	return poller.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

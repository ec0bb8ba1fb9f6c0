// Package main is the entry point for the AgriDash API server.
//
// It loads configuration, connects to PostgreSQL, wires the domain services
// (risk assessment, weather, market prices, classifieds, guides) onto the
// core chassis, and serves HTTP with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agridash/internal/api/handlers"
	"agridash/internal/config"
	"agridash/internal/core"
	"agridash/internal/db"
	"agridash/internal/external"
	"agridash/internal/guides"
	"agridash/internal/listings"
	"agridash/internal/market"
	"agridash/internal/metrics"
	"agridash/internal/types"
	"agridash/internal/weather"
	"agridash/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("agridash API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"sites", len(cfg.Sites),
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

	// Weather: Open-Meteo behind a TTL cache.
	meteoClient := external.NewOpenMeteoClient(cfg.Weather.BaseURL, cfg.Weather.UserAgent, cfg.Weather.Timeout)
	weatherSvc := weather.NewService(meteoClient, cfg.Weather.RefreshInterval, clock, logger, collector)

	// Market prices.
	marketRepo := db.NewMarketPriceRepository(pool)
	marketSvc := market.NewService(marketRepo, nil, clock, logger, collector, cfg.Market.Currency)

	// Classifieds board with optional webhook forwarding.
	forwarder := webhook.NewForwarder(cfg.Webhook, logger, clock)
	listingRepo := db.NewListingRepository(pool)
	listingSvc := listings.NewService(listingRepo, forwarder, clock, logger, collector)

	// Static guides.
	guideRegistry, err := guides.NewRegistry()
	if err != nil {
		return fmt.Errorf("loading guide content: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = collector
	srv.MetricsHandler = collector.Handler()
	srv.HealthProbes = []core.HealthProbe{dbProbe{pool: pool}}

	riskHandler := handlers.NewRiskHandler(weatherSvc, collector, logger)
	weatherHandler := handlers.NewWeatherHandler(weatherSvc, cfg.Sites, logger)
	marketHandler := handlers.NewMarketHandler(marketSvc, logger)
	listingHandler := handlers.NewListingHandler(listingSvc, logger)
	guideHandler := handlers.NewGuideHandler(guideRegistry, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		r.Route("/risk", riskHandler.RegisterRoutes)
		r.Route("/weather", weatherHandler.RegisterRoutes)
		r.Route("/market", marketHandler.RegisterRoutes)
		r.Route("/listings", listingHandler.RegisterRoutes)
		r.Route("/guides", guideHandler.RegisterRoutes)
	})
	srv.MountRoutes()

	return runHTTPServer(ctx, srv, cfg, logger)
}

// dbProbe reports database reachability for GET /health.
type dbProbe struct {
	pool *pgxpool.Pool
}

func (p dbProbe) Name() string { return "database" }

func (p dbProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// runHTTPServer starts the server with graceful shutdown.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return srv.Shutdown(shutdownCtx)
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

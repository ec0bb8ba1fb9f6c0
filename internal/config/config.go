// Package config defines the global configuration for the AgriDash service.
// Configuration is loaded once at process start and is immutable thereafter,
// following 12-Factor principles: values come from the OS environment, with a
// .env file as a local-development convenience. Missing required values or
// invalid formats fail the process immediately on startup.
package config

import (
	"time"

	"agridash/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for sensitive configuration values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"agridash"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	Market   MarketConfig
	Webhook  WebhookConfig

	// Sites holds the monitored farm locations, parsed from SITES_JSON by
	// the loader. Not populated by envconfig directly.
	Sites []types.Site `ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds Postgres connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// WeatherConfig holds the weather provider settings. RefreshInterval is the
// dashboard refresh cadence: observations are served from cache within it.
type WeatherConfig struct {
	BaseURL         string        `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com" validate:"url"`
	RefreshInterval time.Duration `envconfig:"WEATHER_REFRESH_INTERVAL" default:"10m" validate:"min=1s"`
	Timeout         time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
	UserAgent       string        `envconfig:"WEATHER_USER_AGENT" default:"AgriDash/1.0"`
}

// MarketConfig holds the market price feed settings. FeedURL is optional:
// when empty, the refresh falls back to the built-in reference quotes.
type MarketConfig struct {
	FeedURL         string        `envconfig:"MARKET_FEED_URL"`
	RefreshInterval time.Duration `envconfig:"MARKET_REFRESH_INTERVAL" default:"1h" validate:"min=1s"`
	Timeout         time.Duration `envconfig:"MARKET_TIMEOUT" default:"10s"`
	Currency        string        `envconfig:"MARKET_CURRENCY" default:"IDR"`
}

// WebhookConfig holds settings for forwarding classifieds to an external
// webhook. ListingsURL is optional: when empty, forwarding is disabled and
// listings are only persisted locally.
type WebhookConfig struct {
	ListingsURL             string        `envconfig:"WEBHOOK_LISTINGS_URL"`
	Secret                  SecretString  `envconfig:"WEBHOOK_SECRET"`
	PreviousSecret          SecretString  `envconfig:"WEBHOOK_PREVIOUS_SECRET"`
	PreviousSecretExpiresAt string        `envconfig:"WEBHOOK_PREVIOUS_SECRET_EXPIRES_AT"`
	UserAgent               string        `envconfig:"WEBHOOK_USER_AGENT" default:"AgriDash-Webhook/1.0"`
	Timeout                 time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

// ForwardingEnabled reports whether listing forwarding is configured.
func (w WebhookConfig) ForwardingEnabled() bool {
	return w.ListingsURL != ""
}

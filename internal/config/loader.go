// loader.go implements the configuration loading lifecycle:
//
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent; never overrides
//     existing environment variables).
//  3. Populate the Config struct from envconfig tags.
//  4. Parse SITES_JSON into the monitored site list.
//  5. Validate the struct with go-playground/validator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"agridash/internal/types"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging
// startup failures.
type ConfigError struct {
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// sitesEnvVar names the environment variable holding the monitored farm
// sites as a JSON array: [{"name":"...","lat":-6.2,"lon":106.8,"crop":"rice"}].
const sitesEnvVar = "SITES_JSON"

// Load loads and validates the service configuration from the environment.
func Load() (*Config, error) {
	return loadWithLookup(os.LookupEnv)
}

// loadWithLookup is the internal implementation accepting an injectable
// environment lookup for testing.
func loadWithLookup(lookup func(string) (string, bool)) (*Config, error) {
	// UTC everywhere; the cadence math and observation timestamps assume it.
	time.Local = time.UTC

	// .env is a local-development convenience only.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Stage:   "parse",
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if raw, ok := lookup(sitesEnvVar); ok && raw != "" {
		sites, err := parseSites(raw)
		if err != nil {
			return nil, &ConfigError{
				Stage:   "parse",
				Message: "failed to parse " + sitesEnvVar,
				Err:     err,
			}
		}
		cfg.Sites = sites
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Stage:   "validate",
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// parseSites decodes the SITES_JSON payload and normalizes crop identifiers.
// Unknown crops are kept (as CropUnknown) rather than rejected: a site with
// an unsupported crop still gets weather, just no risk rules.
func parseSites(raw string) ([]types.Site, error) {
	var in []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Crop string  `json:"crop"`
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}

	sites := make([]types.Site, 0, len(in))
	for i, s := range in {
		if s.Name == "" {
			return nil, fmt.Errorf("site %d: name is required", i)
		}
		if s.Lat < -90 || s.Lat > 90 {
			return nil, fmt.Errorf("site %q: latitude %v out of range", s.Name, s.Lat)
		}
		if s.Lon < -180 || s.Lon > 180 {
			return nil, fmt.Errorf("site %q: longitude %v out of range", s.Name, s.Lon)
		}
		sites = append(sites, types.Site{
			Name: s.Name,
			Lat:  s.Lat,
			Lon:  s.Lon,
			Crop: types.ParseCrop(s.Crop),
		})
	}
	return sites, nil
}

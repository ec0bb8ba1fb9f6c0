package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agridash/internal/core"
	"agridash/internal/types"
)

// WeatherServiceInterface is the service contract for the weather handler.
type WeatherServiceInterface interface {
	Current(ctx context.Context, lat, lon float64) (types.WeatherObservation, error)
}

// WeatherHandler serves current weather observations.
type WeatherHandler struct {
	service WeatherServiceInterface
	sites   []types.Site
	logger  *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler. sites backs the /sites route.
func NewWeatherHandler(service WeatherServiceInterface, sites []types.Site, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{service: service, sites: sites, logger: logger}
}

// RegisterRoutes mounts the weather endpoints onto the mux.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/current", h.HandleCurrent)
	r.Get("/sites", h.HandleSites)
}

// HandleCurrent handles GET /v1/weather/current?lat=..&lon=..
func (h *WeatherHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	obs, err := h.service.Current(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, obs)
}

// HandleSites handles GET /v1/weather/sites, returning the configured farm
// locations so the dashboard can offer them as presets.
func (h *WeatherHandler) HandleSites(w http.ResponseWriter, r *http.Request) {
	sites := h.sites
	if sites == nil {
		sites = []types.Site{}
	}
	core.JSON(w, r, http.StatusOK, sites)
}

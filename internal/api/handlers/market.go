package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agridash/internal/core"
	"agridash/internal/types"
)

// MarketServiceInterface is the service contract for the market handler.
type MarketServiceInterface interface {
	ListPrices(ctx context.Context, commodity types.Crop) ([]types.MarketPrice, error)
}

// MarketHandler serves the commodity price table.
type MarketHandler struct {
	service MarketServiceInterface
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(service MarketServiceInterface, logger *slog.Logger) *MarketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the market endpoints onto the mux.
func (h *MarketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/prices", h.HandleListPrices)
}

// HandleListPrices handles GET /v1/market/prices[?commodity=rice].
func (h *MarketHandler) HandleListPrices(w http.ResponseWriter, r *http.Request) {
	var commodity types.Crop
	if raw := r.URL.Query().Get("commodity"); raw != "" {
		commodity = types.ParseCrop(raw)
	}

	prices, err := h.service.ListPrices(r.Context(), commodity)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if prices == nil {
		prices = []types.MarketPrice{}
	}
	core.JSON(w, r, http.StatusOK, prices)
}

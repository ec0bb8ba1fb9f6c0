package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agridash/internal/core"
	"agridash/internal/types"
)

// GuideRegistryInterface is the registry contract for the guides handler.
type GuideRegistryInterface interface {
	List() []types.Guide
	ByCrop(crop types.Crop) (types.Guide, error)
}

// GuideHandler serves the static cultivation guides.
type GuideHandler struct {
	registry GuideRegistryInterface
	logger   *slog.Logger
}

// NewGuideHandler creates a GuideHandler.
func NewGuideHandler(registry GuideRegistryInterface, logger *slog.Logger) *GuideHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuideHandler{registry: registry, logger: logger}
}

// RegisterRoutes mounts the guide endpoints onto the mux.
func (h *GuideHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{crop}", h.HandleGet)
}

// HandleList handles GET /v1/guides.
func (h *GuideHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, h.registry.List())
}

// HandleGet handles GET /v1/guides/{crop}. The crop segment goes through
// ParseCrop, so "Rice" and "rice" hit the same guide while unknown crops get
// the registry's not-found error.
func (h *GuideHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	crop := types.ParseCrop(chi.URLParam(r, "crop"))
	g, err := h.registry.ByCrop(crop)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, g)
}

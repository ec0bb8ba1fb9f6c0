package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agridash/internal/core"
	"agridash/internal/listings"
	"agridash/internal/types"
)

// ListingServiceInterface is the service contract for the listings handler.
type ListingServiceInterface interface {
	Create(ctx context.Context, input listings.CreateInput) (*types.Listing, error)
	Get(ctx context.Context, id string) (*types.Listing, error)
	List(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error)
	Close(ctx context.Context, id string) (*types.Listing, error)
	Delete(ctx context.Context, id string) error
}

// ListingHandler serves the classifieds board endpoints.
type ListingHandler struct {
	service ListingServiceInterface
	logger  *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(service ListingServiceInterface, logger *slog.Logger) *ListingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the listing endpoints onto the mux.
func (h *ListingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Post("/{id}/close", h.HandleClose)
	r.Delete("/{id}", h.HandleDelete)
}

// HandleCreate handles POST /v1/listings.
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input listings.CreateInput
	if err := core.DecodeJSON(w, r, &input); err != nil {
		core.Error(w, r, err)
		return
	}

	l, err := h.service.Create(r.Context(), input)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, l)
}

// HandleList handles GET /v1/listings with optional category, crop, status,
// limit, and offset query parameters.
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.ListingFilter{}

	if raw := q.Get("category"); raw != "" {
		category := types.ListingCategory(raw)
		if !types.ValidListingCategory(category) {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidCategory,
				"category must be 'buy' or 'sell'",
				nil,
			))
			return
		}
		filter.Category = category
	}
	if raw := q.Get("status"); raw != "" {
		status := types.ListingStatus(raw)
		if !types.ValidListingStatus(status) {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidStatus,
				"status must be 'open' or 'closed'",
				nil,
			))
			return
		}
		filter.Status = status
	}
	if raw := q.Get("crop"); raw != "" {
		filter.Crop = types.ParseCrop(raw)
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidNumber,
				"limit must be a positive integer",
				err,
			))
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidNumber,
				"offset must be a non-negative integer",
				err,
			))
			return
		}
		filter.Offset = offset
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if result == nil {
		result = []types.Listing{}
	}
	core.JSON(w, r, http.StatusOK, result)
}

// HandleGet handles GET /v1/listings/{id}.
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, l)
}

// HandleClose handles POST /v1/listings/{id}/close.
func (h *ListingHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, l)
}

// HandleDelete handles DELETE /v1/listings/{id}.
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

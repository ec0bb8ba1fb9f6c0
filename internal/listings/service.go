// Package listings implements the classifieds board: anonymous buy/sell
// posts with a free-form contact field. Writes are persisted first and then
// forwarded to the configured webhook on a best-effort basis.
package listings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agridash/internal/types"
	"agridash/internal/webhook"
)

// Field length limits. The board targets SMS-sized posts, not essays.
const (
	maxTitleLen   = 120
	maxBodyLen    = 2000
	maxContactLen = 200
	maxUnitLen    = 20
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, l *types.Listing) error
	GetByID(ctx context.Context, id string) (*types.Listing, error)
	List(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error)
	UpdateStatus(ctx context.Context, id string, status types.ListingStatus) error
	Delete(ctx context.Context, id string) error
}

// Forwarder delivers listing events to an external webhook.
type Forwarder interface {
	Deliver(ctx context.Context, eventType string, data any) types.DeliveryResult
}

// Metrics records listing-related counters.
type Metrics interface {
	RecordListingCreated()
	RecordWebhookDelivery(status string)
}

// CreateInput is the validated payload for a new listing.
type CreateInput struct {
	Category   string  `json:"category"`
	Crop       string  `json:"crop"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	PriceCents int64   `json:"price_cents"`
	Contact    string  `json:"contact"`
}

// Service implements the classifieds board operations.
type Service struct {
	repo      Repository
	forwarder Forwarder
	clock     types.Clock
	logger    *slog.Logger
	metrics   Metrics
}

// NewService creates a listings Service. forwarder and metrics may be nil.
func NewService(repo Repository, forwarder Forwarder, clock types.Clock, logger *slog.Logger, metrics Metrics) *Service {
	return &Service{
		repo:      repo,
		forwarder: forwarder,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// newListingID generates a prefixed UUID, e.g. "lst_1b4e28ba2fa1...".
func newListingID() string {
	return "lst_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create validates the input, persists the listing, and forwards a
// listing.created event. Forwarding failures are logged but never fail the
// create: the poster's listing is already on the board.
func (s *Service) Create(ctx context.Context, input CreateInput) (*types.Listing, error) {
	l, err := s.buildListing(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordListingCreated()
	}
	s.logger.InfoContext(ctx, "listing created",
		slog.String("listing_id", l.ID),
		slog.String("category", string(l.Category)),
		slog.String("crop", string(l.Crop)),
	)

	if s.forwarder != nil {
		result := s.forwarder.Deliver(ctx, "listing.created", l)
		if s.metrics != nil && result.Status != webhook.StatusDisabled {
			s.metrics.RecordWebhookDelivery(result.Status)
		}
	}
	return l, nil
}

func (s *Service) buildListing(input CreateInput) (*types.Listing, error) {
	category := types.ListingCategory(strings.ToLower(strings.TrimSpace(input.Category)))
	if !types.ValidListingCategory(category) {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidCategory,
			"category must be 'buy' or 'sell'",
			nil,
			map[string]any{"field": "category"},
		)
	}

	title := strings.TrimSpace(input.Title)
	contact := strings.TrimSpace(input.Contact)
	for _, check := range []struct {
		field string
		value string
	}{
		{"title", title},
		{"contact", contact},
	} {
		if check.value == "" {
			return nil, types.NewAppErrorWithDetails(
				types.ErrCodeValidationMissingField,
				fmt.Sprintf("%s is required", check.field),
				nil,
				map[string]any{"field": check.field},
			)
		}
	}
	for _, check := range []struct {
		field string
		value string
		limit int
	}{
		{"title", title, maxTitleLen},
		{"body", input.Body, maxBodyLen},
		{"contact", contact, maxContactLen},
		{"unit", input.Unit, maxUnitLen},
	} {
		if len(check.value) > check.limit {
			return nil, types.NewAppErrorWithDetails(
				types.ErrCodeValidationFieldTooLong,
				fmt.Sprintf("%s exceeds %d characters", check.field, check.limit),
				nil,
				map[string]any{"field": check.field, "limit": check.limit},
			)
		}
	}

	if input.Quantity < 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidNumber,
			"quantity must not be negative",
			nil,
			map[string]any{"field": "quantity"},
		)
	}
	if input.PriceCents < 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidNumber,
			"price_cents must not be negative",
			nil,
			map[string]any{"field": "price_cents"},
		)
	}

	now := s.clock.Now()
	return &types.Listing{
		ID:         newListingID(),
		Category:   category,
		Crop:       types.ParseCrop(input.Crop),
		Title:      title,
		Body:       strings.TrimSpace(input.Body),
		Quantity:   input.Quantity,
		Unit:       strings.TrimSpace(input.Unit),
		PriceCents: input.PriceCents,
		Contact:    contact,
		Status:     types.ListingOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Get fetches a single listing by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns listings matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	return s.repo.List(ctx, filter)
}

// Close transitions an open listing to closed. Closing an already-closed
// listing is a conflict, not a no-op, so the poster notices double-submits.
func (s *Service) Close(ctx context.Context, id string) (*types.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == types.ListingClosed {
		return nil, types.NewAppError(
			types.ErrCodeConflictListingClosed,
			"listing is already closed",
			nil,
		)
	}
	if err := s.repo.UpdateStatus(ctx, id, types.ListingClosed); err != nil {
		return nil, err
	}
	l.Status = types.ListingClosed
	l.UpdatedAt = s.clock.Now()

	if s.forwarder != nil {
		result := s.forwarder.Deliver(ctx, "listing.closed", l)
		if s.metrics != nil && result.Status != webhook.StatusDisabled {
			s.metrics.RecordWebhookDelivery(result.Status)
		}
	}
	return l, nil
}

// Delete removes a listing from the board.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "listing deleted", slog.String("listing_id", id))
	return nil
}

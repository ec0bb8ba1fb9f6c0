package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"agridash/internal/types"
)

// ListingRepository provides data access for the listings table.
type ListingRepository struct {
	db DBTX
}

// NewListingRepository creates a ListingRepository backed by the given
// database connection (pool or transaction).
func NewListingRepository(db DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, category, crop, title, body, quantity, unit, price_cents, contact, status, created_at, updated_at`

// Create inserts a new listing. The caller must set the ID (prefixed UUID,
// e.g. "lst_...") and timestamps before calling.
func (r *ListingRepository) Create(ctx context.Context, l *types.Listing) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO listings
		 (id, category, crop, title, body, quantity, unit, price_cents, contact, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID,
		string(l.Category),
		string(l.Crop),
		l.Title,
		l.Body,
		l.Quantity,
		l.Unit,
		l.PriceCents,
		l.Contact,
		string(l.Status),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create listing", err)
	}
	return nil
}

// GetByID fetches a single listing. Returns a not-found AppError when no row
// matches.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*types.Listing, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)

	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundListing, "listing not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch listing", err)
	}
	return l, nil
}

// List returns listings matching the filter, newest first. Zero-valued filter
// fields are not constrained.
func (r *ListingRepository) List(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	var conditions []string
	var args []any

	addCondition := func(column string, value string) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Category != "" {
		addCondition("category", string(filter.Category))
	}
	if filter.Crop != "" && filter.Crop != types.CropUnknown {
		addCondition("crop", string(filter.Crop))
	}
	if filter.Status != "" {
		addCondition("status", string(filter.Status))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list listings", err)
	}
	defer rows.Close()

	var listings []types.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan listing", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate listings", err)
	}
	return listings, nil
}

// UpdateStatus transitions a listing to the given status. Returns a not-found
// AppError when the listing does not exist.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, status types.ListingStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE listings SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update listing status", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundListing, "listing not found", nil)
	}
	return nil
}

// Delete removes a listing. Returns a not-found AppError when the listing
// does not exist.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete listing", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundListing, "listing not found", nil)
	}
	return nil
}

func scanListing(row pgx.Row) (*types.Listing, error) {
	var l types.Listing
	var category, crop, status string
	err := row.Scan(
		&l.ID,
		&category,
		&crop,
		&l.Title,
		&l.Body,
		&l.Quantity,
		&l.Unit,
		&l.PriceCents,
		&l.Contact,
		&status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Category = types.ListingCategory(category)
	l.Crop = types.Crop(crop)
	l.Status = types.ListingStatus(status)
	return &l, nil
}

package db

import (
	"context"
	"fmt"
	"strings"

	"agridash/internal/types"
)

// MarketPriceRepository provides data access for the market_prices table.
// Prices are upserted per (commodity, market) pair: the table holds only the
// latest quote for each pair, not a history.
type MarketPriceRepository struct {
	db DBTX
}

// NewMarketPriceRepository creates a MarketPriceRepository backed by the
// given database connection (pool or transaction).
func NewMarketPriceRepository(db DBTX) *MarketPriceRepository {
	return &MarketPriceRepository{db: db}
}

// Upsert writes a batch of quotes, replacing any existing quote for the same
// (commodity, market) pair. Returns the number of rows written.
func (r *MarketPriceRepository) Upsert(ctx context.Context, prices []types.MarketPrice) (int, error) {
	written := 0
	for _, p := range prices {
		_, err := r.db.Exec(ctx,
			`INSERT INTO market_prices
			 (id, commodity, market, price_cents, currency, unit, source, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (commodity, market) DO UPDATE SET
			   price_cents = EXCLUDED.price_cents,
			   currency = EXCLUDED.currency,
			   unit = EXCLUDED.unit,
			   source = EXCLUDED.source,
			   recorded_at = EXCLUDED.recorded_at`,
			p.ID,
			string(p.Commodity),
			p.Market,
			p.PriceCents,
			p.Currency,
			p.Unit,
			p.Source,
			p.RecordedAt,
		)
		if err != nil {
			return written, types.NewAppError(types.ErrCodeInternalDB,
				fmt.Sprintf("failed to upsert market price for %s/%s", p.Commodity, p.Market), err)
		}
		written++
	}
	return written, nil
}

// List returns the latest quotes, optionally filtered by commodity, ordered
// by commodity then market for a stable dashboard table.
func (r *MarketPriceRepository) List(ctx context.Context, commodity types.Crop) ([]types.MarketPrice, error) {
	query := `SELECT id, commodity, market, price_cents, currency, unit, source, recorded_at
	          FROM market_prices`
	var args []any
	if commodity != "" && commodity != types.CropUnknown {
		args = append(args, string(commodity))
		query += fmt.Sprintf(" WHERE commodity = $%d", len(args))
	}
	query += " ORDER BY commodity, market"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list market prices", err)
	}
	defer rows.Close()

	var prices []types.MarketPrice
	for rows.Next() {
		var p types.MarketPrice
		var c string
		if err := rows.Scan(&p.ID, &c, &p.Market, &p.PriceCents, &p.Currency, &p.Unit, &p.Source, &p.RecordedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan market price", err)
		}
		p.Commodity = types.Crop(strings.ToLower(c))
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate market prices", err)
	}
	return prices, nil
}

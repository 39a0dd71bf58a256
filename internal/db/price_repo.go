package db

import (
	"context"

	"accord/internal/types"
)

// PriceRepository provides data access for the regional_prices table, the
// locally mirrored app-store price catalog maintained by the price-sync job.
type PriceRepository struct {
	db DBTX
}

// NewPriceRepository creates a new PriceRepository backed by the given
// database connection (pool or transaction).
func NewPriceRepository(db DBTX) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert replaces the price row for a (product, region) pair.
func (r *PriceRepository) Upsert(ctx context.Context, p *types.RegionalPrice) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO regional_prices (product_id, currency, amount_cents, region, synced_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (product_id, region) DO UPDATE SET
			currency = EXCLUDED.currency,
			amount_cents = EXCLUDED.amount_cents,
			synced_at = NOW()`,
		p.ProductID,
		p.Currency,
		p.AmountCents,
		p.Region,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert regional price", err)
	}
	return nil
}

// ListByProduct retrieves all regional price rows for a product.
func (r *PriceRepository) ListByProduct(ctx context.Context, productID string) ([]*types.RegionalPrice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT product_id, currency, amount_cents, region, synced_at
		 FROM regional_prices
		 WHERE product_id = $1
		 ORDER BY region`,
		productID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list regional prices", err)
	}
	defer rows.Close()

	var results []*types.RegionalPrice
	for rows.Next() {
		var p types.RegionalPrice
		if err := rows.Scan(&p.ProductID, &p.Currency, &p.AmountCents, &p.Region, &p.SyncedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan regional price row", err)
		}
		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating regional price rows", err)
	}
	return results, nil
}

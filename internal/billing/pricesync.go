package billing

import (
	"context"

	"accord/internal/external"
	"accord/internal/types"
)

// PriceStore is the slice of the price repository the syncer writes through.
type PriceStore interface {
	Upsert(ctx context.Context, p *types.RegionalPrice) error
}

// PriceSyncer mirrors the payment provider's regional price catalog into the
// local regional_prices table, so pricing screens read locally instead of
// hitting the store API per request.
type PriceSyncer struct {
	catalog  external.PriceCatalog
	store    PriceStore
	products []string
	logger   types.Logger
}

// NewPriceSyncer creates a PriceSyncer for the given product ids.
func NewPriceSyncer(catalog external.PriceCatalog, store PriceStore, products []string, logger types.Logger) *PriceSyncer {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &PriceSyncer{catalog: catalog, store: store, products: products, logger: logger}
}

// Sync refreshes every configured product. A catalog read failure for one
// product counts as an error and the loop continues; per-row upsert failures
// likewise. Returns the number of rows synced and errors encountered.
func (s *PriceSyncer) Sync(ctx context.Context) (synced, errs int) {
	for _, productID := range s.products {
		prices, err := s.catalog.ListPrices(ctx, productID)
		if err != nil {
			s.logger.Error("price catalog read failed",
				"product_id", productID, "error", err.Error())
			errs++
			continue
		}

		for _, p := range prices {
			if err := s.store.Upsert(ctx, p); err != nil {
				s.logger.Error("price upsert failed",
					"product_id", p.ProductID, "region", p.Region, "error", err.Error())
				errs++
				continue
			}
			synced++
		}
	}

	s.logger.Info("price sync complete", "synced", synced, "errors", errs)
	return synced, errs
}

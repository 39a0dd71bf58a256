package external

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"accord/internal/types"
)

// StripeCatalog implements PriceCatalog against the Stripe Prices API. The
// app stores mirror their regional price lists into Stripe products, so one
// product carries one active price per region (region tagged in metadata).
type StripeCatalog struct {
	api    *client.API
	logger *slog.Logger
}

// NewStripeCatalog creates a StripeCatalog authenticated with the given
// secret key.
func NewStripeCatalog(secretKey types.SecretString, logger *slog.Logger) *StripeCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	api := &client.API{}
	api.Init(secretKey.Unmask(), nil)
	return &StripeCatalog{api: api, logger: logger}
}

// ListPrices returns the active prices for a product, one row per region.
// Prices without a region tag fall back to their uppercase currency code.
func (c *StripeCatalog) ListPrices(ctx context.Context, productID string) ([]*types.RegionalPrice, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx

	var results []*types.RegionalPrice
	iter := c.api.Prices.List(params)
	for iter.Next() {
		p := iter.Price()
		region := p.Metadata["region"]
		if region == "" {
			region = strings.ToUpper(string(p.Currency))
		}
		results = append(results, &types.RegionalPrice{
			ProductID:   productID,
			Currency:    string(p.Currency),
			AmountCents: p.UnitAmount,
			Region:      region,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPriceCatalog,
			"failed to list prices from catalog", err)
	}
	return results, nil
}

// Compile-time assertion that StripeCatalog satisfies PriceCatalog.
var _ PriceCatalog = (*StripeCatalog)(nil)

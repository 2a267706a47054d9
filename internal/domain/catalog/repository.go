package catalog

import (
	"context"

	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	// List returns all products ordered by description.
	List(ctx context.Context) ([]Product, error)

	// GetByCode returns a product, or NOT_FOUND.
	GetByCode(ctx context.Context, code string) (*Product, error)

	// GetByCodes returns products for the given codes (missing codes are skipped).
	GetByCodes(ctx context.Context, codes []string) ([]Product, error)

	// Create inserts a product. Duplicate code yields DUPLICATE_ENTRY.
	Create(ctx context.Context, p *Product) error

	// Update rewrites a product identified by oldCode. A code rename
	// cascades to stock batches and sale items via foreign keys.
	Update(ctx context.Context, oldCode string, p *Product) error

	// Delete removes a product. The caller must check references first;
	// the restricted foreign keys are a backstop.
	Delete(ctx context.Context, code string) error

	// Upsert inserts or updates a product by code (bulk import).
	Upsert(ctx context.Context, p *Product) error

	// HasReferences reports whether any stock batch or sale item references
	// the product code.
	HasReferences(ctx context.Context, code string) (bool, error)

	// ScaleListPrices multiplies every list price by the multiplier,
	// rounding to whole currency units. Returns affected row count.
	ScaleListPrices(ctx context.Context, multiplier types.Money) (int64, error)
}

package stock

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/id"
)

// Repository defines persistence operations for stock batches.
//
// DecrementQuantity must be an atomic conditional update
// (UPDATE ... SET current_quantity = current_quantity - $n
// WHERE id = $id AND current_quantity >= $n, checking affected rows)
// so that concurrent sales against one batch cannot drive the quantity
// negative regardless of isolation level.
type Repository interface {
	// CreateBatch inserts a new batch.
	CreateBatch(ctx context.Context, b *StockBatch) error

	// GetBatch returns a batch, or NOT_FOUND.
	GetBatch(ctx context.Context, batchID id.ID) (*StockBatch, error)

	// ListAvailableByProduct returns batches of one product with
	// currentQuantity > 0, ordered by expiration ascending.
	ListAvailableByProduct(ctx context.Context, productCode string) ([]StockBatch, error)

	// ListAvailable returns all batches with currentQuantity > 0 joined with
	// their products, ordered by expiration ascending.
	ListAvailable(ctx context.Context) ([]BatchWithProduct, error)

	// ListEnteredBetween returns batches entered in [from, to] (finance).
	ListEnteredBetween(ctx context.Context, from, to time.Time) ([]StockBatch, error)

	// ProductCodesWithStock returns distinct product codes holding stock.
	ProductCodesWithStock(ctx context.Context) ([]string, error)

	// UpdateBatch rewrites the editable fields of a batch.
	UpdateBatch(ctx context.Context, batchID id.ID, upd BatchUpdate) error

	// DeleteBatch removes a batch. The caller must check allocations first.
	DeleteBatch(ctx context.Context, batchID id.ID) error

	// HasAllocations reports whether any sale allocation references the batch.
	HasAllocations(ctx context.Context, batchID id.ID) (bool, error)

	// DecrementQuantity atomically subtracts qty; INSUFFICIENT_STOCK when the
	// batch cannot cover it, NOT_FOUND when the batch does not exist.
	DecrementQuantity(ctx context.Context, batchID id.ID, qty int64) error

	// IncrementQuantity adds qty back (sale reversal only).
	IncrementQuantity(ctx context.Context, batchID id.ID, qty int64) error

	// TotalOnHand sums currentQuantity across all batches.
	TotalOnHand(ctx context.Context) (int64, error)

	// CountExpiringBetween counts batches with stock whose expiration falls
	// in [from, to].
	CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error)
}

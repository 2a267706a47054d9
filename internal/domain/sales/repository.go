package sales

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/id"
)

// ListFilter restricts sale listings. Month/year bound the sale date unless
// a gift or loss filter is active (those list across all periods, matching
// how write-offs are reviewed).
type ListFilter struct {
	Month  int
	Year   int
	IsGift bool
	IsLost bool
	// Search matches the client name, accent-insensitive (applied in the service).
	Search string
}

// Repository defines persistence operations for sales.
// Deleting a sale cascades to its items; deleting an item cascades to its
// allocations. Quantity restoration is the service's responsibility.
type Repository interface {
	// CreateSale inserts the sale header.
	CreateSale(ctx context.Context, sale *Sale) error

	// CreateItem inserts one sale item.
	CreateItem(ctx context.Context, item *SaleItem) error

	// CreateAllocation inserts one batch allocation.
	CreateAllocation(ctx context.Context, alloc *BatchAllocation) error

	// GetSale returns the sale with items, allocations and products, or NOT_FOUND.
	GetSale(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetItemsWithAllocations returns the sale's items with allocations only
	// (reversal path).
	GetItemsWithAllocations(ctx context.Context, saleID id.ID) ([]SaleItem, error)

	// UpdateSaleHeader rewrites the header fields of an existing sale.
	UpdateSaleHeader(ctx context.Context, sale *Sale) error

	// DeleteItemsBySale removes all items of a sale (allocations cascade).
	DeleteItemsBySale(ctx context.Context, saleID id.ID) error

	// DeleteSale removes the sale (items and allocations cascade).
	DeleteSale(ctx context.Context, saleID id.ID) error

	// List returns sales with items and products, date descending.
	List(ctx context.Context, filter ListFilter) ([]Sale, error)

	// ListBetween returns sales with items in [from, to] (finance replay).
	ListBetween(ctx context.Context, from, to time.Time) ([]Sale, error)

	// ListRecent returns the n most recent sales with items.
	ListRecent(ctx context.Context, n int) ([]Sale, error)

	// CountBetween counts sales dated in [from, to].
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
}

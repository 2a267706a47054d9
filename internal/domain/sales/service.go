package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/textutil"
	"github.com/guillermodiarte/crmsys/internal/core/tx"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// StockLedger is the slice of the stock repository the settlement engine
// needs: batch lookup and atomic quantity movement.
type StockLedger interface {
	GetBatch(ctx context.Context, batchID id.ID) (*stock.StockBatch, error)
	DecrementQuantity(ctx context.Context, batchID id.ID, qty int64) error
	IncrementQuantity(ctx context.Context, batchID id.ID, qty int64) error
}

// Service provides sale settlement operations: atomic create with cost-basis
// capture, full-teardown edit, and reversal on delete.
type Service struct {
	repo      Repository
	ledger    StockLedger
	txManager tx.Manager
}

// NewService creates a new sales service.
func NewService(repo Repository, ledger StockLedger, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		txManager: txManager,
	}
}

// Create settles a sale: persists the header, then for each line captures
// the cost basis from the referenced batch's frozen tax rates, records the
// allocation and decrements stock. All lines commit or none do.
func (s *Service) Create(ctx context.Context, req *SaleRequest) (*Sale, error) {
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	sale := &Sale{
		ID:          id.New(),
		Date:        req.Date,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
		TotalAmount: req.TotalAmount(),
		IsGift:      req.IsGift,
		IsLost:      req.IsLost,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return s.settleItems(ctx, sale, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"sale_id", sale.ID,
		"total", sale.TotalAmount,
		"items", len(req.Items),
		"gift", sale.IsGift,
		"lost", sale.IsLost,
	)

	return s.repo.GetSale(ctx, sale.ID)
}

// settleItems runs the per-line settlement loop for sale. Must be called
// inside a transaction.
func (s *Service) settleItems(ctx context.Context, sale *Sale, req *SaleRequest) error {
	for _, line := range req.Items {
		batch, err := s.ledger.GetBatch(ctx, line.StockBatchID)
		if err != nil {
			return err
		}
		if batch.CurrentQuantity < line.Quantity {
			return apperror.NewInsufficientStock(batch.ID.String(), line.Quantity, batch.CurrentQuantity)
		}

		unitCost := batch.UnitCost()
		costBasis := unitCost.Mul(decimal.NewFromInt(line.Quantity))

		price := line.UnitPriceSold
		if sale.IsGift || sale.IsLost {
			price = types.Zero()
		}

		item := &SaleItem{
			ID:             id.New(),
			SaleID:         sale.ID,
			ProductCode:    line.ProductCode,
			Quantity:       line.Quantity,
			UnitPriceSold:  price,
			TotalCostBasis: costBasis,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create sale item: %w", err)
		}

		alloc := &BatchAllocation{
			ID:             id.New(),
			SaleItemID:     item.ID,
			StockBatchID:   batch.ID,
			Quantity:       line.Quantity,
			UnitCostAtTime: unitCost,
		}
		if err := s.repo.CreateAllocation(ctx, alloc); err != nil {
			return fmt.Errorf("create allocation: %w", err)
		}

		// Authoritative guard: the conditional update fails instead of
		// driving the quantity negative under concurrent sales.
		if err := s.ledger.DecrementQuantity(ctx, batch.ID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// restoreAllocations walks every allocation of every item of the sale and
// returns the drawn quantities to their batches. Must be called inside a
// transaction.
func (s *Service) restoreAllocations(ctx context.Context, saleID id.ID) error {
	items, err := s.repo.GetItemsWithAllocations(ctx, saleID)
	if err != nil {
		return err
	}
	for _, item := range items {
		for _, alloc := range item.Allocations {
			if err := s.ledger.IncrementQuantity(ctx, alloc.StockBatchID, alloc.Quantity); err != nil {
				return fmt.Errorf("restore batch %s: %w", alloc.StockBatchID, err)
			}
		}
	}
	return nil
}

// Update replaces a sale: reverts all current allocations, deletes the old
// items, rewrites the header and re-settles the new item list against the
// post-revert batch state, all in one transaction. An edit that changes
// nothing re-derives the same cost basis.
func (s *Service) Update(ctx context.Context, saleID id.ID, req *SaleRequest) (*Sale, error) {
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	sale.Date = req.Date
	sale.ClientName = req.ClientName
	sale.ClientPhone = req.ClientPhone
	sale.Notes = req.Notes
	sale.IsGift = req.IsGift
	sale.IsLost = req.IsLost
	sale.TotalAmount = req.TotalAmount()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.restoreAllocations(ctx, saleID); err != nil {
			return err
		}
		if err := s.repo.DeleteItemsBySale(ctx, saleID); err != nil {
			return fmt.Errorf("delete old items: %w", err)
		}
		if err := s.repo.UpdateSaleHeader(ctx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		return s.settleItems(ctx, sale, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale updated", "sale_id", saleID, "total", sale.TotalAmount)

	return s.repo.GetSale(ctx, saleID)
}

// Delete reverses a sale: restores every allocated quantity to its batch,
// then removes the sale with its items and allocations.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	if _, err := s.repo.GetSale(ctx, saleID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.restoreAllocations(ctx, saleID); err != nil {
			return err
		}
		if err := s.repo.DeleteSale(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "sale_id", saleID)
	return nil
}

// GetByID returns a sale with items, allocations and product data.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetSale(ctx, saleID)
}

// List returns sales for the filter; the client-name search is applied
// accent-insensitively in memory.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	sales, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	q := textutil.Normalize(strings.TrimSpace(filter.Search))
	if q == "" {
		return sales, nil
	}

	filtered := sales[:0]
	for _, sale := range sales {
		if strings.Contains(textutil.Normalize(sale.ClientName), q) {
			filtered = append(filtered, sale)
		}
	}
	return filtered, nil
}

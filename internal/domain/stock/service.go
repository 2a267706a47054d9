package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/textutil"
	"github.com/guillermodiarte/crmsys/internal/core/tx"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/domain/expense"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// ConfigProvider supplies the current tax rates and alert thresholds.
type ConfigProvider interface {
	Get(ctx context.Context) (*config.SystemConfig, error)
}

// CatalogSource resolves product codes to catalog entries.
type CatalogSource interface {
	GetByCodes(ctx context.Context, codes []string) ([]catalog.Product, error)
}

// ExpenseSink records expense rows for sales-aid invoice lines.
type ExpenseSink interface {
	Create(ctx context.Context, e *expense.Expense) error
}

// Service provides the cost allocation engine and stock ledger operations.
type Service struct {
	repo      Repository
	catalogs  CatalogSource
	configs   ConfigProvider
	expenses  ExpenseSink
	txManager tx.Manager
}

// NewService creates a new stock service.
func NewService(
	repo Repository,
	catalogs CatalogSource,
	configs ConfigProvider,
	expenses ExpenseSink,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		catalogs:  catalogs,
		configs:   configs,
		expenses:  expenses,
		txManager: txManager,
	}
}

// CreateEntry posts a purchase invoice: allocates shipping, discount and tax
// across the lines, then persists one stock batch per regular line and one
// expense per sales-aid line. All rows commit in a single transaction.
func (s *Service) CreateEntry(ctx context.Context, req *EntryRequest) (*EntryResult, error) {
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}

	products, err := s.lookupProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	alloc := Allocate(AllocationInput{
		Items:                  req.Items,
		ShippingCostTotal:      req.ShippingCostTotal,
		IncentiveDiscountTotal: req.IncentiveDiscountTotal,
		TaxRate:                cfg.IvaPercentage,
		ExtraTaxRate:           cfg.ExtraTaxPercentage,
	})

	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	result := &EntryResult{
		TotalMaster: alloc.TotalMaster,
		Rounding:    alloc.Rounding,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range alloc.Lines {
			product := products[line.Item.Code]

			if !product.Kind.CarriesStock() {
				e := &expense.Expense{
					ID:          id.New(),
					Date:        entryDate,
					Description: fmt.Sprintf("%s (x%d)", product.Description, line.Item.Quantity),
					Amount:      line.TargetTotalCost,
					Code:        line.Item.Code,
					Quantity:    line.Item.Quantity,
				}
				if err := s.expenses.Create(ctx, e); err != nil {
					return fmt.Errorf("create sales-aid expense: %w", err)
				}
				result.ExpensesCreated++
				continue
			}

			batch := &StockBatch{
				ID:                    id.New(),
				ProductCode:           line.Item.Code,
				InitialQuantity:       line.Item.Quantity,
				CurrentQuantity:       line.Item.Quantity,
				CostGross:             line.Item.CostGross,
				TaxRate:               cfg.IvaPercentage,
				ExtraTaxRate:          cfg.ExtraTaxPercentage,
				ShippingCostUnit:      line.ShippingCostUnit,
				IncentiveDiscountUnit: types.Zero(),
				OfferPrice:            types.Zero(),
				ExpirationDate:        line.Item.ExpirationDate,
				EntryDate:             entryDate,
			}
			if err := s.repo.CreateBatch(ctx, batch); err != nil {
				return fmt.Errorf("create batch: %w", err)
			}
			result.BatchesCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock entry posted",
		"total_master", alloc.TotalMaster,
		"rounding", alloc.Rounding,
		"batches", result.BatchesCreated,
		"expenses", result.ExpensesCreated,
	)

	return result, nil
}

// lookupProducts resolves every entry line to a catalog product.
// Unknown codes abort the entry with NOT_FOUND.
func (s *Service) lookupProducts(ctx context.Context, items []EntryItem) (map[string]catalog.Product, error) {
	codes := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.Code] {
			seen[item.Code] = true
			codes = append(codes, item.Code)
		}
	}

	products, err := s.catalogs.GetByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}

	byCode := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byCode[p.Code] = p
	}
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			return nil, apperror.NewNotFound("product", code)
		}
	}
	return byCode, nil
}

// AvailableBatches returns sellable batches of one product, expiration
// ascending. Index 0 is the default pick for a new sale line.
func (s *Service) AvailableBatches(ctx context.Context, productCode string) ([]StockBatch, error) {
	if strings.TrimSpace(productCode) == "" {
		return nil, apperror.NewValidation("product code is required").
			WithDetail("field", "productCode")
	}
	return s.repo.ListAvailableByProduct(ctx, productCode)
}

// ListBatches returns all sellable batches for display, optionally filtered
// by an accent-insensitive search over description and code.
//
// Display order is dual-priority: batches expiring within the alert horizon
// come first, soonest expiration first; the rest follow by entry date
// descending so recent purchases stay visible.
func (s *Service) ListBatches(ctx context.Context, search string) ([]BatchWithProduct, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}

	batches, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	if q := textutil.Normalize(strings.TrimSpace(search)); q != "" {
		filtered := batches[:0]
		for _, b := range batches {
			if strings.Contains(textutil.Normalize(b.Product.Description), q) ||
				strings.Contains(textutil.Normalize(b.ProductCode), q) {
				filtered = append(filtered, b)
			}
		}
		batches = filtered
	}

	horizon := time.Now().AddDate(0, cfg.ExpiryAlertMonths, 0)
	sort.SliceStable(batches, func(i, j int) bool {
		iExpiring := batches[i].ExpirationDate.Before(horizon)
		jExpiring := batches[j].ExpirationDate.Before(horizon)

		if iExpiring && jExpiring {
			return batches[i].ExpirationDate.Before(batches[j].ExpirationDate)
		}
		if iExpiring != jExpiring {
			return iExpiring
		}
		return batches[i].EntryDate.After(batches[j].EntryDate)
	})

	return batches, nil
}

// ProductsWithStock returns catalog entries of products that currently hold
// stock, for sale-form dropdowns. Sales-aid products never appear here.
func (s *Service) ProductsWithStock(ctx context.Context) ([]catalog.Product, error) {
	codes, err := s.repo.ProductCodesWithStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return []catalog.Product{}, nil
	}

	products, err := s.catalogs.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	withStock := products[:0]
	for _, p := range products {
		if p.Kind.CarriesStock() {
			withStock = append(withStock, p)
		}
	}
	return withStock, nil
}

// UpdateBatch edits quantity, expiry and per-batch offer price.
func (s *Service) UpdateBatch(ctx context.Context, batchID id.ID, upd BatchUpdate) error {
	if upd.CurrentQuantity < 1 {
		return apperror.NewValidation("quantity must be at least 1").
			WithDetail("field", "currentQuantity")
	}
	if upd.ExpirationDate.IsZero() {
		return apperror.NewValidation("expiration date is required").
			WithDetail("field", "expirationDate")
	}
	if upd.OfferPrice.IsNegative() {
		return apperror.NewValidation("offer price must not be negative").
			WithDetail("field", "offerPrice")
	}

	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if upd.CurrentQuantity > batch.InitialQuantity {
		return apperror.NewValidation("quantity cannot exceed the initial batch quantity").
			WithDetail("field", "currentQuantity").
			WithDetail("initialQuantity", batch.InitialQuantity)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateBatch(ctx, batchID, upd)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock batch updated", "batch_id", batchID, "quantity", upd.CurrentQuantity)
	return nil
}

// DeleteBatch removes a batch unless sales have drawn from it.
func (s *Service) DeleteBatch(ctx context.Context, batchID id.ID) error {
	if _, err := s.repo.GetBatch(ctx, batchID); err != nil {
		return err
	}

	referenced, err := s.repo.HasAllocations(ctx, batchID)
	if err != nil {
		return err
	}
	if referenced {
		return apperror.NewReferenced("stock_batch",
			"batch has sales allocated and cannot be deleted").
			WithDetail("batch_id", batchID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteBatch(ctx, batchID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock batch deleted", "batch_id", batchID)
	return nil
}

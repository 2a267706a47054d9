package catalog

import (
	"context"
	"strings"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/textutil"
	"github.com/guillermodiarte/crmsys/internal/core/tx"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// kindAliases lets catalog searches match products by their kind's spoken
// name ("ayuda de venta") or legacy prefix, without string-matching codes.
var kindAliases = map[Kind][]string{
	KindSalesAid: {"ayuda de venta", "adventa"},
	KindLimited:  {"edicion limitada", "elimitada"},
}

// Service provides catalog operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// List returns products matching the query. Matching is accent-insensitive
// over description and code, plus kind aliases (a query contained in
// "ayuda de venta" surfaces all sales-aid products).
func (s *Service) List(ctx context.Context, query string) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	query = textutil.Normalize(strings.TrimSpace(query))
	if query == "" {
		return products, nil
	}

	matchedKinds := make(map[Kind]bool)
	for kind, aliases := range kindAliases {
		for _, alias := range aliases {
			if (strings.Contains(alias, query) && len(query) >= 2) || strings.Contains(query, alias) {
				matchedKinds[kind] = true
			}
		}
	}

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if matchedKinds[p.Kind] ||
			strings.Contains(textutil.Normalize(p.Description), query) ||
			strings.Contains(textutil.Normalize(p.Code), query) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetByCode returns a single product.
func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetByCode(ctx, code)
}

// Create adds a product to the catalog. An empty kind is derived from the
// code's legacy prefix for import compatibility.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if p.Kind == "" {
		p.Kind = KindFromCode(p.Code)
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "code", p.Code, "kind", p.Kind)
	return nil
}

// Update rewrites a product. Renaming the code cascades to referencing rows.
func (s *Service) Update(ctx context.Context, oldCode string, p *Product) error {
	if p.Kind == "" {
		p.Kind = KindFromCode(p.Code)
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if _, err := s.repo.GetByCode(ctx, oldCode); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, oldCode, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product updated", "code", p.Code, "old_code", oldCode)
	return nil
}

// Delete removes a product unless stock batches or sale items reference it.
func (s *Service) Delete(ctx context.Context, code string) error {
	if _, err := s.repo.GetByCode(ctx, code); err != nil {
		return err
	}

	referenced, err := s.repo.HasReferences(ctx, code)
	if err != nil {
		return err
	}
	if referenced {
		return apperror.NewReferenced("product",
			"product has stock batches or sales and cannot be deleted").
			WithDetail("code", code)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, code)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product deleted", "code", code)
	return nil
}

// BulkUpsert imports products, inserting new codes and updating existing ones.
// The whole import is one transaction.
func (s *Service) BulkUpsert(ctx context.Context, products []Product) (int, error) {
	if len(products) == 0 {
		return 0, apperror.NewValidation("no products to import")
	}

	for i := range products {
		if products[i].Kind == "" {
			products[i].Kind = KindFromCode(products[i].Code)
		}
		if err := products[i].Validate(ctx); err != nil {
			return 0, err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range products {
			if err := s.repo.Upsert(ctx, &products[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "products imported", "count", len(products))
	return len(products), nil
}

// ScaleListPrices applies a percentage change to every list price,
// rounding results to whole currency units.
func (s *Service) ScaleListPrices(ctx context.Context, percentage types.Money) (int64, error) {
	if percentage.IsZero() {
		return 0, apperror.NewValidation("percentage must not be zero").
			WithDetail("field", "percentage")
	}

	multiplier := types.PercentMultiplier(percentage)
	if !multiplier.IsPositive() {
		return 0, apperror.NewValidation("percentage would produce non-positive prices").
			WithDetail("field", "percentage")
	}

	var count int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repo.ScaleListPrices(ctx, multiplier)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "list prices scaled", "percentage", percentage, "count", count)
	return count, nil
}

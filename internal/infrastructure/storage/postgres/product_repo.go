package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
)

const productTable = "products"

var productCols = []string{
	"code", "kind", "description", "list_price", "offer_price",
	"created_at", "updated_at",
}

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	txm *TxManager
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *TxManager) *ProductRepo {
	return &ProductRepo{txm: txm}
}

var _ catalog.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return psql.Select(productCols...).From(productTable)
}

// List returns all products ordered by description.
func (r *ProductRepo) List(ctx context.Context) ([]catalog.Product, error) {
	sql, args, err := r.baseSelect().OrderBy("description ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByCode returns a product by its code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*catalog.Product, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", code)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetByCodes returns products for the given codes.
func (r *ProductRepo) GetByCodes(ctx context.Context, codes []string) ([]catalog.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"code": codes}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("get products by codes: %w", err)
	}
	return products, nil
}

// Create inserts a product.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	sql, args, err := psql.
		Insert(productTable).
		Columns("code", "kind", "description", "list_price", "offer_price").
		Values(p.Code, p.Kind, p.Description, p.ListPrice, p.OfferPrice).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update rewrites a product identified by oldCode. Code renames cascade to
// referencing rows through ON UPDATE CASCADE.
func (r *ProductRepo) Update(ctx context.Context, oldCode string, p *catalog.Product) error {
	sql, args, err := psql.
		Update(productTable).
		Set("code", p.Code).
		Set("kind", p.Kind).
		Set("description", p.Description).
		Set("list_price", p.ListPrice).
		Set("offer_price", p.OfferPrice).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"code": oldCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", oldCode)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, code string) error {
	sql, args, err := psql.
		Delete(productTable).
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NewReferenced("product",
				"product is referenced by stock batches or sales").
				WithDetail("code", code).
				WithCause(err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", code)
	}
	return nil
}

// Upsert inserts or updates a product by code.
func (r *ProductRepo) Upsert(ctx context.Context, p *catalog.Product) error {
	sql, args, err := psql.
		Insert(productTable).
		Columns("code", "kind", "description", "list_price", "offer_price").
		Values(p.Code, p.Kind, p.Description, p.ListPrice, p.OfferPrice).
		Suffix(`ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind,
			description = EXCLUDED.description,
			list_price = EXCLUDED.list_price,
			offer_price = EXCLUDED.offer_price,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// HasReferences reports whether any stock batch or sale item uses the code.
func (r *ProductRepo) HasReferences(ctx context.Context, code string) (bool, error) {
	const sql = `SELECT EXISTS (
		SELECT 1 FROM stock_batches WHERE product_code = $1
		UNION ALL
		SELECT 1 FROM sale_items WHERE product_code = $1
	)`

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check references: %w", err)
	}
	return exists, nil
}

// ScaleListPrices multiplies every list price by the multiplier, rounding to
// whole currency units. Returns the number of affected rows.
func (r *ProductRepo) ScaleListPrices(ctx context.Context, multiplier types.Money) (int64, error) {
	const sql = `UPDATE products
		SET list_price = ROUND(list_price * $1), updated_at = now()`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, multiplier)
	if err != nil {
		return 0, fmt.Errorf("scale list prices: %w", err)
	}
	return result.RowsAffected(), nil
}

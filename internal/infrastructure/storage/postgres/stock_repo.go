package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
)

const batchTable = "stock_batches"

var batchCols = []string{
	"id", "product_code", "initial_quantity", "current_quantity",
	"cost_gross", "tax_rate", "extra_tax_rate",
	"shipping_cost_unit", "incentive_discount_unit", "offer_price",
	"expiration_date", "entry_date", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm *TxManager
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) baseSelect() squirrel.SelectBuilder {
	return psql.Select(batchCols...).From(batchTable)
}

// CreateBatch inserts a new batch.
func (r *StockRepo) CreateBatch(ctx context.Context, b *stock.StockBatch) error {
	sql, args, err := psql.
		Insert(batchTable).
		Columns("id", "product_code", "initial_quantity", "current_quantity",
			"cost_gross", "tax_rate", "extra_tax_rate",
			"shipping_cost_unit", "incentive_discount_unit", "offer_price",
			"expiration_date", "entry_date").
		Values(b.ID, b.ProductCode, b.InitialQuantity, b.CurrentQuantity,
			b.CostGross, b.TaxRate, b.ExtraTaxRate,
			b.ShippingCostUnit, b.IncentiveDiscountUnit, b.OfferPrice,
			b.ExpirationDate, b.EntryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetBatch returns a batch by ID.
func (r *StockRepo) GetBatch(ctx context.Context, batchID id.ID) (*stock.StockBatch, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": batchID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b stock.StockBatch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock_batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// ListAvailableByProduct returns batches of one product holding stock,
// expiring soonest first.
func (r *StockRepo) ListAvailableByProduct(ctx context.Context, productCode string) ([]stock.StockBatch, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"product_code": productCode}).
		Where(squirrel.Gt{"current_quantity": 0}).
		OrderBy("expiration_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []stock.StockBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list available by product: %w", err)
	}
	return batches, nil
}

// ListAvailable returns every batch holding stock joined with its product.
func (r *StockRepo) ListAvailable(ctx context.Context) ([]stock.BatchWithProduct, error) {
	cols := make([]string, 0, len(batchCols)+5)
	for _, c := range batchCols {
		cols = append(cols, "b."+c)
	}
	cols = append(cols,
		`p.code AS "product.code"`,
		`p.kind AS "product.kind"`,
		`p.description AS "product.description"`,
		`p.list_price AS "product.list_price"`,
		`p.offer_price AS "product.offer_price"`,
		`p.created_at AS "product.created_at"`,
		`p.updated_at AS "product.updated_at"`,
	)

	sql, args, err := psql.
		Select(cols...).
		From(batchTable + " b").
		Join(productTable + " p ON p.code = b.product_code").
		Where(squirrel.Gt{"b.current_quantity": 0}).
		OrderBy("b.expiration_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []stock.BatchWithProduct
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list available: %w", err)
	}
	return batches, nil
}

// ListEnteredBetween returns batches entered in [from, to].
func (r *StockRepo) ListEnteredBetween(ctx context.Context, from, to time.Time) ([]stock.StockBatch, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.GtOrEq{"entry_date": from}).
		Where(squirrel.LtOrEq{"entry_date": to}).
		OrderBy("entry_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []stock.StockBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list entered between: %w", err)
	}
	return batches, nil
}

// ProductCodesWithStock returns distinct product codes holding stock.
func (r *StockRepo) ProductCodesWithStock(ctx context.Context) ([]string, error) {
	sql, args, err := psql.
		Select("DISTINCT product_code").
		From(batchTable).
		Where(squirrel.Gt{"current_quantity": 0}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var codes []string
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &codes, sql, args...); err != nil {
		return nil, fmt.Errorf("product codes with stock: %w", err)
	}
	return codes, nil
}

// UpdateBatch rewrites the editable fields of a batch.
func (r *StockRepo) UpdateBatch(ctx context.Context, batchID id.ID, upd stock.BatchUpdate) error {
	sql, args, err := psql.
		Update(batchTable).
		Set("current_quantity", upd.CurrentQuantity).
		Set("expiration_date", upd.ExpirationDate).
		Set("offer_price", upd.OfferPrice).
		Where(squirrel.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock_batch", batchID.String())
	}
	return nil
}

// DeleteBatch removes a batch.
func (r *StockRepo) DeleteBatch(ctx context.Context, batchID id.ID) error {
	sql, args, err := psql.
		Delete(batchTable).
		Where(squirrel.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NewReferenced("stock_batch",
				"batch is referenced by sales").
				WithDetail("id", batchID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock_batch", batchID.String())
	}
	return nil
}

// HasAllocations reports whether any sale allocation references the batch.
func (r *StockRepo) HasAllocations(ctx context.Context, batchID id.ID) (bool, error) {
	const sql = `SELECT EXISTS (
		SELECT 1 FROM batch_allocations WHERE stock_batch_id = $1
	)`

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, batchID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check allocations: %w", err)
	}
	return exists, nil
}

// DecrementQuantity atomically subtracts qty from the batch. The conditional
// WHERE clause is the authoritative oversell guard: under concurrency the
// losing update affects zero rows instead of driving the quantity negative.
func (r *StockRepo) DecrementQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	const sql = `UPDATE stock_batches
		SET current_quantity = current_quantity - $2
		WHERE id = $1 AND current_quantity >= $2`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, batchID, qty)
	if err != nil {
		return fmt.Errorf("decrement quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		b, err := r.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		return apperror.NewInsufficientStock(batchID.String(), qty, b.CurrentQuantity)
	}
	return nil
}

// IncrementQuantity adds qty back to the batch (sale reversal).
func (r *StockRepo) IncrementQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	const sql = `UPDATE stock_batches
		SET current_quantity = current_quantity + $2
		WHERE id = $1`

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, batchID, qty)
	if err != nil {
		return fmt.Errorf("increment quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock_batch", batchID.String())
	}
	return nil
}

// TotalOnHand sums currentQuantity across all batches.
func (r *StockRepo) TotalOnHand(ctx context.Context) (int64, error) {
	const sql = `SELECT COALESCE(SUM(current_quantity), 0) FROM stock_batches`

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql).Scan(&total); err != nil {
		return 0, fmt.Errorf("total on hand: %w", err)
	}
	return total, nil
}

// CountExpiringBetween counts batches with stock expiring in [from, to].
func (r *StockRepo) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const sql = `SELECT COUNT(*) FROM stock_batches
		WHERE current_quantity > 0
		AND expiration_date >= $1 AND expiration_date <= $2`

	var count int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count expiring: %w", err)
	}
	return count, nil
}

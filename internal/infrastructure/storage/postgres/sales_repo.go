package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
)

const (
	saleTable       = "sales"
	saleItemTable   = "sale_items"
	allocationTable = "batch_allocations"
)

var saleCols = []string{
	"id", "date", "client_name", "client_phone", "notes",
	"total_amount", "is_gift", "is_lost", "created_at", "updated_at",
}

// SalesRepo implements sales.Repository.
type SalesRepo struct {
	txm *TxManager
}

// NewSalesRepo creates a new sales repository.
func NewSalesRepo(txm *TxManager) *SalesRepo {
	return &SalesRepo{txm: txm}
}

var _ sales.Repository = (*SalesRepo)(nil)

func (r *SalesRepo) baseSelect() squirrel.SelectBuilder {
	return psql.Select(saleCols...).From(saleTable)
}

// CreateSale inserts the sale header.
func (r *SalesRepo) CreateSale(ctx context.Context, sale *sales.Sale) error {
	sql, args, err := psql.
		Insert(saleTable).
		Columns("id", "date", "client_name", "client_phone", "notes",
			"total_amount", "is_gift", "is_lost").
		Values(sale.ID, sale.Date, sale.ClientName, sale.ClientPhone, sale.Notes,
			sale.TotalAmount, sale.IsGift, sale.IsLost).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItem inserts one sale item.
func (r *SalesRepo) CreateItem(ctx context.Context, item *sales.SaleItem) error {
	sql, args, err := psql.
		Insert(saleItemTable).
		Columns("id", "sale_id", "product_code", "quantity",
			"unit_price_sold", "total_cost_basis").
		Values(item.ID, item.SaleID, item.ProductCode, item.Quantity,
			item.UnitPriceSold, item.TotalCostBasis).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// CreateAllocation inserts one batch allocation.
func (r *SalesRepo) CreateAllocation(ctx context.Context, alloc *sales.BatchAllocation) error {
	sql, args, err := psql.
		Insert(allocationTable).
		Columns("id", "sale_item_id", "stock_batch_id", "quantity", "unit_cost_at_time").
		Values(alloc.ID, alloc.SaleItemID, alloc.StockBatchID, alloc.Quantity, alloc.UnitCostAtTime).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// GetSale returns a sale with items, allocations and products.
func (r *SalesRepo) GetSale(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": saleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if err := r.loadItems(ctx, []*sales.Sale{&sale}, true); err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetItemsWithAllocations returns the sale's items with allocations only.
func (r *SalesRepo) GetItemsWithAllocations(ctx context.Context, saleID id.ID) ([]sales.SaleItem, error) {
	sql, args, err := psql.
		Select("id", "sale_id", "product_code", "quantity",
			"unit_price_sold", "total_cost_basis").
		From(saleItemTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sales.SaleItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}

	if err := r.loadAllocations(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateSaleHeader rewrites the header fields of an existing sale.
func (r *SalesRepo) UpdateSaleHeader(ctx context.Context, sale *sales.Sale) error {
	sql, args, err := psql.
		Update(saleTable).
		Set("date", sale.Date).
		Set("client_name", sale.ClientName).
		Set("client_phone", sale.ClientPhone).
		Set("notes", sale.Notes).
		Set("total_amount", sale.TotalAmount).
		Set("is_gift", sale.IsGift).
		Set("is_lost", sale.IsLost).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": sale.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", sale.ID.String())
	}
	return nil
}

// DeleteItemsBySale removes all items of a sale (allocations cascade).
func (r *SalesRepo) DeleteItemsBySale(ctx context.Context, saleID id.ID) error {
	sql, args, err := psql.
		Delete(saleItemTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	return nil
}

// DeleteSale removes the sale (items and allocations cascade).
func (r *SalesRepo) DeleteSale(ctx context.Context, saleID id.ID) error {
	sql, args, err := psql.
		Delete(saleTable).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// listQuery applies the list filter. Write-off filters span all periods;
// both flags together show the combined gift-or-loss view.
func (r *SalesRepo) listQuery(filter sales.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect().OrderBy("date DESC", "created_at DESC")

	switch {
	case filter.IsGift && filter.IsLost:
		q = q.Where(squirrel.Or{
			squirrel.Eq{"is_gift": true},
			squirrel.Eq{"is_lost": true},
		})
	case filter.IsGift:
		q = q.Where(squirrel.Eq{"is_gift": true})
	case filter.IsLost:
		q = q.Where(squirrel.Eq{"is_lost": true})
	default:
		if filter.Month >= 1 && filter.Month <= 12 && filter.Year > 0 {
			from := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.Local)
			to := from.AddDate(0, 1, 0).Add(-time.Second)
			q = q.Where(squirrel.GtOrEq{"date": from}).
				Where(squirrel.LtOrEq{"date": to})
		}
	}
	return q
}

// List returns sales matching the filter, date descending, with items and
// products loaded.
func (r *SalesRepo) List(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.selectSales(ctx, sql, args, false)
}

// ListBetween returns sales with items in [from, to].
func (r *SalesRepo) ListBetween(ctx context.Context, from, to time.Time) ([]sales.Sale, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.selectSales(ctx, sql, args, false)
}

// ListRecent returns the n most recent sales with items.
func (r *SalesRepo) ListRecent(ctx context.Context, n int) ([]sales.Sale, error) {
	sql, args, err := r.baseSelect().
		OrderBy("created_at DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.selectSales(ctx, sql, args, false)
}

// CountBetween counts sales dated in [from, to].
func (r *SalesRepo) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	sql, args, err := psql.
		Select("COUNT(*)").
		From(saleTable).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return count, nil
}

func (r *SalesRepo) selectSales(ctx context.Context, sql string, args []any, withAllocations bool) ([]sales.Sale, error) {
	var list []sales.Sale
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	refs := make([]*sales.Sale, len(list))
	for i := range list {
		refs[i] = &list[i]
	}
	if err := r.loadItems(ctx, refs, withAllocations); err != nil {
		return nil, err
	}
	return list, nil
}

// loadItems fills Items (with Product) for the given sales, optionally with
// allocations.
func (r *SalesRepo) loadItems(ctx context.Context, saleRefs []*sales.Sale, withAllocations bool) error {
	ids := make([]id.ID, len(saleRefs))
	for i, s := range saleRefs {
		ids[i] = s.ID
	}

	type itemRow struct {
		sales.SaleItem
		Product catalog.Product `db:"product"`
	}

	sql, args, err := psql.
		Select(
			"i.id", "i.sale_id", "i.product_code", "i.quantity",
			"i.unit_price_sold", "i.total_cost_basis",
			`p.code AS "product.code"`,
			`p.kind AS "product.kind"`,
			`p.description AS "product.description"`,
			`p.list_price AS "product.list_price"`,
			`p.offer_price AS "product.offer_price"`,
			`p.created_at AS "product.created_at"`,
			`p.updated_at AS "product.updated_at"`,
		).
		From(saleItemTable + " i").
		Join(productTable + " p ON p.code = i.product_code").
		Where(squirrel.Eq{"i.sale_id": ids}).
		OrderBy("i.id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	var rows []itemRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return fmt.Errorf("load sale items: %w", err)
	}

	items := make([]sales.SaleItem, len(rows))
	for i, row := range rows {
		item := row.SaleItem
		product := row.Product
		item.Product = &product
		items[i] = item
	}

	if withAllocations {
		if err := r.loadAllocations(ctx, items); err != nil {
			return err
		}
	}

	bySale := make(map[id.ID][]sales.SaleItem, len(saleRefs))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for _, s := range saleRefs {
		s.Items = bySale[s.ID]
	}
	return nil
}

// loadAllocations fills Allocations for the given items in place.
func (r *SalesRepo) loadAllocations(ctx context.Context, items []sales.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]id.ID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	sql, args, err := psql.
		Select("id", "sale_item_id", "stock_batch_id", "quantity", "unit_cost_at_time").
		From(allocationTable).
		Where(squirrel.Eq{"sale_item_id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build allocations query: %w", err)
	}

	var allocs []sales.BatchAllocation
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &allocs, sql, args...); err != nil {
		return fmt.Errorf("load allocations: %w", err)
	}

	byItem := make(map[id.ID][]sales.BatchAllocation, len(items))
	for _, a := range allocs {
		byItem[a.SaleItemID] = append(byItem[a.SaleItemID], a)
	}
	for i := range items {
		items[i].Allocations = byItem[items[i].ID]
	}
	return nil
}

package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
)

// noopTx runs the function directly without a real transaction.
type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSalesRepo struct {
	sales  map[id.ID]*Sale
	items  map[id.ID][]SaleItem        // by sale
	allocs map[id.ID][]BatchAllocation // by item
}

func newFakeSalesRepo() *fakeSalesRepo {
	return &fakeSalesRepo{
		sales:  make(map[id.ID]*Sale),
		items:  make(map[id.ID][]SaleItem),
		allocs: make(map[id.ID][]BatchAllocation),
	}
}

func (r *fakeSalesRepo) CreateSale(ctx context.Context, sale *Sale) error {
	cp := *sale
	cp.Items = nil
	r.sales[sale.ID] = &cp
	return nil
}

func (r *fakeSalesRepo) CreateItem(ctx context.Context, item *SaleItem) error {
	r.items[item.SaleID] = append(r.items[item.SaleID], *item)
	return nil
}

func (r *fakeSalesRepo) CreateAllocation(ctx context.Context, alloc *BatchAllocation) error {
	r.allocs[alloc.SaleItemID] = append(r.allocs[alloc.SaleItemID], *alloc)
	return nil
}

func (r *fakeSalesRepo) GetSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	cp := *sale
	cp.Items = r.itemsOf(saleID)
	return &cp, nil
}

func (r *fakeSalesRepo) itemsOf(saleID id.ID) []SaleItem {
	items := append([]SaleItem(nil), r.items[saleID]...)
	for i := range items {
		items[i].Allocations = append([]BatchAllocation(nil), r.allocs[items[i].ID]...)
	}
	return items
}

func (r *fakeSalesRepo) GetItemsWithAllocations(ctx context.Context, saleID id.ID) ([]SaleItem, error) {
	return r.itemsOf(saleID), nil
}

func (r *fakeSalesRepo) UpdateSaleHeader(ctx context.Context, sale *Sale) error {
	if _, ok := r.sales[sale.ID]; !ok {
		return apperror.NewNotFound("sale", sale.ID)
	}
	cp := *sale
	cp.Items = nil
	r.sales[sale.ID] = &cp
	return nil
}

func (r *fakeSalesRepo) DeleteItemsBySale(ctx context.Context, saleID id.ID) error {
	for _, item := range r.items[saleID] {
		delete(r.allocs, item.ID)
	}
	delete(r.items, saleID)
	return nil
}

func (r *fakeSalesRepo) DeleteSale(ctx context.Context, saleID id.ID) error {
	if err := r.DeleteItemsBySale(ctx, saleID); err != nil {
		return err
	}
	delete(r.sales, saleID)
	return nil
}

func (r *fakeSalesRepo) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	var out []Sale
	for saleID := range r.sales {
		sale, _ := r.GetSale(ctx, saleID)
		out = append(out, *sale)
	}
	return out, nil
}

func (r *fakeSalesRepo) ListBetween(ctx context.Context, from, to time.Time) ([]Sale, error) {
	return nil, nil
}

func (r *fakeSalesRepo) ListRecent(ctx context.Context, n int) ([]Sale, error) {
	return nil, nil
}

func (r *fakeSalesRepo) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return int64(len(r.sales)), nil
}

type fakeLedger struct {
	batches map[id.ID]*stock.StockBatch
}

func (l *fakeLedger) GetBatch(ctx context.Context, batchID id.ID) (*stock.StockBatch, error) {
	b, ok := l.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("stock_batch", batchID)
	}
	cp := *b
	return &cp, nil
}

func (l *fakeLedger) DecrementQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	b, ok := l.batches[batchID]
	if !ok {
		return apperror.NewNotFound("stock_batch", batchID)
	}
	if b.CurrentQuantity < qty {
		return apperror.NewInsufficientStock(batchID.String(), qty, b.CurrentQuantity)
	}
	b.CurrentQuantity -= qty
	return nil
}

func (l *fakeLedger) IncrementQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	b, ok := l.batches[batchID]
	if !ok {
		return apperror.NewNotFound("stock_batch", batchID)
	}
	b.CurrentQuantity += qty
	return nil
}

// testBatch has unit cost 100*1.24 + 5 = 129.
func testBatch(qty int64) *stock.StockBatch {
	return &stock.StockBatch{
		ID:               id.New(),
		ProductCode:      "CREMA-01",
		InitialQuantity:  qty,
		CurrentQuantity:  qty,
		CostGross:        types.MustMoney("100"),
		TaxRate:          types.MustMoney("21"),
		ExtraTaxRate:     types.MustMoney("3"),
		ShippingCostUnit: types.MustMoney("5"),
		ExpirationDate:   time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func saleRequest(batchID id.ID, qty int64, price string) *SaleRequest {
	return &SaleRequest{
		Date:       time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		ClientName: "María López",
		Items: []SaleItemRequest{{
			ProductCode:   "CREMA-01",
			StockBatchID:  batchID,
			Quantity:      qty,
			UnitPriceSold: types.MustMoney(price),
		}},
	}
}

func TestCreate_SettlesAndDecrements(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(10)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	sale, err := svc.Create(context.Background(), saleRequest(batch.ID, 3, "150"))
	require.NoError(t, err)

	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("450")), "total %s", sale.TotalAmount)
	require.Len(t, sale.Items, 1)

	item := sale.Items[0]
	assert.True(t, item.UnitPriceSold.Equal(types.MustMoney("150")))
	assert.True(t, item.TotalCostBasis.Equal(types.MustMoney("387")), "cost basis %s", item.TotalCostBasis)

	require.Len(t, item.Allocations, 1)
	alloc := item.Allocations[0]
	assert.Equal(t, batch.ID, alloc.StockBatchID)
	assert.Equal(t, int64(3), alloc.Quantity)
	assert.True(t, alloc.UnitCostAtTime.Equal(types.MustMoney("129")), "unit cost %s", alloc.UnitCostAtTime)

	assert.Equal(t, int64(7), batch.CurrentQuantity)
}

func TestCreate_InsufficientStock(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(7)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	_, err := svc.Create(context.Background(), saleRequest(batch.ID, 8, "150"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(7), batch.CurrentQuantity)

	for saleID := range repo.items {
		assert.Empty(t, repo.items[saleID])
	}
}

func TestCreate_GiftZeroesPricing(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(10)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	req := saleRequest(batch.ID, 2, "150")
	req.IsGift = true

	sale, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, sale.TotalAmount.IsZero())
	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Items[0].UnitPriceSold.IsZero())
	// Cost is still tracked at real unit cost.
	assert.True(t, sale.Items[0].TotalCostBasis.Equal(types.MustMoney("258")),
		"cost basis %s", sale.Items[0].TotalCostBasis)
}

func TestCreate_LossZeroesPricing(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(10)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	req := saleRequest(batch.ID, 2, "150")
	req.IsLost = true

	sale, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.IsZero())
	assert.True(t, sale.Items[0].UnitPriceSold.IsZero())
	assert.Equal(t, int64(8), batch.CurrentQuantity)
}

func TestCreate_GiftAndLostRejected(t *testing.T) {
	svc := NewService(newFakeSalesRepo(), &fakeLedger{}, noopTx{})

	req := saleRequest(id.New(), 1, "10")
	req.IsGift = true
	req.IsLost = true

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDelete_RestoresQuantities(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(10)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	sale, err := svc.Create(context.Background(), saleRequest(batch.ID, 3, "150"))
	require.NoError(t, err)
	require.Equal(t, int64(7), batch.CurrentQuantity)

	require.NoError(t, svc.Delete(context.Background(), sale.ID))

	assert.Equal(t, int64(10), batch.CurrentQuantity)
	_, err = svc.GetByID(context.Background(), sale.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_NoOpPreservesCostBasis(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(10)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	req := saleRequest(batch.ID, 3, "150")
	sale, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	before := sale.Items[0].TotalCostBasis

	// Same items, new client name: the re-settlement against the reverted
	// batch state must derive the identical cost basis.
	req.ClientName = "María José López"
	updated, err := svc.Update(context.Background(), sale.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "María José López", updated.ClientName)
	require.Len(t, updated.Items, 1)
	assert.True(t, updated.Items[0].TotalCostBasis.Equal(before))
	assert.Equal(t, int64(7), batch.CurrentQuantity)
}

func TestUpdate_ResettlesAgainstRevertedState(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(5)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	sale, err := svc.Create(context.Background(), saleRequest(batch.ID, 4, "150"))
	require.NoError(t, err)
	require.Equal(t, int64(1), batch.CurrentQuantity)

	// 5 units only fit because the edit reverts the original 4 first.
	updated, err := svc.Update(context.Background(), sale.ID, saleRequest(batch.ID, 5, "150"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), batch.CurrentQuantity)
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("750")))
}

func TestList_FiltersByClientName(t *testing.T) {
	repo := newFakeSalesRepo()
	batch := testBatch(100)
	ledger := &fakeLedger{batches: map[id.ID]*stock.StockBatch{batch.ID: batch}}
	svc := NewService(repo, ledger, noopTx{})

	req := saleRequest(batch.ID, 1, "100")
	req.ClientName = "María López"
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req2 := saleRequest(batch.ID, 1, "100")
	req2.ClientName = "Juan Pérez"
	_, err = svc.Create(context.Background(), req2)
	require.NoError(t, err)

	found, err := svc.List(context.Background(), ListFilter{Search: "maria"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "María López", found[0].ClientName)
}

func TestProfitPercent(t *testing.T) {
	assert.True(t, ProfitPercent(types.MustMoney("150"), types.MustMoney("100"), false).
		Equal(types.MustMoney("50")))
	assert.True(t, ProfitPercent(types.MustMoney("150"), types.MustMoney("100"), true).
		Equal(types.MustMoney("-100")))
	assert.True(t, ProfitPercent(types.MustMoney("150"), types.Zero(), false).IsZero())
}

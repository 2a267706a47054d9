package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
)

type fakeSalesSource struct {
	sales  []sales.Sale
	recent []sales.Sale
	count  int64
}

func (s *fakeSalesSource) ListBetween(ctx context.Context, from, to time.Time) ([]sales.Sale, error) {
	var out []sales.Sale
	for _, sale := range s.sales {
		if !sale.Date.Before(from) && !sale.Date.After(to) {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *fakeSalesSource) ListRecent(ctx context.Context, n int) ([]sales.Sale, error) {
	return s.recent, nil
}

func (s *fakeSalesSource) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.count, nil
}

type fakeStockSource struct {
	batches  []stock.StockBatch
	onHand   int64
	expiring int64
}

func (s *fakeStockSource) ListEnteredBetween(ctx context.Context, from, to time.Time) ([]stock.StockBatch, error) {
	var out []stock.StockBatch
	for _, b := range s.batches {
		if !b.EntryDate.Before(from) && !b.EntryDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStockSource) TotalOnHand(ctx context.Context) (int64, error) {
	return s.onHand, nil
}

func (s *fakeStockSource) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.expiring, nil
}

type fakeUserCounter struct{ n int64 }

func (c *fakeUserCounter) Count(ctx context.Context) (int64, error) { return c.n, nil }

type fakeConfigProvider struct{}

func (fakeConfigProvider) Get(ctx context.Context) (*config.SystemConfig, error) {
	return config.DefaultConfig(), nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.Local)
}

func sellAt(d time.Time, total, cost string, gift bool) sales.Sale {
	return sales.Sale{
		Date:        d,
		TotalAmount: types.MustMoney(total),
		IsGift:      gift,
		Items: []sales.SaleItem{
			{TotalCostBasis: types.MustMoney(cost)},
		},
	}
}

// batchAt has unit cost 100*1.24 + 5 = 129.
func batchAt(d time.Time, qty int64) stock.StockBatch {
	return stock.StockBatch{
		InitialQuantity:  qty,
		CurrentQuantity:  qty,
		CostGross:        types.MustMoney("100"),
		TaxRate:          types.MustMoney("21"),
		ExtraTaxRate:     types.MustMoney("3"),
		ShippingCostUnit: types.MustMoney("5"),
		EntryDate:        d,
	}
}

func TestMetrics(t *testing.T) {
	salesSrc := &fakeSalesSource{sales: []sales.Sale{
		sellAt(date(2026, time.March, 5), "450", "387", false),
		sellAt(date(2026, time.March, 12), "0", "258", true), // gift
		sellAt(date(2026, time.March, 20), "0", "129", false), // loss: not a gift
		sellAt(date(2026, time.April, 1), "999", "500", false), // out of period
	}}
	stockSrc := &fakeStockSource{batches: []stock.StockBatch{
		batchAt(date(2026, time.March, 3), 10),
		batchAt(date(2026, time.February, 3), 10), // out of period
	}}

	svc := NewService(salesSrc, stockSrc, &fakeUserCounter{}, fakeConfigProvider{})

	m, err := svc.Metrics(context.Background(), 3, 2026)
	require.NoError(t, err)

	assert.True(t, m.Revenue.Equal(types.MustMoney("450")), "revenue %s", m.Revenue)
	// 129 * 10 = 1290 for the March batch only.
	assert.True(t, m.Expenses.Equal(types.MustMoney("1290")), "expenses %s", m.Expenses)
	assert.True(t, m.GiftCost.Equal(types.MustMoney("258")), "gift cost %s", m.GiftCost)
	// Loss cost is counted with regular sales cost.
	assert.True(t, m.SalesCost.Equal(types.MustMoney("516")), "sales cost %s", m.SalesCost)
	assert.True(t, m.SalesProfit.Equal(types.MustMoney("-66")), "sales profit %s", m.SalesProfit)
	assert.True(t, m.NetProfit.Equal(types.MustMoney("-840")), "net profit %s", m.NetProfit)
}

func TestMetrics_InvalidPeriod(t *testing.T) {
	svc := NewService(&fakeSalesSource{}, &fakeStockSource{}, &fakeUserCounter{}, fakeConfigProvider{})

	_, err := svc.Metrics(context.Background(), 13, 2026)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = svc.Metrics(context.Background(), 0, 2026)
	assert.Error(t, err)

	_, err = svc.Metrics(context.Background(), 6, 0)
	assert.Error(t, err)
}

func TestAnnualMetrics(t *testing.T) {
	salesSrc := &fakeSalesSource{sales: []sales.Sale{
		sellAt(date(2026, time.January, 5), "450", "387", false),
		sellAt(date(2026, time.January, 15), "0", "258", true), // gift excluded from profit
		sellAt(date(2026, time.June, 10), "300", "129", false),
	}}
	stockSrc := &fakeStockSource{batches: []stock.StockBatch{
		batchAt(date(2026, time.January, 3), 10),
	}}

	svc := NewService(salesSrc, stockSrc, &fakeUserCounter{}, fakeConfigProvider{})

	buckets, err := svc.AnnualMetrics(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, buckets, 12)

	assert.Equal(t, "Ene", buckets[0].Name)
	assert.Equal(t, "Dic", buckets[11].Name)

	jan := buckets[0]
	assert.True(t, jan.Revenue.Equal(types.MustMoney("450")), "jan revenue %s", jan.Revenue)
	assert.True(t, jan.Expenses.Equal(types.MustMoney("1290")))
	assert.True(t, jan.NetProfit.Equal(types.MustMoney("-840")))
	// Gift sales are excluded from the annual profit line.
	assert.True(t, jan.SalesProfit.Equal(types.MustMoney("63")), "jan profit %s", jan.SalesProfit)

	jun := buckets[5]
	assert.True(t, jun.Revenue.Equal(types.MustMoney("300")))
	assert.True(t, jun.SalesProfit.Equal(types.MustMoney("171")))

	feb := buckets[1]
	assert.True(t, feb.Revenue.IsZero())
	assert.True(t, feb.Expenses.IsZero())
}

func TestDashboardMetrics(t *testing.T) {
	now := time.Now()
	salesSrc := &fakeSalesSource{
		sales:  []sales.Sale{sellAt(now, "450", "387", false)},
		recent: []sales.Sale{sellAt(now, "450", "387", false)},
		count:  3,
	}
	stockSrc := &fakeStockSource{
		batches:  []stock.StockBatch{batchAt(now, 10)},
		onHand:   42,
		expiring: 2,
	}

	svc := NewService(salesSrc, stockSrc, &fakeUserCounter{n: 4}, fakeConfigProvider{})

	d, err := svc.DashboardMetrics(context.Background())
	require.NoError(t, err)

	assert.True(t, d.Finance.Revenue.Equal(types.MustMoney("450")))
	assert.Equal(t, int64(42), d.TotalStock)
	assert.Equal(t, int64(3), d.SalesCount)
	assert.Equal(t, int64(4), d.UsersCount)
	assert.Equal(t, int64(2), d.ExpiringSoonCount)
	assert.Equal(t, 3, d.ExpiryAlertMonths)
	assert.Len(t, d.RecentSales, 1)
}

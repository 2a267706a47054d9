package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
)

// SalesSource is the slice of the sales repository the aggregator reads.
type SalesSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]sales.Sale, error)
	ListRecent(ctx context.Context, n int) ([]sales.Sale, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// StockSource is the slice of the stock repository the aggregator reads.
type StockSource interface {
	ListEnteredBetween(ctx context.Context, from, to time.Time) ([]stock.StockBatch, error)
	TotalOnHand(ctx context.Context) (int64, error)
	CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// UserCounter reports the number of registered users (dashboard only).
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// ConfigProvider supplies the expiry alert horizon.
type ConfigProvider interface {
	Get(ctx context.Context) (*config.SystemConfig, error)
}

// Service derives financial metrics from persisted stock and sale records.
type Service struct {
	sales   SalesSource
	stocks  StockSource
	users   UserCounter
	configs ConfigProvider
}

// NewService creates a new finance service.
func NewService(salesSrc SalesSource, stockSrc StockSource, users UserCounter, configs ConfigProvider) *Service {
	return &Service{
		sales:   salesSrc,
		stocks:  stockSrc,
		users:   users,
		configs: configs,
	}
}

func monthBounds(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return from, from.AddDate(0, 1, 0).Add(-time.Second)
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperror.NewValidation("month must be between 1 and 12").
			WithDetail("field", "month")
	}
	if year < 1 {
		return apperror.NewValidation("year is required").
			WithDetail("field", "year")
	}
	return nil
}

// Metrics computes the monthly rollup for the period.
func (s *Service) Metrics(ctx context.Context, month, year int) (*Metrics, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	from, to := monthBounds(month, year)

	periodSales, err := s.sales.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	batches, err := s.stocks.ListEnteredBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	m := &Metrics{
		Revenue:     types.Zero(),
		Expenses:    types.Zero(),
		GiftCost:    types.Zero(),
		SalesCost:   types.Zero(),
		NetProfit:   types.Zero(),
		SalesProfit: types.Zero(),
	}

	for _, sale := range periodSales {
		m.Revenue = m.Revenue.Add(sale.TotalAmount)

		cost := saleCost(&sale)
		if sale.IsGift {
			m.GiftCost = m.GiftCost.Add(cost)
		} else {
			m.SalesCost = m.SalesCost.Add(cost)
		}
	}

	for _, batch := range batches {
		m.Expenses = m.Expenses.Add(batchExpense(&batch))
	}

	m.SalesProfit = m.Revenue.Sub(m.SalesCost)
	m.NetProfit = m.Revenue.Sub(m.Expenses)

	return m, nil
}

// AnnualMetrics buckets the same computations by calendar month.
func (s *Service) AnnualMetrics(ctx context.Context, year int) ([]MonthlyBucket, error) {
	if year < 1 {
		return nil, apperror.NewValidation("year is required").
			WithDetail("field", "year")
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.Local)

	yearSales, err := s.sales.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	batches, err := s.stocks.ListEnteredBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	buckets := make([]MonthlyBucket, 12)
	for i := range buckets {
		buckets[i] = MonthlyBucket{
			Name:        monthNames[i],
			Revenue:     types.Zero(),
			Expenses:    types.Zero(),
			NetProfit:   types.Zero(),
			SalesProfit: types.Zero(),
		}
	}

	for _, sale := range yearSales {
		i := int(sale.Date.Month()) - 1
		buckets[i].Revenue = buckets[i].Revenue.Add(sale.TotalAmount)
		if !sale.IsGift {
			profit := sale.TotalAmount.Sub(saleCost(&sale))
			buckets[i].SalesProfit = buckets[i].SalesProfit.Add(profit)
		}
	}

	for _, batch := range batches {
		i := int(batch.EntryDate.Month()) - 1
		buckets[i].Expenses = buckets[i].Expenses.Add(batchExpense(&batch))
	}

	for i := range buckets {
		buckets[i].NetProfit = buckets[i].Revenue.Sub(buckets[i].Expenses)
	}

	return buckets, nil
}

// DashboardMetrics assembles the landing-page numbers for the current month.
func (s *Service) DashboardMetrics(ctx context.Context) (*Dashboard, error) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()

	metrics, err := s.Metrics(ctx, month, year)
	if err != nil {
		return nil, err
	}

	totalStock, err := s.stocks.TotalOnHand(ctx)
	if err != nil {
		return nil, fmt.Errorf("total stock: %w", err)
	}

	from, to := monthBounds(month, year)
	salesCount, err := s.sales.CountBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	usersCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	horizon := now.AddDate(0, cfg.ExpiryAlertMonths, 0)
	expiring, err := s.stocks.CountExpiringBetween(ctx, now, horizon)
	if err != nil {
		return nil, fmt.Errorf("count expiring: %w", err)
	}

	recent, err := s.sales.ListRecent(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	return &Dashboard{
		Finance:           *metrics,
		TotalStock:        totalStock,
		SalesCount:        salesCount,
		UsersCount:        usersCount,
		ExpiringSoonCount: expiring,
		ExpiryAlertMonths: cfg.ExpiryAlertMonths,
		RecentSales:       recent,
	}, nil
}

// saleCost sums the captured cost basis over the sale's items.
func saleCost(sale *sales.Sale) types.Money {
	cost := types.Zero()
	for _, item := range sale.Items {
		cost = cost.Add(item.TotalCostBasis)
	}
	return cost
}

// batchExpense values a purchase at landed unit cost times the original
// quantity bought.
func batchExpense(batch *stock.StockBatch) types.Money {
	return batch.UnitCost().Mul(decimal.NewFromInt(batch.InitialQuantity))
}

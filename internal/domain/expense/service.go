package expense

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/tx"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// Service provides expense operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new expense service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create records a manual expense.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if err := e.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "expense created", "id", e.ID, "amount", e.Amount)
	return nil
}

// List returns expenses, optionally restricted to one calendar month.
// Month and year of zero list everything.
func (s *Service) List(ctx context.Context, month, year int) ([]Expense, error) {
	var from, to time.Time
	if month > 0 && year > 0 {
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		to = from.AddDate(0, 1, 0).Add(-time.Second)
	}
	return s.repo.List(ctx, from, to)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, expenseID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, expenseID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "expense deleted", "id", expenseID)
	return nil
}

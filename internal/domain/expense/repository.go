package expense

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/id"
)

// Repository defines persistence operations for expenses.
type Repository interface {
	// Create inserts an expense row.
	Create(ctx context.Context, e *Expense) error

	// List returns expenses in [from, to], date descending.
	// Zero bounds mean no date filter.
	List(ctx context.Context, from, to time.Time) ([]Expense, error)

	// Delete removes an expense, or NOT_FOUND.
	Delete(ctx context.Context, expenseID id.ID) error
}

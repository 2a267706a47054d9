package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/domain/expense"
)

const expenseTable = "expenses"

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	txm *TxManager
}

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txm *TxManager) *ExpenseRepo {
	return &ExpenseRepo{txm: txm}
}

var _ expense.Repository = (*ExpenseRepo)(nil)

// Create inserts an expense row.
func (r *ExpenseRepo) Create(ctx context.Context, e *expense.Expense) error {
	sql, args, err := psql.
		Insert(expenseTable).
		Columns("id", "date", "description", "amount", "code", "quantity").
		Values(e.ID, e.Date, e.Description, e.Amount, e.Code, e.Quantity).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// List returns expenses in [from, to], date descending. Zero bounds mean no
// date filter.
func (r *ExpenseRepo) List(ctx context.Context, from, to time.Time) ([]expense.Expense, error) {
	q := psql.
		Select("id", "date", "description", "amount", "code", "quantity", "created_at").
		From(expenseTable).
		OrderBy("date DESC", "created_at DESC")

	if !from.IsZero() {
		q = q.Where(squirrel.GtOrEq{"date": from})
	}
	if !to.IsZero() {
		q = q.Where(squirrel.LtOrEq{"date": to})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var expenses []expense.Expense
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &expenses, sql, args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Delete removes an expense.
func (r *ExpenseRepo) Delete(ctx context.Context, expenseID id.ID) error {
	sql, args, err := psql.
		Delete(expenseTable).
		Where(squirrel.Eq{"id": expenseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("expense", expenseID.String())
	}
	return nil
}

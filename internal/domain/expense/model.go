// Package expense provides operational expense records.
package expense

import (
	"context"
	"strings"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// Expense is an ad hoc operational cost. Rows created by the cost allocation
// engine for sales-aid invoice lines carry the originating product code and
// quantity; manual entries leave them empty.
type Expense struct {
	ID          id.ID       `db:"id" json:"id"`
	Date        time.Time   `db:"date" json:"date"`
	Description string      `db:"description" json:"description"`
	Amount      types.Money `db:"amount" json:"amount"`
	Code        string      `db:"code" json:"code,omitempty"`
	Quantity    int64       `db:"quantity" json:"quantity,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// Validate checks expense invariants.
func (e *Expense) Validate(ctx context.Context) error {
	if strings.TrimSpace(e.Description) == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}
	if e.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount")
	}
	if e.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/expense"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	*BaseHandler
	service *expense.Service
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(base *BaseHandler, service *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// List handles GET /expenses?month=&year=.
func (h *ExpenseHandler) List(c *gin.Context) {
	month := h.ParseIntQuery(c, "month", 0)
	year := h.ParseIntQuery(c, "year", 0)

	expenses, err := h.service.List(c.Request.Context(), month, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, expenses)
}

// Create handles POST /expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var e expense.Expense
	if !h.BindJSON(c, &e) {
		return
	}

	if err := h.service.Create(c.Request.Context(), &e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e.ID.String())
}

// Delete handles DELETE /expenses/:id.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expenseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), expenseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

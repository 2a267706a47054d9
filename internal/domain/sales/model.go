// Package sales provides the sale settlement engine.
package sales

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
)

// Sale is a settled transaction: a header plus line items, each drawing from
// a specific stock batch. Gift and loss write-offs persist zero revenue while
// still tracking cost.
type Sale struct {
	ID          id.ID     `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	ClientName  string    `db:"client_name" json:"clientName"`
	ClientPhone string    `db:"client_phone" json:"clientPhone,omitempty"`
	Notes       string    `db:"notes" json:"notes,omitempty"`

	// TotalAmount is zero for gifts and losses, otherwise the sum of
	// unitPriceSold * quantity over the items.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	IsGift bool `db:"is_gift" json:"isGift"`
	IsLost bool `db:"is_lost" json:"isLost"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []SaleItem `db:"-" json:"items"`
}

// SaleItem is one sold line. TotalCostBasis is captured at sale time from the
// referenced batch and never recomputed, so later batch edits cannot rewrite
// historical profit.
type SaleItem struct {
	ID          id.ID  `db:"id" json:"id"`
	SaleID      id.ID  `db:"sale_id" json:"saleId"`
	ProductCode string `db:"product_code" json:"productCode"`
	Quantity    int64  `db:"quantity" json:"quantity"`

	// UnitPriceSold is zero when the sale is a gift or a loss.
	UnitPriceSold  types.Money `db:"unit_price_sold" json:"unitPriceSold"`
	TotalCostBasis types.Money `db:"total_cost_basis" json:"totalCostBasis"`

	Product     *catalog.Product  `db:"-" json:"product,omitempty"`
	Allocations []BatchAllocation `db:"-" json:"allocations,omitempty"`
}

// BatchAllocation records that a sale item drew quantity units from a stock
// batch at a captured unit cost. One allocation per item today; the shape
// supports multi-batch draws.
type BatchAllocation struct {
	ID             id.ID       `db:"id" json:"id"`
	SaleItemID     id.ID       `db:"sale_item_id" json:"saleItemId"`
	StockBatchID   id.ID       `db:"stock_batch_id" json:"stockBatchId"`
	Quantity       int64       `db:"quantity" json:"quantity"`
	UnitCostAtTime types.Money `db:"unit_cost_at_time" json:"unitCostAtTime"`
}

// SaleItemRequest is one requested line of a sale.
type SaleItemRequest struct {
	ProductCode   string      `json:"productCode"`
	StockBatchID  id.ID       `json:"stockBatchId"`
	Quantity      int64       `json:"quantity"`
	UnitPriceSold types.Money `json:"unitPriceSold"`
}

// SaleRequest is the full payload for creating or replacing a sale.
type SaleRequest struct {
	Date        time.Time         `json:"date"`
	ClientName  string            `json:"clientName"`
	ClientPhone string            `json:"clientPhone"`
	Notes       string            `json:"notes"`
	IsGift      bool              `json:"isGift"`
	IsLost      bool              `json:"isLost"`
	Items       []SaleItemRequest `json:"items"`
}

// Validate checks request invariants. Gift and loss are mutually exclusive.
func (r *SaleRequest) Validate(ctx context.Context) error {
	if r.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return apperror.NewValidation("client name is required").
			WithDetail("field", "clientName")
	}
	if r.IsGift && r.IsLost {
		return apperror.NewValidation("a sale cannot be both a gift and a loss").
			WithDetail("field", "isGift")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, item := range r.Items {
		if item.ProductCode == "" {
			return apperror.NewValidation("product code is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if id.IsNil(item.StockBatchID) {
			return apperror.NewValidation("stock batch is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPriceSold.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// TotalAmount computes the revenue of the request: zero for gifts and
// losses, otherwise the sum over the lines.
func (r *SaleRequest) TotalAmount() types.Money {
	if r.IsGift || r.IsLost {
		return types.Zero()
	}
	total := types.Zero()
	for _, item := range r.Items {
		total = total.Add(item.UnitPriceSold.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total
}

// ProfitPercent returns the margin of a line as a percentage of its cost:
// ((price - cost) / cost) * 100. Gift and loss lines report -100; a zero
// cost reports 0.
func ProfitPercent(unitPrice, unitCost types.Money, giftOrLost bool) types.Money {
	if giftOrLost {
		return types.NewMoney(-100)
	}
	if !unitCost.IsPositive() {
		return types.Zero()
	}
	return unitPrice.Sub(unitCost).Div(unitCost).Mul(decimal.New(100, 0))
}

// Package stock provides the stock ledger and the purchase cost allocation engine.
package stock

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
)

// StockBatch is one discrete purchase lot of one product.
//
// Tax rates are copied from the system configuration at creation time and
// never re-read, so historical cost stays stable when global rates change.
// ShippingCostUnit is derived by the allocation engine and may be negative
// when the allocated incentive discount exceeds the allocated shipping.
type StockBatch struct {
	ID          id.ID  `db:"id" json:"id"`
	ProductCode string `db:"product_code" json:"productCode"`

	// InitialQuantity is immutable after creation.
	InitialQuantity int64 `db:"initial_quantity" json:"initialQuantity"`
	// CurrentQuantity satisfies 0 <= CurrentQuantity <= InitialQuantity.
	CurrentQuantity int64 `db:"current_quantity" json:"currentQuantity"`

	CostGross            types.Money `db:"cost_gross" json:"costGross"`
	TaxRate              types.Money `db:"tax_rate" json:"taxRate"`
	ExtraTaxRate         types.Money `db:"extra_tax_rate" json:"extraTaxRate"`
	ShippingCostUnit     types.Money `db:"shipping_cost_unit" json:"shippingCostUnit"`
	IncentiveDiscountUnit types.Money `db:"incentive_discount_unit" json:"incentiveDiscountUnit"`

	// OfferPrice is a per-batch override, independent of the product-level offer.
	OfferPrice types.Money `db:"offer_price" json:"offerPrice"`

	ExpirationDate time.Time `db:"expiration_date" json:"expirationDate"`
	EntryDate      time.Time `db:"entry_date" json:"entryDate"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// UnitCost returns the landed unit cost of the batch:
//
//	costGross * (1 + (taxRate+extraTaxRate)/100) + shippingCostUnit - incentiveDiscountUnit
//
// This is the single cost formula used everywhere a batch is valued.
func (b *StockBatch) UnitCost() types.Money {
	mult := types.TaxMultiplier(b.TaxRate, b.ExtraTaxRate)
	return b.CostGross.Mul(mult).Add(b.ShippingCostUnit).Sub(b.IncentiveDiscountUnit)
}

// BatchWithProduct joins a batch with its catalog entry for listings.
type BatchWithProduct struct {
	StockBatch
	Product catalog.Product `json:"product"`
}

// EntryItem is one invoice line of a stock entry.
type EntryItem struct {
	Code           string      `json:"code"`
	Quantity       int64       `json:"quantity"`
	CostGross      types.Money `json:"costGross"`
	ExpirationDate time.Time   `json:"expirationDate"`
}

// EntryRequest is a multi-product purchase invoice: N lines plus one shared
// shipping total and one shared incentive-discount total.
type EntryRequest struct {
	Items                  []EntryItem `json:"items"`
	ShippingCostTotal      types.Money `json:"shippingCostTotal"`
	IncentiveDiscountTotal types.Money `json:"incentiveDiscountTotal"`
	// EntryDate overrides the entry timestamp; zero means now.
	EntryDate time.Time `json:"entryDate"`
}

// Validate checks the entry request invariants.
func (r *EntryRequest) Validate(ctx context.Context) error {
	if len(r.Items) == 0 {
		return apperror.NewValidation("no items in stock entry").
			WithDetail("field", "items")
	}
	for i, item := range r.Items {
		if item.Code == "" {
			return apperror.NewValidation("product code is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.CostGross.IsNegative() {
			return apperror.NewValidation("gross cost must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.ExpirationDate.IsZero() {
			return apperror.NewValidation("expiration date is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// EntryResult reports the outcome of a posted stock entry.
type EntryResult struct {
	// TotalMaster is the invoice grand total rounded to the whole currency unit.
	TotalMaster types.Money `json:"totalMaster"`
	// Rounding is TotalMaster minus the unrounded sum ("Redondeo").
	Rounding types.Money `json:"rounding"`
	// BatchesCreated and ExpensesCreated count the produced rows.
	BatchesCreated  int `json:"batchesCreated"`
	ExpensesCreated int `json:"expensesCreated"`
}

// BatchUpdate carries the editable fields of a batch.
type BatchUpdate struct {
	CurrentQuantity int64       `json:"currentQuantity"`
	ExpirationDate  time.Time   `json:"expirationDate"`
	OfferPrice      types.Money `json:"offerPrice"`
}

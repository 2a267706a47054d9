// Package finance derives period metrics by replaying the stock and sale
// records. It is a pure read side with no invariants of its own.
package finance

import (
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
)

// Metrics is the monthly financial rollup.
type Metrics struct {
	// Revenue sums Sale.totalAmount over the period (gifts and losses
	// contribute zero by construction).
	Revenue types.Money `json:"revenue"`

	// Expenses values every batch entered in the period at its landed unit
	// cost times initialQuantity: purchases are a one-time cash-flow event,
	// independent of later depletion.
	Expenses types.Money `json:"expenses"`

	// NetProfit is cash flow: revenue minus stock purchases.
	NetProfit types.Money `json:"netProfit"`

	// GiftCost and SalesCost partition item cost basis by the sale's gift
	// flag. Losses are counted in SalesCost, not GiftCost; see DESIGN.md.
	GiftCost  types.Money `json:"giftCost"`
	SalesCost types.Money `json:"salesCost"`

	// SalesProfit is revenue minus SalesCost.
	SalesProfit types.Money `json:"salesProfit"`
}

// MonthlyBucket is one month of the annual rollup, for charting.
type MonthlyBucket struct {
	Name        string      `json:"name"`
	Revenue     types.Money `json:"revenue"`
	Expenses    types.Money `json:"expenses"`
	NetProfit   types.Money `json:"netProfit"`
	SalesProfit types.Money `json:"salesProfit"`
}

// Dashboard aggregates the landing-page numbers.
type Dashboard struct {
	Finance           Metrics      `json:"finance"`
	TotalStock        int64        `json:"totalStock"`
	SalesCount        int64        `json:"salesCount"`
	UsersCount        int64        `json:"usersCount"`
	ExpiringSoonCount int64        `json:"expiringSoonCount"`
	ExpiryAlertMonths int          `json:"expiryAlertMonths"`
	RecentSales       []sales.Sale `json:"recentSales"`
}

// Spanish month abbreviations for chart labels.
var monthNames = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

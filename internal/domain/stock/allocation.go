package stock

import (
	"github.com/shopspring/decimal"

	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// AllocationInput is the pure input of the cost allocation computation:
// invoice lines plus the shared shipping and incentive-discount totals,
// taxed at the current configuration rates.
type AllocationInput struct {
	Items                  []EntryItem
	ShippingCostTotal      types.Money
	IncentiveDiscountTotal types.Money
	TaxRate                types.Money
	ExtraTaxRate           types.Money
}

// AllocatedLine is one invoice line with its share of the invoice total.
type AllocatedLine struct {
	Item EntryItem

	// GrossTotal is quantity * costGross for the line.
	GrossTotal types.Money

	// TargetTotalCost is the line's share of TotalMaster. Summed over all
	// lines it reproduces TotalMaster up to decimal division precision.
	TargetTotalCost types.Money

	// ShippingCostUnit is derived so that re-applying the landed-cost formula
	// to the line reproduces TargetTotalCost exactly. May be negative.
	ShippingCostUnit types.Money
}

// AllocationResult is the outcome of distributing an invoice across its lines.
type AllocationResult struct {
	Lines []AllocatedLine

	// TotalMaster is round(subtotal + taxes) in whole currency units.
	TotalMaster types.Money

	// Rounding is TotalMaster minus the exact (unrounded) invoice total.
	Rounding types.Money
}

// Allocate distributes an invoice's shipping, discount and tax across its
// lines proportionally to each line's gross share, producing a per-line
// target total and the per-unit shipping component that reproduces it.
//
// When every line has zero gross cost the gross weights are undefined; the
// total is then split per unit so that shipping-only invoices still land on
// the batches instead of vanishing.
func Allocate(in AllocationInput) AllocationResult {
	sumGross := types.Zero()
	sumQuantity := int64(0)
	grossTotals := make([]types.Money, len(in.Items))
	for i, item := range in.Items {
		grossTotals[i] = item.CostGross.Mul(decimal.NewFromInt(item.Quantity))
		sumGross = sumGross.Add(grossTotals[i])
		sumQuantity += item.Quantity
	}

	subtotal := sumGross.Add(in.ShippingCostTotal).Sub(in.IncentiveDiscountTotal)
	taxes := subtotal.Mul(in.TaxRate.Add(in.ExtraTaxRate)).Div(decimal.New(100, 0))
	exact := subtotal.Add(taxes)
	totalMaster := types.RoundToUnit(exact)

	taxMult := types.TaxMultiplier(in.TaxRate, in.ExtraTaxRate)

	lines := make([]AllocatedLine, len(in.Items))
	for i, item := range in.Items {
		var weight types.Money
		switch {
		case sumGross.IsPositive():
			weight = grossTotals[i].Div(sumGross)
		case sumQuantity > 0:
			weight = decimal.NewFromInt(item.Quantity).Div(decimal.NewFromInt(sumQuantity))
		default:
			weight = types.Zero()
		}

		target := totalMaster.Mul(weight)
		qty := decimal.NewFromInt(item.Quantity)
		unitUntaxed := target.Div(qty).Div(taxMult)

		lines[i] = AllocatedLine{
			Item:             item,
			GrossTotal:       grossTotals[i],
			TargetTotalCost:  target,
			ShippingCostUnit: unitUntaxed.Sub(item.CostGross),
		}
	}

	return AllocationResult{
		Lines:       lines,
		TotalMaster: totalMaster,
		Rounding:    totalMaster.Sub(exact),
	}
}

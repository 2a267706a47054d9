package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermodiarte/crmsys/internal/core/types"
)

func entryItem(code string, qty int64, gross string) EntryItem {
	return EntryItem{
		Code:           code,
		Quantity:       qty,
		CostGross:      types.MustMoney(gross),
		ExpirationDate: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAllocate_SingleLine(t *testing.T) {
	// 10 units at 100 gross plus 50 shipping at 21%+3% tax:
	// subtotal 1050, taxes 252, total 1302, per-unit untaxed 105,
	// so the derived shipping component is 5 per unit.
	res := Allocate(AllocationInput{
		Items:             []EntryItem{entryItem("A", 10, "100")},
		ShippingCostTotal: types.MustMoney("50"),
		TaxRate:           types.MustMoney("21"),
		ExtraTaxRate:      types.MustMoney("3"),
	})

	require.Len(t, res.Lines, 1)
	assert.True(t, res.TotalMaster.Equal(types.MustMoney("1302")), "total %s", res.TotalMaster)
	assert.True(t, res.Rounding.IsZero(), "rounding %s", res.Rounding)

	line := res.Lines[0]
	assert.True(t, line.GrossTotal.Equal(types.MustMoney("1000")))
	assert.True(t, line.TargetTotalCost.Equal(types.MustMoney("1302")))
	assert.True(t, line.ShippingCostUnit.Equal(types.MustMoney("5")), "shipping unit %s", line.ShippingCostUnit)
}

func TestAllocate_ProportionalByGross(t *testing.T) {
	res := Allocate(AllocationInput{
		Items: []EntryItem{
			entryItem("A", 2, "300"),
			entryItem("B", 4, "100"),
		},
		ShippingCostTotal:      types.MustMoney("100"),
		IncentiveDiscountTotal: types.MustMoney("50"),
		TaxRate:                types.MustMoney("21"),
		ExtraTaxRate:           types.MustMoney("3"),
	})

	require.Len(t, res.Lines, 2)
	assert.True(t, res.TotalMaster.Equal(types.MustMoney("1302")))

	// Gross weights 600/1000 and 400/1000.
	assert.True(t, res.Lines[0].TargetTotalCost.Equal(types.MustMoney("781.2")),
		"line A target %s", res.Lines[0].TargetTotalCost)
	assert.True(t, res.Lines[1].TargetTotalCost.Equal(types.MustMoney("520.8")),
		"line B target %s", res.Lines[1].TargetTotalCost)

	assert.True(t, res.Lines[0].ShippingCostUnit.Equal(types.MustMoney("15")),
		"line A shipping unit %s", res.Lines[0].ShippingCostUnit)
	assert.True(t, res.Lines[1].ShippingCostUnit.Equal(types.MustMoney("5")),
		"line B shipping unit %s", res.Lines[1].ShippingCostUnit)
}

func TestAllocate_ConservesTotal(t *testing.T) {
	// Thirds produce non-terminating weights; the per-line targets must still
	// reproduce the master total within the smallest currency unit.
	res := Allocate(AllocationInput{
		Items: []EntryItem{
			entryItem("A", 1, "33.33"),
			entryItem("B", 1, "33.33"),
			entryItem("C", 1, "33.33"),
		},
		ShippingCostTotal: types.MustMoney("10"),
		TaxRate:           types.MustMoney("21"),
		ExtraTaxRate:      types.MustMoney("3"),
	})

	sum := types.Zero()
	for _, line := range res.Lines {
		sum = sum.Add(line.TargetTotalCost)
	}
	diff := sum.Sub(res.TotalMaster).Abs()
	assert.True(t, diff.LessThan(types.MustMoney("0.01")),
		"sum %s vs master %s", sum, res.TotalMaster)
}

func TestAllocate_RoundingResidual(t *testing.T) {
	res := Allocate(AllocationInput{
		Items:        []EntryItem{entryItem("A", 1, "100.50")},
		TaxRate:      types.MustMoney("21"),
		ExtraTaxRate: types.MustMoney("3"),
	})

	// exact = 100.50 * 1.24 = 124.62, rounded up to 125.
	assert.True(t, res.TotalMaster.Equal(types.MustMoney("125")))
	assert.True(t, res.Rounding.Equal(types.MustMoney("0.38")), "rounding %s", res.Rounding)
}

func TestAllocate_NegativeShippingUnit(t *testing.T) {
	// Incentive discount exceeds shipping, so the derived unit component
	// goes negative.
	res := Allocate(AllocationInput{
		Items:                  []EntryItem{entryItem("A", 10, "100")},
		IncentiveDiscountTotal: types.MustMoney("50"),
		TaxRate:                types.Zero(),
		ExtraTaxRate:           types.Zero(),
	})

	require.Len(t, res.Lines, 1)
	assert.True(t, res.TotalMaster.Equal(types.MustMoney("950")))
	assert.True(t, res.Lines[0].ShippingCostUnit.Equal(types.MustMoney("-5")),
		"shipping unit %s", res.Lines[0].ShippingCostUnit)
}

func TestAllocate_ZeroGrossSplitsPerUnit(t *testing.T) {
	// All-zero-cost lines have undefined gross weights; the total is split
	// per unit instead of being dropped.
	res := Allocate(AllocationInput{
		Items: []EntryItem{
			entryItem("A", 1, "0"),
			entryItem("B", 3, "0"),
		},
		ShippingCostTotal: types.MustMoney("100"),
		TaxRate:           types.Zero(),
		ExtraTaxRate:      types.Zero(),
	})

	require.Len(t, res.Lines, 2)
	assert.True(t, res.TotalMaster.Equal(types.MustMoney("100")))
	assert.True(t, res.Lines[0].TargetTotalCost.Equal(types.MustMoney("25")),
		"line A target %s", res.Lines[0].TargetTotalCost)
	assert.True(t, res.Lines[1].TargetTotalCost.Equal(types.MustMoney("75")),
		"line B target %s", res.Lines[1].TargetTotalCost)
	assert.True(t, res.Lines[0].ShippingCostUnit.Equal(types.MustMoney("25")))
	assert.True(t, res.Lines[1].ShippingCostUnit.Equal(types.MustMoney("25")))
}

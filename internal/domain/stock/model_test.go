package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
)

func TestStockBatch_UnitCost(t *testing.T) {
	b := &StockBatch{
		CostGross:             types.MustMoney("100"),
		TaxRate:               types.MustMoney("21"),
		ExtraTaxRate:          types.MustMoney("3"),
		ShippingCostUnit:      types.MustMoney("5"),
		IncentiveDiscountUnit: types.Zero(),
	}

	// 100 * 1.24 + 5 = 129
	assert.True(t, b.UnitCost().Equal(types.MustMoney("129")), "unit cost %s", b.UnitCost())

	b.IncentiveDiscountUnit = types.MustMoney("4")
	assert.True(t, b.UnitCost().Equal(types.MustMoney("125")))

	b.ShippingCostUnit = types.MustMoney("-5")
	b.IncentiveDiscountUnit = types.Zero()
	assert.True(t, b.UnitCost().Equal(types.MustMoney("119")))
}

func TestEntryRequest_Validate(t *testing.T) {
	ctx := context.Background()
	valid := func() *EntryRequest {
		return &EntryRequest{
			Items: []EntryItem{entryItem("A", 5, "10")},
		}
	}

	require.NoError(t, valid().Validate(ctx))

	tests := []struct {
		name   string
		mutate func(*EntryRequest)
	}{
		{"no items", func(r *EntryRequest) { r.Items = nil }},
		{"empty code", func(r *EntryRequest) { r.Items[0].Code = "" }},
		{"zero quantity", func(r *EntryRequest) { r.Items[0].Quantity = 0 }},
		{"negative quantity", func(r *EntryRequest) { r.Items[0].Quantity = -1 }},
		{"negative gross", func(r *EntryRequest) { r.Items[0].CostGross = types.MustMoney("-1") }},
		{"missing expiration", func(r *EntryRequest) { r.Items[0].ExpirationDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := req.Validate(ctx)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

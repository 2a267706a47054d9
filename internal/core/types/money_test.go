package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToUnit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "1302", "1302"},
		{"half up", "10.5", "11"},
		{"below half", "10.49", "10"},
		{"negative half away from zero", "-10.5", "-11"},
		{"zero", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundToUnit(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPercentMultiplier(t *testing.T) {
	assert.True(t, PercentMultiplier(MustMoney("10")).Equal(MustMoney("1.1")))
	assert.True(t, PercentMultiplier(MustMoney("-20")).Equal(MustMoney("0.8")))
	assert.True(t, PercentMultiplier(Zero()).Equal(MustMoney("1")))
}

func TestTaxMultiplier(t *testing.T) {
	// The 21% + 3% combination used by the default configuration.
	got := TaxMultiplier(MustMoney("21"), MustMoney("3"))
	assert.True(t, got.Equal(MustMoney("1.24")), "got %s", got)

	got = TaxMultiplier(Zero(), Zero())
	assert.True(t, got.Equal(MustMoney("1")))
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("129.00")
	require.NoError(t, err)
	assert.True(t, m.Equal(NewMoney(129)))

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}

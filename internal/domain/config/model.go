// Package config provides the system configuration singleton.
package config

import (
	"context"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// SingletonID is the fixed primary key of the configuration row.
// The system keeps exactly one configuration record.
const SingletonID = 1

// SystemConfig holds global tax rates and alert thresholds.
// Tax rates are applied multiplicatively to gross cost at stock entry time
// and are snapshotted onto each batch; editing this record never rewrites
// historical batches.
type SystemConfig struct {
	ID                 int         `db:"id" json:"id"`
	IvaPercentage      types.Money `db:"iva_percentage" json:"ivaPercentage"`
	ExtraTaxPercentage types.Money `db:"extra_tax_percentage" json:"extraTaxPercentage"`
	ExpiryAlertMonths  int         `db:"expiry_alert_months" json:"expiryAlertMonths"`
	FilterMinYear      int         `db:"filter_min_year" json:"filterMinYear"`
	FilterMaxYear      int         `db:"filter_max_year" json:"filterMaxYear"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updatedAt"`
}

// DefaultConfig returns the configuration created on first read.
func DefaultConfig() *SystemConfig {
	return &SystemConfig{
		ID:                 SingletonID,
		IvaPercentage:      types.NewMoney(21),
		ExtraTaxPercentage: types.NewMoney(3),
		ExpiryAlertMonths:  3,
		FilterMinYear:      2020,
		FilterMaxYear:      2050,
	}
}

// Validate checks configuration invariants.
func (c *SystemConfig) Validate(ctx context.Context) error {
	if c.IvaPercentage.IsNegative() {
		return apperror.NewValidation("iva percentage must not be negative").
			WithDetail("field", "ivaPercentage")
	}
	if c.ExtraTaxPercentage.IsNegative() {
		return apperror.NewValidation("extra tax percentage must not be negative").
			WithDetail("field", "extraTaxPercentage")
	}
	if c.ExpiryAlertMonths < 0 {
		return apperror.NewValidation("expiry alert months must not be negative").
			WithDetail("field", "expiryAlertMonths")
	}
	if c.FilterMinYear > c.FilterMaxYear {
		return apperror.NewValidation("filter min year must not exceed max year").
			WithDetail("field", "filterMinYear")
	}
	return nil
}

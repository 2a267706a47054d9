package config

import (
	"context"
)

// Repository defines persistence operations for the configuration singleton.
type Repository interface {
	// Get returns the configuration row, or NOT_FOUND if it was never created.
	Get(ctx context.Context) (*SystemConfig, error)

	// Create inserts the singleton row.
	Create(ctx context.Context, cfg *SystemConfig) error

	// Update rewrites the singleton row.
	Update(ctx context.Context, cfg *SystemConfig) error
}

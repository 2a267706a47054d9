package config

import (
	"context"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/tx"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// Service provides configuration operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new configuration service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Get returns the current configuration, creating it with defaults on first read.
func (s *Service) Get(ctx context.Context) (*SystemConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err == nil {
		return cfg, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	cfg = DefaultConfig()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, cfg)
	})
	if err != nil {
		// Concurrent first read may have created the row already.
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
			return s.repo.Get(ctx)
		}
		return nil, err
	}

	logger.Info(ctx, "system config created with defaults")
	return cfg, nil
}

// Update replaces the mutable configuration fields.
func (s *Service) Update(ctx context.Context, cfg *SystemConfig) (*SystemConfig, error) {
	cfg.ID = SingletonID

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}

	// Ensure the row exists before updating (lazy creation path).
	if _, err := s.Get(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "system config updated",
		"iva", cfg.IvaPercentage,
		"extra_tax", cfg.ExtraTaxPercentage,
		"expiry_alert_months", cfg.ExpiryAlertMonths,
	)

	return s.repo.Get(ctx)
}

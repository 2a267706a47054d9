package postgres

import (
	"fmt"

	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
)

const configTable = "system_config"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// ConfigRepo implements config.Repository.
type ConfigRepo struct {
	txm *TxManager
}

// NewConfigRepo creates a new config repository.
func NewConfigRepo(txm *TxManager) *ConfigRepo {
	return &ConfigRepo{txm: txm}
}

var _ config.Repository = (*ConfigRepo)(nil)

// Get returns the singleton configuration row.
func (r *ConfigRepo) Get(ctx context.Context) (*config.SystemConfig, error) {
	q := psql.
		Select("id", "iva_percentage", "extra_tax_percentage",
			"expiry_alert_months", "filter_min_year", "filter_max_year", "updated_at").
		From(configTable).
		Where(squirrel.Eq{"id": config.SingletonID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg config.SystemConfig
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("system_config", config.SingletonID)
		}
		return nil, fmt.Errorf("get config: %w", err)
	}

	return &cfg, nil
}

// Create inserts the singleton row.
func (r *ConfigRepo) Create(ctx context.Context, cfg *config.SystemConfig) error {
	q := psql.
		Insert(configTable).
		Columns("id", "iva_percentage", "extra_tax_percentage",
			"expiry_alert_months", "filter_min_year", "filter_max_year").
		Values(cfg.ID, cfg.IvaPercentage, cfg.ExtraTaxPercentage,
			cfg.ExpiryAlertMonths, cfg.FilterMinYear, cfg.FilterMaxYear)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("system_config", "id", fmt.Sprint(cfg.ID))
		}
		return fmt.Errorf("insert config: %w", err)
	}
	return nil
}

// Update rewrites the singleton row.
func (r *ConfigRepo) Update(ctx context.Context, cfg *config.SystemConfig) error {
	q := psql.
		Update(configTable).
		Set("iva_percentage", cfg.IvaPercentage).
		Set("extra_tax_percentage", cfg.ExtraTaxPercentage).
		Set("expiry_alert_months", cfg.ExpiryAlertMonths).
		Set("filter_min_year", cfg.FilterMinYear).
		Set("filter_max_year", cfg.FilterMaxYear).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": config.SingletonID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("system_config", config.SingletonID)
	}
	return nil
}

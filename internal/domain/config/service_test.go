package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// noopTx runs the function directly without a real transaction.
type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeConfigRepo struct {
	cfg       *SystemConfig
	createDup bool
	creates   int
}

func (r *fakeConfigRepo) Get(ctx context.Context) (*SystemConfig, error) {
	if r.cfg == nil {
		return nil, apperror.NewNotFound("system_config", SingletonID)
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *fakeConfigRepo) Create(ctx context.Context, cfg *SystemConfig) error {
	r.creates++
	if r.createDup {
		// Simulates a concurrent first read winning the insert.
		r.cfg = DefaultConfig()
		return apperror.NewDuplicate("system_config", "id", "1")
	}
	cp := *cfg
	r.cfg = &cp
	return nil
}

func (r *fakeConfigRepo) Update(ctx context.Context, cfg *SystemConfig) error {
	if r.cfg == nil {
		return apperror.NewNotFound("system_config", SingletonID)
	}
	cp := *cfg
	r.cfg = &cp
	return nil
}

func TestGet_CreatesDefaultsOnFirstRead(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc := NewService(repo, noopTx{})

	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SingletonID, cfg.ID)
	assert.True(t, cfg.IvaPercentage.Equal(types.MustMoney("21")))
	assert.True(t, cfg.ExtraTaxPercentage.Equal(types.MustMoney("3")))
	assert.Equal(t, 3, cfg.ExpiryAlertMonths)
	assert.Equal(t, 1, repo.creates)

	// Second read hits the stored row, no second create.
	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)
}

func TestGet_ConcurrentFirstRead(t *testing.T) {
	repo := &fakeConfigRepo{createDup: true}
	svc := NewService(repo, noopTx{})

	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SingletonID, cfg.ID)
}

func TestUpdate(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc := NewService(repo, noopTx{})
	ctx := context.Background()

	upd := DefaultConfig()
	upd.IvaPercentage = types.MustMoney("10.5")
	upd.ExpiryAlertMonths = 6

	cfg, err := svc.Update(ctx, upd)
	require.NoError(t, err)
	assert.True(t, cfg.IvaPercentage.Equal(types.MustMoney("10.5")))
	assert.Equal(t, 6, cfg.ExpiryAlertMonths)
}

func TestUpdate_Invalid(t *testing.T) {
	svc := NewService(&fakeConfigRepo{}, noopTx{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SystemConfig)
	}{
		{"negative iva", func(c *SystemConfig) { c.IvaPercentage = types.MustMoney("-1") }},
		{"negative extra tax", func(c *SystemConfig) { c.ExtraTaxPercentage = types.MustMoney("-1") }},
		{"negative alert months", func(c *SystemConfig) { c.ExpiryAlertMonths = -1 }},
		{"inverted year range", func(c *SystemConfig) { c.FilterMinYear = 2051 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := svc.Update(ctx, cfg)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

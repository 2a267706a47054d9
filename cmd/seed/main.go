// Package main seeds the database with the initial admin user and the
// default system configuration.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/domain/auth"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/storage/postgres"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepo(txManager)
	configRepo := postgres.NewConfigRepo(txManager)

	// Admin user
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("seed-unused"))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	adminEmail := getEnv("ADMIN_EMAIL", "admin@crm.com")
	adminPassword := getEnv("ADMIN_PASSWORD", "admin123!")

	user, err := authService.Register(ctx, auth.RegisterRequest{
		Email:    adminEmail,
		Password: adminPassword,
		Name:     "Administrador",
		Role:     auth.RoleAdmin,
	})
	switch {
	case err == nil:
		log.Infow("admin user created", "email", user.Email)
	case isDuplicate(err):
		log.Infow("admin user already exists", "email", adminEmail)
	default:
		log.Fatalw("failed to create admin user", "error", err)
	}

	// Default configuration
	configService := config.NewService(configRepo, txManager)
	cfg, err := configService.Get(ctx)
	if err != nil {
		log.Fatalw("failed to ensure system config", "error", err)
	}
	log.Infow("system config ready",
		"iva", cfg.IvaPercentage,
		"extra_tax", cfg.ExtraTaxPercentage,
		"expiry_alert_months", cfg.ExpiryAlertMonths,
	)

	log.Info("seed complete")
}

func isDuplicate(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == apperror.CodeDuplicate
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

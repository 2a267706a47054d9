// Package main is the entry point for the crmsys API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/guillermodiarte/crmsys/internal/domain/auth"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/domain/expense"
	"github.com/guillermodiarte/crmsys/internal/domain/finance"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
	v1 "github.com/guillermodiarte/crmsys/internal/infrastructure/http/v1"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/storage/postgres"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting crmsys server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	configRepo := postgres.NewConfigRepo(txManager)
	productRepo := postgres.NewProductRepo(txManager)
	stockRepo := postgres.NewStockRepo(txManager)
	salesRepo := postgres.NewSalesRepo(txManager)
	expenseRepo := postgres.NewExpenseRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)

	// --- Services ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	configService := config.NewService(configRepo, txManager)
	catalogService := catalog.NewService(productRepo, txManager)
	expenseService := expense.NewService(expenseRepo, txManager)
	stockService := stock.NewService(stockRepo, productRepo, configService, expenseRepo, txManager)
	salesService := sales.NewService(salesRepo, stockRepo, txManager)
	financeService := finance.NewService(salesRepo, stockRepo, userRepo, configService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		ConfigService:  configService,
		CatalogService: catalogService,
		StockService:   stockService,
		SalesService:   salesService,
		ExpenseService: expenseService,
		FinanceService: financeService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/auth"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
	"github.com/guillermodiarte/crmsys/internal/domain/config"
	"github.com/guillermodiarte/crmsys/internal/domain/expense"
	"github.com/guillermodiarte/crmsys/internal/domain/finance"
	"github.com/guillermodiarte/crmsys/internal/domain/sales"
	"github.com/guillermodiarte/crmsys/internal/domain/stock"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/http/v1/handlers"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/http/v1/middleware"
	"github.com/guillermodiarte/crmsys/internal/infrastructure/storage/postgres"
	"github.com/guillermodiarte/crmsys/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService    *auth.Service
	ConfigService  *config.Service
	CatalogService *catalog.Service
	StockService   *stock.Service
	SalesService   *sales.Service
	ExpenseService *expense.Service
	FinanceService *finance.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Live)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints
		v1.POST("/auth/login", authHandler.Login)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		authGroup := protected.Group("/auth")
		{
			authGroup.GET("/me", authHandler.Me)
			authGroup.POST("/change-password", authHandler.ChangePassword)
			authGroup.POST("/register", middleware.RequireRole(auth.RoleAdmin), authHandler.Register)
		}

		users := protected.Group("/users", middleware.RequireRole(auth.RoleAdmin))
		{
			users.GET("", authHandler.ListUsers)
			users.PUT("/:id", authHandler.UpdateUser)
			users.DELETE("/:id", authHandler.DeleteUser)
		}

		configHandler := handlers.NewConfigHandler(base, cfg.ConfigService)
		protected.GET("/config", configHandler.Get)
		protected.PUT("/config", configHandler.Update)

		catalogHandler := handlers.NewCatalogHandler(base, cfg.CatalogService)
		products := protected.Group("/products")
		{
			products.GET("", catalogHandler.List)
			products.POST("", catalogHandler.Create)
			products.POST("/bulk", catalogHandler.BulkImport)
			products.POST("/price-update", catalogHandler.PriceUpdate)
			products.GET("/:code", catalogHandler.Get)
			products.PUT("/:code", catalogHandler.Update)
			products.DELETE("/:code", catalogHandler.Delete)
		}

		stockHandler := handlers.NewStockHandler(base, cfg.StockService)
		stockGroup := protected.Group("/stock")
		{
			stockGroup.POST("/entries", stockHandler.CreateEntry)
			stockGroup.GET("/batches", stockHandler.ListBatches)
			stockGroup.PUT("/batches/:id", stockHandler.UpdateBatch)
			stockGroup.DELETE("/batches/:id", stockHandler.DeleteBatch)
			stockGroup.GET("/available", stockHandler.Available)
			stockGroup.GET("/products", stockHandler.ProductsWithStock)
		}

		salesHandler := handlers.NewSalesHandler(base, cfg.SalesService)
		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("", salesHandler.Create)
			salesGroup.GET("", salesHandler.List)
			salesGroup.GET("/:id", salesHandler.Get)
			salesGroup.PUT("/:id", salesHandler.Update)
			salesGroup.DELETE("/:id", salesHandler.Delete)
		}

		expenseHandler := handlers.NewExpenseHandler(base, cfg.ExpenseService)
		expenses := protected.Group("/expenses")
		{
			expenses.GET("", expenseHandler.List)
			expenses.POST("", expenseHandler.Create)
			expenses.DELETE("/:id", expenseHandler.Delete)
		}

		financeHandler := handlers.NewFinanceHandler(base, cfg.FinanceService)
		financeGroup := protected.Group("/finance")
		{
			financeGroup.GET("/metrics", financeHandler.Metrics)
			financeGroup.GET("/annual", financeHandler.Annual)
			financeGroup.GET("/dashboard", financeHandler.Dashboard)
		}
	}

	return router
}

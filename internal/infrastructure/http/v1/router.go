// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/core/events"
	"retailops/internal/core/numerator"
	"retailops/internal/domain/inventory"
	"retailops/internal/domain/orders"
	"retailops/internal/domain/pricing"
	"retailops/internal/domain/purchasing"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/http/v1/middleware"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// TxManager drives transactions for all repositories.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// Numerator generates document numbers.
	Numerator numerator.Generator

	// Sink receives domain events (outbox).
	Sink events.Sink
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

	// Health endpoints (no identity required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Domain wiring. Repos share the TxManager so service-level
	// transactions span every repository call inside them.
	pricingRepo := postgres.NewPricingRepo(cfg.TxManager)
	inventoryRepo := postgres.NewInventoryRepo(cfg.TxManager)
	ordersRepo := postgres.NewOrdersRepo(cfg.TxManager)
	purchasingRepo := postgres.NewPurchasingRepo(cfg.TxManager)

	pricingService := pricing.NewService(pricingRepo, cfg.TxManager)
	inventoryService := inventory.NewService(inventoryRepo, cfg.TxManager, cfg.Sink)
	ordersService := orders.NewService(ordersRepo, pricingService, inventoryService, cfg.Numerator, cfg.TxManager, cfg.Sink)
	purchasingService := purchasing.NewService(purchasingRepo, inventoryService, cfg.Numerator, cfg.TxManager, cfg.Sink)

	base := handlers.NewBaseHandler()
	pricingHandler := handlers.NewPricingHandler(base, pricingService)
	inventoryHandler := handlers.NewInventoryHandler(base, inventoryService)
	ordersHandler := handlers.NewOrdersHandler(base, ordersService)
	purchasingHandler := handlers.NewPurchasingHandler(base, purchasingService)

	// API v1: caller identity from gateway headers
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.UserContext())
	{
		pricingGroup := apiV1.Group("/pricing")
		{
			pricingGroup.GET("/resolve", pricingHandler.Resolve)
			pricingGroup.GET("/tiers", pricingHandler.ListTiers)
			pricingGroup.POST("/tiers", pricingHandler.CreateTier)
			pricingGroup.POST("/tiers/:id/default", pricingHandler.SetDefaultTier)
		}

		inventoryGroup := apiV1.Group("/inventory")
		{
			inventoryGroup.POST("/adjust", inventoryHandler.Adjust)
			inventoryGroup.POST("/transfer", inventoryHandler.Transfer)
			inventoryGroup.PUT("/minimum-stock", inventoryHandler.SetMinimumStock)
			inventoryGroup.GET("/movements", inventoryHandler.GetMovements)
			inventoryGroup.GET("/warehouse/:warehouseId", inventoryHandler.ListWarehouseStock)
			inventoryGroup.GET("/:productId/:warehouseId", inventoryHandler.Get)
		}

		ordersGroup := apiV1.Group("/orders")
		{
			ordersGroup.POST("", ordersHandler.Create)
			ordersGroup.GET("", ordersHandler.List)
			ordersGroup.GET("/:id", ordersHandler.Get)
			ordersGroup.POST("/:id/payments", ordersHandler.AddPayment)
			ordersGroup.POST("/:id/complete", ordersHandler.Complete)
			ordersGroup.POST("/:id/cancel", ordersHandler.Cancel)
		}

		poGroup := apiV1.Group("/purchase-orders")
		{
			poGroup.POST("", purchasingHandler.Create)
			poGroup.GET("", purchasingHandler.List)
			poGroup.GET("/:id", purchasingHandler.Get)
			poGroup.PATCH("/:id", purchasingHandler.Update)
			poGroup.POST("/:id/receive", purchasingHandler.Receive)
			poGroup.POST("/:id/cancel", purchasingHandler.Cancel)
		}
	}

	return router
}

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/highgoal215/cryptowallet_service/docs"
	"github.com/highgoal215/cryptowallet_service/internal/api/handlers"
	"github.com/highgoal215/cryptowallet_service/internal/api/middleware"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/di"
	"github.com/highgoal215/cryptowallet_service/pkg/idempotency"
	"github.com/highgoal215/cryptowallet_service/pkg/tracing"
)

const apiVersion = "1.0.0"

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	sessions := container.SessionManager

	healthHandler := handlers.NewHealthHandler(
		container.HealthChecks(),
		func() int { return len(sessions.Active()) },
		container.ZapLog,
		apiVersion,
	)
	authHandlers := handlers.NewAuthHandlers(sessions, container.Logger)
	walletHandlers := handlers.NewWalletHandlers(container.Logger)
	fundingHandlers := handlers.NewFundingHandlers(container.Logger)
	transactionHandlers := handlers.NewTransactionHandlers(container.Logger)

	// Health checks (no auth required)
	router.GET("/health", healthHandler.Health)
	router.GET("/ping", healthHandler.Ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation (development only)
	if container.Config.Environment != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(container.LoginLimiter.Limit())
		{
			auth.POST("/login", authHandlers.Login)
			auth.POST("/register", authHandlers.Register)
		}

		protected := v1.Group("")
		protected.Use(middleware.SessionAuth(sessions, container.Logger))
		protected.Use(idempotency.Middleware(container.Idempotency, idempotency.DefaultTTL, container.ZapLog))
		{
			protected.POST("/auth/logout", authHandlers.Logout)

			wallets := protected.Group("/wallets")
			{
				wallets.GET("", walletHandlers.ListWallets)
				wallets.POST("", walletHandlers.CreateWallet)
				wallets.POST("/import", walletHandlers.ImportWallet)
				wallets.POST("/import-key", walletHandlers.ImportWalletKey)
				wallets.POST("/sync", walletHandlers.SyncWallets)
				wallets.POST("/refresh", walletHandlers.RefreshWallets)
			}

			protected.GET("/bank-details", walletHandlers.GetBankDetails)

			protected.POST("/deposits", fundingHandlers.Deposit)
			protected.POST("/withdrawals", fundingHandlers.Withdraw)
			protected.POST("/transfers", fundingHandlers.Transfer)
			protected.POST("/swaps", fundingHandlers.Swap)
			protected.POST("/buys", fundingHandlers.Buy)

			transactions := protected.Group("/transactions")
			{
				transactions.GET("", transactionHandlers.ListTransactions)
				transactions.POST("/:id/settle", transactionHandlers.SettleTransaction)
			}
		}
	}

	return router
}

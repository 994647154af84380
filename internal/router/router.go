// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edumarket/edumarket-backend/internal/config"
	"github.com/edumarket/edumarket-backend/internal/handlers"
	"github.com/edumarket/edumarket-backend/internal/middleware"
	"github.com/edumarket/edumarket-backend/internal/payment"
	"github.com/edumarket/edumarket-backend/internal/services"
	"github.com/edumarket/edumarket-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	provider := payment.NewStripeProvider(cfg.Payment)
	return InitializeWithProvider(db, cfg, provider)
}

// InitializeWithProvider wires the full service graph around an explicit
// payment provider; tests pass a fake.
func InitializeWithProvider(db *gorm.DB, cfg *config.Config, provider payment.Provider) *gin.Engine {
	// Initialize services
	notifier := services.NewLogNotifier()
	settingsService := services.NewSettingsService(db, cfg)
	royaltyCalculator := services.NewRoyaltyCalculator(cfg.Royalty)
	ledgerService := services.NewLedgerService(db)
	tierService := services.NewTierService(db, settingsService)
	licenseService := services.NewLicenseService(db)
	purchaseService := services.NewPurchaseService(db, provider, royaltyCalculator, ledgerService, tierService, notifier, cfg.Payment)
	reconcileService := services.NewReconcileService(purchaseService, provider)
	withdrawalService := services.NewWithdrawalService(db, ledgerService, settingsService, notifier, cfg.Withdrawal)

	// Initialize handlers
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, reconcileService)
	webhookHandler := handlers.NewWebhookHandler(reconcileService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	sellerHandler := handlers.NewSellerHandler(ledgerService, tierService, purchaseService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	adminHandler := handlers.NewAdminHandler(withdrawalService, purchaseService, ledgerService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	if cfg.Environment != "test" {
		r.Use(middleware.GeneralRateLimit())
	}
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Webhooks are authenticated by signature, not by JWT
		webhooks := v1.Group("/webhooks")
		webhooks.Use(middleware.WebhookRateLimit())
		{
			webhooks.POST("/payment", webhookHandler.HandlePaymentWebhook)
		}

		// Purchase routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("", middleware.PurchaseRateLimit(), purchaseHandler.CreatePurchase)
			purchases.GET("", purchaseHandler.ListPurchases)
			purchases.GET("/complete", purchaseHandler.CompletePurchase)
			purchases.GET("/:id", purchaseHandler.GetPurchase)
			purchases.GET("/:id/users", licenseHandler.ListAuthorizedUsers)
		}

		// Resource access
		resources := v1.Group("/resources")
		resources.Use(middleware.AuthRequired())
		{
			resources.GET("/:id/access", licenseHandler.CheckAccess)
		}

		// Seller routes
		sellers := v1.Group("/sellers")
		sellers.Use(middleware.AuthRequired(), middleware.SellerRequired())
		{
			sellers.GET("/balance", sellerHandler.GetBalance)
			sellers.GET("/ledger", sellerHandler.GetLedger)
			sellers.GET("/tier", sellerHandler.GetTier)
			sellers.GET("/sales", sellerHandler.ListSales)
			sellers.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
			sellers.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
			sellers.GET("/withdrawals/:id", withdrawalHandler.GetWithdrawal)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.PUT("/withdrawals/:id/process", adminHandler.ProcessWithdrawal)
			admin.POST("/purchases/:id/refund", adminHandler.RefundPurchase)
			admin.GET("/sellers/:id/ledger/verify", adminHandler.VerifyLedger)
		}
	}

	return r
}

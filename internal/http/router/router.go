package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-ledger/internal/config"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers"
	"github.com/ignatzorin/escrow-ledger/internal/http/middleware"
	"github.com/ignatzorin/escrow-ledger/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	walletHandler *handlers.WalletHandler,
	projectHandler *handlers.ProjectHandler,
	offerHandler *handlers.OfferHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	invoiceHandler *handlers.InvoiceHandler,
	webhookHandler *handlers.WebhookHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.GET("/ws", wsHandler.Handle)

	// Колбэки платёжного процессора: токен процессора вместо JWT,
	// плюс отдельный rate limit.
	webhooks := api.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	webhooks.Use(middleware.WebhookAuth(cfg.PayoutWebhookHash))
	{
		webhooks.POST("/deposit", webhookHandler.Deposit)
		webhooks.POST("/payout", webhookHandler.Payout)
		webhooks.POST("/invoice-payment", webhookHandler.InvoicePayment)
	}

	// Пользовательские маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/wallets", walletHandler.EnsureWallet)
		protected.GET("/wallets/balance", walletHandler.GetBalance)
		protected.GET("/wallets/transactions", walletHandler.ListTransactions)
		protected.GET("/wallets/reconciliation", walletHandler.Reconcile)

		protected.POST("/projects", projectHandler.Create)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Get)
		protected.POST("/projects/:id/cancel", middleware.UUIDValidator("id"), projectHandler.Cancel)
		protected.POST("/projects/:id/milestones/:position/complete", middleware.UUIDValidator("id"), projectHandler.CompleteMilestone)
		protected.POST("/projects/:id/milestones/:position/approve", middleware.UUIDValidator("id"), projectHandler.ApproveMilestone)

		protected.POST("/offers", offerHandler.Create)
		protected.GET("/offers/:id", middleware.UUIDValidator("id"), offerHandler.Get)
		protected.POST("/offers/:id/accept", middleware.UUIDValidator("id"), offerHandler.Accept)
		protected.POST("/offers/:id/reject", middleware.UUIDValidator("id"), offerHandler.Reject)

		protected.POST("/withdrawals", withdrawalHandler.Initiate)
		protected.GET("/withdrawals", withdrawalHandler.List)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), withdrawalHandler.Get)
		protected.POST("/withdrawals/:id/cancel", middleware.UUIDValidator("id"), withdrawalHandler.Cancel)

		protected.POST("/invoices", invoiceHandler.Submit)
		protected.GET("/invoices", invoiceHandler.List)
		protected.GET("/invoices/:id", middleware.UUIDValidator("id"), invoiceHandler.Get)
		protected.GET("/invoices/:id/document", middleware.UUIDValidator("id"), invoiceHandler.Download)
	}

	// Администрирование: проверка счетов и сверка кошельков.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/invoices", invoiceHandler.ListForReview)
		admin.POST("/invoices/:id/review", middleware.UUIDValidator("id"), invoiceHandler.Review)
		admin.POST("/invoices/:id/approve", middleware.UUIDValidator("id"), invoiceHandler.Approve)
		admin.POST("/invoices/:id/reject", middleware.UUIDValidator("id"), invoiceHandler.Reject)
		admin.GET("/wallets/:id/reconciliation", middleware.UUIDValidator("id"), walletHandler.ReconcileUser)
	}

	return r
}

package api

import (
	"donation-api/internal/config"
	"donation-api/internal/middleware"
	"donation-api/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// verifiableTransactionType accepts the payment methods a gateway payment can use.
var verifiableTransactionType validator.Func = func(fl validator.FieldLevel) bool {
	t, ok := models.ParseTransactionType(fl.Field().String())
	return ok && t != models.TransactionTypeCash
}

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler, cfg *config.Config) {
	r.Use(middleware.RequestIDMiddleware())

	if len(cfg.CORSAllowedOrigins) == 0 {
		r.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = cfg.CORSAllowedOrigins
		cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "X-API-Key", middleware.RequestIDHeader)
		cc.ExposeHeaders = append(cc.ExposeHeaders, "Content-Disposition", middleware.RequestIDHeader)
		r.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("txtype", verifiableTransactionType)
	}

	// The frontend calls the root paths; /api mirrors them.
	registerRoutes(&r.RouterGroup, h, cfg)
	registerRoutes(r.Group("/api"), h, cfg)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "donation-api",
		})
	})
}

func registerRoutes(g *gin.RouterGroup, h *Handler, cfg *config.Config) {
	g.POST("/create-order", h.CreateOrder)
	g.POST("/cash-payment", h.CashPayment)
	g.POST("/verify-payment", h.VerifyPayment)
	g.POST("/send-receipt", h.SendReceipt)

	admin := g.Group("")
	admin.Use(middleware.AdminAuthMiddleware(cfg.AdminAPIKey))
	{
		admin.GET("/export-transactions", h.ExportTransactions)
	}

	// Razorpay calls this, authenticated by the webhook signature
	if len(h.webhookSecret) > 0 {
		g.POST("/razorpay/webhook", h.RazorpayWebhook)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donation-api/internal/api"
	"donation-api/internal/config"
	"donation-api/internal/database"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const (
	paymentLockTTL   = 30 * time.Second
	webhookReplayTTL = 24 * time.Hour
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}
	cfg := config.AppConfig

	// Initialize logging
	logging.InitLogging()

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		logging.Warnf("RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET is not set, payments cannot be created or verified")
	}

	// Initialize database
	db, rdb, err := database.InitDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDatabase(db, rdb)

	var locker services.PaymentLocker = services.NewKeyedMutex()
	if rdb != nil {
		locker = services.NewRedisPaymentLocker(rdb, paymentLockTTL)
	}

	notifier, err := services.NewNotifier(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize mail provider:", err)
	}
	logging.Infof("Mail provider: %s", cfg.MailProvider)

	ledger := database.NewTransactionLedger(db)
	gateway := services.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)
	orders := services.NewOrderService(gateway, ledger, locker, notifier, services.OrderServiceConfig{
		KeySecret:      cfg.RazorpayKeySecret,
		Currency:       cfg.Currency,
		GatewayTimeout: cfg.GatewayTimeout,
		DBTimeout:      cfg.DBTimeout,
		AutoReceipt:    cfg.AutoReceipt,
	})
	handler := api.NewHandler(orders, notifier, services.NewExportService(ledger), cfg.RazorpayWebhookSecret)
	replay := services.NewReplayGuard(webhookReplayTTL)
	defer replay.Stop()
	handler.UseReplayGuard(replay)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, handler, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Errorf("Server shutdown: %v", err)
	}
	orders.Wait()
	logging.Infof("Server stopped")
}

package main

import (
	"database/sql"
	"net/http"

	"festora-be/internal/commission"
	"festora-be/internal/config"
	"festora-be/internal/db"
	"festora-be/internal/logger"
	"festora-be/internal/metrics"
	"festora-be/internal/middleware"
	"festora-be/internal/notification"
	"festora-be/internal/order"
	"festora-be/internal/phonepe"
	"festora-be/internal/product"
	"festora-be/internal/settlement"
	"festora-be/internal/settlement/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Swappable for tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router := newServer(cfg, database)

	logger.L().Info("server listening", zap.String("port", cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, router)
}

// newServer wires the repositories, the gateway client and the
// settlement pipeline into an http.Handler.
func newServer(cfg *config.Config, database *sql.DB) http.Handler {
	orderRepo := order.NewRepository(database)
	productRepo := product.NewRepository(database)
	commissionRepo := commission.NewRepository(database)

	m := metrics.New()

	tokens := phonepe.NewTokenSource(cfg)
	gateway := phonepe.NewClient(cfg, tokens, m)

	notifier := notification.NewEmailSender(cfg)

	reconciler := settlement.NewReconciler(orderRepo, productRepo, commissionRepo, notifier, cfg.CommissionRate, m)
	svc := settlement.NewService(orderRepo, gateway, reconciler, cfg)

	h := handler.New(orderRepo, gateway, reconciler, gateway, svc, m)

	return setupRouter(h)
}

func setupRouter(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /payment/checkout", h.CheckoutHandler)
	// PhonePe redirects the browser back with GET or POST depending on
	// the checkout flavor.
	mux.HandleFunc("GET /payment/callback", h.CallbackHandler)
	mux.HandleFunc("POST /payment/callback", h.CallbackHandler)
	mux.HandleFunc("GET /payment/status/{merchantOrderId}", h.StatusHandler)
	mux.HandleFunc("POST /payment/refund", h.RefundHandler)
	mux.HandleFunc("GET /payment/refund/{merchantRefundId}/status", h.RefundStatusHandler)
	mux.HandleFunc("POST /webhook/phonepe", h.WebhookHandler)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var root http.Handler = mux
	root = middleware.RateLimitMiddleware(root)
	root = logger.LoggingMiddleware(root)
	root = logger.RequestIDMiddleware(root)
	return root
}

package api

import (
	"net/http"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/auth"
	"go.uber.org/zap"
)

// RouterConfig holds all dependencies for the router
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	optionalAuth := middleware.OptionalAuthMiddleware(cfg.JWTService)
	staffOnly := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireStaff(h))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/login", cfg.AuthHandlers.Login)
	mux.HandleFunc("POST /api/auth/logout", cfg.AuthHandlers.Logout)
	mux.HandleFunc("POST /api/auth/refresh", cfg.AuthHandlers.Refresh)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(cfg.AuthHandlers.Me)))

	// Metadata
	mux.HandleFunc("GET /order-statuses", cfg.Handlers.GetOrderStatuses)

	// Customer orders
	mux.Handle("GET /orders", requireAuth(http.HandlerFunc(cfg.Handlers.GetOrders)))
	mux.Handle("GET /orders/{id}", requireAuth(http.HandlerFunc(cfg.Handlers.GetOrder)))
	mux.Handle("POST /orders/{id}/delivered", requireAuth(http.HandlerFunc(cfg.Handlers.MarkDelivered)))

	// Admin
	mux.Handle("GET /admin/dashboard", staffOnly(cfg.Handlers.AdminDashboard))
	mux.Handle("GET /admin/orders", staffOnly(cfg.Handlers.AdminListOrders))
	mux.Handle("GET /admin/orders/pending-count", optionalAuth(http.HandlerFunc(cfg.Handlers.PendingCount)))
	mux.Handle("GET /admin/orders/{id}", staffOnly(cfg.Handlers.AdminGetOrder))
	// Staff check happens in the domain so the response keeps the {success, error} shape
	mux.Handle("POST /admin/orders/{id}/status", requireAuth(http.HandlerFunc(cfg.Handlers.UpdateOrderStatus)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return middleware.Logging(logger.Named("http"))(mux)
}

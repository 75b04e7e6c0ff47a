package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopfronthq/shopfront-backend/api/controllers"
	"github.com/shopfronthq/shopfront-backend/api/middleware"
	"github.com/shopfronthq/shopfront-backend/internal/analytics"
	"github.com/shopfronthq/shopfront-backend/internal/auth"
	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/internal/orders"
	"github.com/shopfronthq/shopfront-backend/internal/products"
	"github.com/shopfronthq/shopfront-backend/internal/settings"
	"github.com/shopfronthq/shopfront-backend/pkg/auth/session"
	"github.com/shopfronthq/shopfront-backend/pkg/config"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	"github.com/shopfronthq/shopfront-backend/pkg/redis"
)

// Pinger is the readiness contract each hard dependency satisfies.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       Pinger
	Redis    *redis.Client
	BigQuery Pinger

	SessionManager session.AccessSessionChecker

	AuthService      auth.Service
	ProductService   products.Service
	OrderService     orders.Service
	InventoryService inventory.Service
	SettingsService  settings.Service
	AnalyticsService analytics.Service
}

// NewRouter assembles the admin API.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	deps := map[string]controllers.Pinger{}
	if params.DB != nil {
		deps["database"] = params.DB
	}
	if params.Redis != nil {
		deps["redis"] = params.Redis
	}
	if params.BigQuery != nil {
		deps["bigquery"] = params.BigQuery
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, params.Redis, logg)).
			Post("/login", controllers.AuthLogin(params.AuthService, logg))
		if !cfg.App.IsProd() {
			r.With(middleware.AuthRateLimit(registerPolicy, params.Redis, logg)).
				Post("/register", controllers.AuthRegister(params.AuthService, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionManager, logg))
		r.Use(middleware.Idempotency(params.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(params.ProductService, logg))
			r.Post("/", controllers.CreateProduct(params.ProductService, logg))
			r.Get("/{productId}", controllers.GetProduct(params.ProductService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(params.ProductService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(params.ProductService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(params.OrderService, logg))
			r.Post("/", controllers.CreateOrder(params.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(params.OrderService, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(params.OrderService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(params.OrderService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/records", controllers.ListInventoryRecords(params.InventoryService, logg))
			r.Put("/records", controllers.UpsertInventoryRecord(params.InventoryService, logg))
			r.Get("/records/{recordId}", controllers.GetInventoryRecord(params.InventoryService, logg))
			r.Post("/adjustments", controllers.CreateAdjustment(params.InventoryService, logg))
			r.Get("/movements", controllers.ListStockMovements(params.InventoryService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/stock-management", controllers.GetStockManagement(params.SettingsService, logg))
			r.Get("/{key}", controllers.GetSetting(params.SettingsService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.AdminRoleAdmin), logg))
				r.Put("/stock-management", controllers.SetStockManagement(params.SettingsService, logg))
				r.Put("/{key}", controllers.PutSetting(params.SettingsService, logg))
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/sales", controllers.SalesSummary(params.AnalyticsService, logg))
		})
	})

	return r
}

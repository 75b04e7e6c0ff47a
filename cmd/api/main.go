package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/shopfronthq/shopfront-backend/api/routes"
	"github.com/shopfronthq/shopfront-backend/internal/analytics"
	"github.com/shopfronthq/shopfront-backend/internal/auth"
	"github.com/shopfronthq/shopfront-backend/internal/inventory"
	"github.com/shopfronthq/shopfront-backend/internal/orders"
	"github.com/shopfronthq/shopfront-backend/internal/products"
	"github.com/shopfronthq/shopfront-backend/internal/settings"
	"github.com/shopfronthq/shopfront-backend/internal/users"
	"github.com/shopfronthq/shopfront-backend/pkg/auth/session"
	"github.com/shopfronthq/shopfront-backend/pkg/bigquery"
	"github.com/shopfronthq/shopfront-backend/pkg/config"
	"github.com/shopfronthq/shopfront-backend/pkg/db"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
	"github.com/shopfronthq/shopfront-backend/pkg/migrate"
	"github.com/shopfronthq/shopfront-backend/pkg/outbox"
	"github.com/shopfronthq/shopfront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AppConfig:      cfg.App,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(
		settings.NewRepository(dbClient.DB()),
		redisClient,
		cfg.Settings.CacheTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	engine := inventory.NewEngine()
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventoryService, err := inventory.NewService(inventoryRepo, dbClient, outboxService, engine, cfg.Inventory.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, inventoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		engine,
		productService,
		settingsService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	routerParams := routes.RouterParams{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		SessionManager:   sessionManager,
		AuthService:      authService,
		ProductService:   productService,
		OrderService:     orderService,
		InventoryService: inventoryService,
		SettingsService:  settingsService,
	}

	// Reporting is optional outside prod, the API degrades to 503 on
	// /analytics when BigQuery is unreachable.
	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		if cfg.App.IsProd() {
			logg.Error(context.Background(), "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		logg.Warn(context.Background(), "bigquery unavailable, analytics endpoints disabled")
	} else {
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery client", err)
			}
		}()
		analyticsService, err := analytics.NewService(
			bqClient,
			cfg.GCP.ProjectID,
			cfg.BigQuery.Dataset,
			cfg.BigQuery.OrderFactsTable,
			cfg.BigQuery.MovementFactsTable,
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create analytics service", err)
			os.Exit(1)
		}
		routerParams.BigQuery = bqClient
		routerParams.AnalyticsService = analyticsService
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerParams),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

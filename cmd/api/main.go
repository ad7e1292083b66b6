// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/storeops/backoffice-be/internal/adapters/db"
	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/adapters/storage"
	"github.com/storeops/backoffice-be/internal/core/ports"
	"github.com/storeops/backoffice-be/internal/core/services"
	"github.com/storeops/backoffice-be/internal/handlers"
	"github.com/storeops/backoffice-be/internal/handlers/middleware"
	"github.com/storeops/backoffice-be/internal/pkg/config"
	"github.com/storeops/backoffice-be/internal/pkg/logger"
	"github.com/storeops/backoffice-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	appLogger := logger.SetupLogger("debug", "json")
	slogger := appLogger.Logger

	slogger.Info("starting back-office API",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger = appLogger.Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		}
	}

	server := setupHTTPServer(cfg, deps, appLogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	cache          ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	orderHandler     *handlers.OrderHandler
	productHandler   *handlers.ProductHandler
	stockHandler     *handlers.StockHandler
	customerHandler  *handlers.CustomerHandler
	catalogHandler   *handlers.CatalogHandler
	dashboardHandler *handlers.DashboardHandler
	exportHandler    *handlers.ExportHandler
	importHandler    *handlers.ImportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	taskClient := workers.NewTaskClient(deps.asynqClient, slogger)

	// Object storage is optional; exports fall back to direct download
	var storageClient storage.StorageClient
	if cfg.AWS.S3Bucket != "" {
		s3Client, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, slogger)
		if err != nil {
			slogger.Warn("object storage unavailable, export archival disabled",
				slog.String("error", err.Error()))
		} else {
			storageClient = s3Client
		}
	}

	// Repositories
	productRepo := db.NewProductRepository(database, slogger)
	orderRepo := db.NewOrderRepository(database, slogger)
	ledgerRepo := db.NewLedgerRepository(database, slogger)
	customerRepo := db.NewCustomerRepository(database, slogger)
	catalogRepo := db.NewCatalogRepository(database, slogger)

	// Services
	opTimeout := cfg.Database.OpTimeout
	orderService := services.NewOrderService(orderRepo, productRepo, taskClient, opTimeout, slogger)
	stockService := services.NewStockService(ledgerRepo, productRepo, deps.cache, taskClient, opTimeout, slogger)
	productService := services.NewProductService(productRepo, deps.cache, opTimeout, slogger)
	customerService := services.NewCustomerService(customerRepo, opTimeout, slogger)

	// Handlers
	deps.orderHandler = handlers.NewOrderHandler(orderService, slogger)
	deps.productHandler = handlers.NewProductHandler(productService, slogger)
	deps.stockHandler = handlers.NewStockHandler(stockService, slogger)
	deps.customerHandler = handlers.NewCustomerHandler(customerService, slogger)
	deps.catalogHandler = handlers.NewCatalogHandler(catalogRepo, slogger)
	deps.dashboardHandler = handlers.NewDashboardHandler(database, stockService, deps.cache, slogger)
	deps.exportHandler = handlers.NewExportHandler(productService, orderService, deps.cache, storageClient, slogger)

	maxFileSize := int64(cfg.FileProcessing.ExcelMaxSizeMB) * 1024 * 1024
	deps.importHandler = handlers.NewImportHandler(taskClient, deps.cache, slogger, maxFileSize, cfg.FileProcessing.TempDir)

	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, appLogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	slogger := appLogger.Logger

	// Middleware chain, innermost first
	var handler http.Handler = mux
	handler = middleware.ContentTypeJSON(handler)
	handler = middleware.Compression(handler)

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	handler = middleware.Recovery(slogger)(handler)
	handler = middleware.Logger(appLogger)(handler)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	// Health and readiness
	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	// Orders
	mux.HandleFunc("POST "+apiV1+"/orders", deps.orderHandler.CreateOrder)
	mux.HandleFunc("GET "+apiV1+"/orders", deps.orderHandler.ListOrders)
	mux.HandleFunc("GET "+apiV1+"/orders/{id}", deps.orderHandler.GetOrder)
	mux.HandleFunc("POST "+apiV1+"/orders/{id}/cancel", deps.orderHandler.CancelOrder)
	mux.HandleFunc("PATCH "+apiV1+"/orders/{id}/status", deps.orderHandler.UpdateOrderStatus)
	mux.HandleFunc("PATCH "+apiV1+"/orders/{id}/payment", deps.orderHandler.UpdateOrderPayment)

	// Products
	mux.HandleFunc("POST "+apiV1+"/products", deps.productHandler.CreateProduct)
	mux.HandleFunc("POST "+apiV1+"/products/batch", deps.productHandler.CreateProductBatch)
	mux.HandleFunc("GET "+apiV1+"/products", deps.productHandler.ListProducts)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", deps.productHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", deps.productHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", deps.productHandler.DeactivateProduct)

	// Stock
	mux.HandleFunc("POST "+apiV1+"/stock/adjustments", deps.stockHandler.AdjustStock)
	mux.HandleFunc("GET "+apiV1+"/stock/transactions", deps.stockHandler.GetStockHistory)
	mux.HandleFunc("GET "+apiV1+"/stock/levels", deps.stockHandler.GetStockLevels)
	mux.HandleFunc("GET "+apiV1+"/stock/summary", deps.stockHandler.GetStockSummary)

	// Customers
	mux.HandleFunc("POST "+apiV1+"/customers", deps.customerHandler.CreateCustomer)
	mux.HandleFunc("GET "+apiV1+"/customers", deps.customerHandler.ListCustomers)
	mux.HandleFunc("GET "+apiV1+"/customers/{id}", deps.customerHandler.GetCustomer)
	mux.HandleFunc("PUT "+apiV1+"/customers/{id}", deps.customerHandler.UpdateCustomer)
	mux.HandleFunc("DELETE "+apiV1+"/customers/{id}", deps.customerHandler.DeleteCustomer)

	// Categories and suppliers
	mux.HandleFunc("GET "+apiV1+"/categories", deps.catalogHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", deps.catalogHandler.CreateCategory)
	mux.HandleFunc("DELETE "+apiV1+"/categories/{id}", deps.catalogHandler.DeleteCategory)
	mux.HandleFunc("GET "+apiV1+"/suppliers", deps.catalogHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", deps.catalogHandler.CreateSupplier)
	mux.HandleFunc("DELETE "+apiV1+"/suppliers/{id}", deps.catalogHandler.DeleteSupplier)

	// Dashboard
	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)

	// Import and export
	mux.HandleFunc("POST "+apiV1+"/import/catalog", deps.importHandler.ImportCatalog)
	mux.HandleFunc("POST "+apiV1+"/import/pricelist", deps.importHandler.ImportPriceList)
	mux.HandleFunc("GET "+apiV1+"/import/status/{jobId}", deps.importHandler.ImportStatus)
	mux.HandleFunc("GET "+apiV1+"/export/products", deps.exportHandler.ExportProducts)
	mux.HandleFunc("GET "+apiV1+"/export/orders", deps.exportHandler.ExportOrders)
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, slogger, 3)
}

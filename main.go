package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/auth"
	"github.com/chemref-labs/chemref-engine/pkg/baseline"
	"github.com/chemref-labs/chemref-engine/pkg/config"
	"github.com/chemref-labs/chemref-engine/pkg/database"
	"github.com/chemref-labs/chemref-engine/pkg/handlers"
	"github.com/chemref-labs/chemref-engine/pkg/logging"
	"github.com/chemref-labs/chemref-engine/pkg/metrics"
	"github.com/chemref-labs/chemref-engine/pkg/middleware"
	"github.com/chemref-labs/chemref-engine/pkg/registry"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("sqlite_path", cfg.Storage.SQLitePath),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification))

	db, err := database.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	loader := baseline.NewLoader(
		cfg.Dataset.BaseURL,
		cfg.Dataset.SnapshotPath,
		cfg.Dataset.FetchTimeout(),
		logger)

	catalog, err := services.NewCatalogService(ctx, loader,
		repositories.NewChemicalRepository(db, logger),
		repositories.NewFavoritesRepository(db),
		repositories.NewRecentViewsRepository(db, logger),
		repositories.NewCompareListRepository(db, logger),
		logger)
	if err != nil {
		logger.Fatal("Failed to build catalog", zap.Error(err))
	}

	reg, err := registry.Load()
	if err != nil {
		logger.Fatal("Failed to load log type registry", zap.Error(err))
	}

	logbook := services.NewLogbookService(
		repositories.NewLogbookRepository(db, logger),
		repositories.NewUsageLogRepository(db),
		catalog, reg, logger)

	searchSvc := services.NewSearchService(catalog, logbook,
		repositories.NewSearchHistoryRepository(db, logger), logger)
	catalog.OnChange(searchSvc.MarkStale)
	logbook.OnChange(searchSvc.MarkStale)

	analyticsSvc := services.NewAnalyticsService(catalog, logbook, logger)
	exportSvc := services.NewExportService(catalog, logbook, logger)
	profileSvc := services.NewProfileService(repositories.NewProfileRepository(db, logger), logger)

	m := metrics.New()
	catalog.OnChange(func() {
		m.ReconcileRuns.Inc()
		m.CatalogSize.Set(float64(len(catalog.List(ctx))))
	})
	m.CatalogSize.Set(float64(len(catalog.List(ctx))))

	// Reload when the local snapshot file changes.
	if cfg.Dataset.SnapshotPath != "" {
		err := loader.Watch(ctx, func() {
			if err := catalog.Reload(ctx); err != nil {
				logger.Error("Snapshot reload failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("Snapshot watcher unavailable", zap.Error(err))
		}
	}

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to build token validator", zap.Error(err))
	}
	sessions := auth.NewSessionStore(cfg.Session.Key, cfg.Session.CookieName)
	identify := handlers.Identify(auth.NewMiddleware(validator, sessions, logger).Identify)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChemicalsHandler(catalog, logger).RegisterRoutes(mux, identify)
	handlers.NewLogbookHandler(logbook, logger).RegisterRoutes(mux, identify)
	handlers.NewSearchHandler(searchSvc, logger).RegisterRoutes(mux, identify)
	handlers.NewAnalyticsHandler(analyticsSvc, logger).RegisterRoutes(mux, identify)
	handlers.NewExportHandler(exportSvc, logger).RegisterRoutes(mux, identify)
	handlers.NewProfileHandler(profileSvc, logger).RegisterRoutes(mux, identify)
	mux.Handle("GET /metrics", m.Handler())

	handler := middleware.Recover(logger)(
		middleware.RequestLogger(logger)(
			m.Middleware(mux)))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting chemref-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

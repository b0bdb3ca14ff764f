package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aitorle/geovault/internal/adapters/http"
	natsadapter "github.com/aitorle/geovault/internal/adapters/nats"
	"github.com/aitorle/geovault/internal/adapters/postgres"
	"github.com/aitorle/geovault/internal/adapters/regionsync"
	"github.com/aitorle/geovault/internal/adapters/valkey"
	"github.com/aitorle/geovault/internal/core/ports"
	"github.com/aitorle/geovault/internal/core/usecases"
	"github.com/aitorle/geovault/internal/pkg/config"
	"github.com/aitorle/geovault/internal/pkg/logging"
	"github.com/aitorle/geovault/internal/pkg/metrics"
	"github.com/aitorle/geovault/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geovault-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Region monitor rides the publisher's JetStream context
	var regions ports.RegionMonitor
	if publisher != nil {
		regions = regionsync.NewMonitor(publisher.JetStream())
	}

	// Repos
	vaultRepo := postgres.NewVaultRepo(db)
	eventRepo := postgres.NewEventRepo(db)

	// Use cases
	var cacheSvc ports.CacheService
	var pubSvc ports.EventPublisher
	if cache != nil {
		cacheSvc = cache
	}
	if publisher != nil {
		pubSvc = publisher
	}
	vaultSvc := usecases.NewVaultService(vaultRepo, cacheSvc, regions)
	membershipSvc := usecases.NewMembershipService(
		vaultRepo, eventRepo, cacheSvc, pubSvc,
		cfg.Monitor.MembershipTTL,
		time.Duration(cfg.Monitor.StaleSampleMax)*time.Second,
	)
	editorSvc := usecases.NewEditorService()

	deps := &http.Dependencies{
		Vaults:      vaultSvc,
		Memberships: membershipSvc,
		Editor:      editorSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "GeoVault API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Export pgx pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/aitorle/geovault/internal/adapters/nats"
	"github.com/aitorle/geovault/internal/adapters/postgres"
	"github.com/aitorle/geovault/internal/adapters/valkey"
	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/usecases"
	"github.com/aitorle/geovault/internal/pkg/config"
	"github.com/aitorle/geovault/internal/pkg/logging"
)

// The monitor consumes location samples from JetStream and runs the
// membership evaluation that produces enter/exit events. It is the polling
// path that covers quadrilateral vaults and devices without native region
// monitoring.
func main() {
	cfg, err := config.Load("geovault-monitor")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	vaultRepo := postgres.NewVaultRepo(db)
	eventRepo := postgres.NewEventRepo(db)

	membershipSvc := usecases.NewMembershipService(
		vaultRepo, eventRepo, cache, publisher,
		cfg.Monitor.MembershipTTL,
		time.Duration(cfg.Monitor.StaleSampleMax)*time.Second,
	)

	err = subscriber.SubscribeLocationSamples(ctx, func(ctx context.Context, sample *domain.LocationSample) error {
		events, err := membershipSvc.EvaluateSample(ctx, sample)
		if err != nil {
			slog.Error("sample evaluation failed", "device_id", sample.DeviceID, "error", err)
			return err
		}
		for _, e := range events {
			slog.Info("transition",
				"device_id", e.DeviceID, "vault_id", e.VaultID, "type", string(e.Type))
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe samples: %v", err)
	}

	slog.Info("monitor started", "stale_sample_max_s", cfg.Monitor.StaleSampleMax)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())
}

package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	judgingengine "photojury/contexts/contest-judging/judging-engine"
	postgresadapter "photojury/contexts/contest-judging/judging-engine/adapters/postgres"
	workerapp "photojury/contexts/contest-judging/judging-engine/application/workers"
	"photojury/internal/platform/config"
	"photojury/internal/platform/db"
	"photojury/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// WorkerApp runs the async side of the judging engine: the outbox relay and
// the inbound entry projection consumer.
type WorkerApp struct {
	postgres      *db.Postgres
	module        judgingengine.Module
	entryConsumer workerapp.EntryLifecycleConsumer
	relayEnabled  bool
	entryEnabled  bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

// MigratorApp applies the embedded schema migrations and exits.
type MigratorApp struct {
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrationsOnStart {
		if err := db.Migrate(pg); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := judgingengine.NewModule(judgingengine.Dependencies{
		Catalog:     repo,
		Votes:       repo,
		Scores:      repo,
		Views:       repo,
		Entries:     repo,
		Stages:      repo,
		Outbox:      repo,
		OutboxQueue: repo,
		Publisher:   kafka,
		Clock:       postgresadapter.SystemClock{},
		IDGen:       postgresadapter.UUIDGenerator{},
		LegacyTotal: cfg.EnableLegacyScoring,
		Logger:      logger,
	})
	module.Relay.BatchSize = cfg.OutboxBatchSize

	return &WorkerApp{
		postgres: pg,
		module:   module,
		entryConsumer: workerapp.EntryLifecycleConsumer{
			Subscriber: kafka,
			Entries:    repo,
			Logger:     logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		entryEnabled: cfg.EnableEntryConsumer,
		pollInterval: cfg.OutboxRelayInterval,
		logger:       logger,
	}, nil
}

func BuildMigrator() (*MigratorApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "migrate")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return &MigratorApp{
		postgres: pg,
		logger:   logger,
	}, nil
}

// Module exposes the wired judging module so a transport layer can mount the
// handler facade on top of the same wiring the worker uses.
func (w *WorkerApp) Module() judgingengine.Module {
	return w.module
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.entryEnabled {
		if err := w.entryConsumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"relay_enabled", w.relayEnabled,
		"entry_consumer_enabled", w.entryEnabled,
	)

	for {
		if w.relayEnabled {
			if err := w.module.Relay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func (m *MigratorApp) Run(_ context.Context) error {
	if err := db.Migrate(m.postgres); err != nil {
		return err
	}
	m.logger.Info("migrations applied",
		"event", "bootstrap_migrations_applied",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return nil
}

func (m *MigratorApp) Close() error {
	if m.postgres != nil {
		return m.postgres.Close()
	}
	return nil
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/services/objectstore"
	"github.com/sajmeister/aaplat/internal/services/uploads"
	"github.com/sajmeister/aaplat/internal/storage/postgres"
)

// ReconcileWorker periodically flags agent records that were created
// long enough ago to have finished uploading but still have zero files
// in object storage. Uploads degrade softly when storage is down, so
// orphaned records are expected and need surfacing.
type ReconcileWorker struct {
	storage   *postgres.Postgres
	store     *objectstore.Service
	interval  time.Duration
	orphanAge time.Duration
	logger    *slog.Logger
}

func NewReconcileWorker(storage *postgres.Postgres, store *objectstore.Service, interval, orphanAge time.Duration) *ReconcileWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ReconcileWorker{
		storage:   storage,
		store:     store,
		interval:  interval,
		orphanAge: orphanAge,
		logger:    logger,
	}
}

func (rw *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("Reconcile worker started",
		"interval", rw.interval.String(),
		"orphan_age", rw.orphanAge.String())

	// Run once immediately on startup
	rw.reconcileOrphanedAgents(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Reconcile worker shutting down")
			return
		case <-ticker.C:
			rw.reconcileOrphanedAgents(ctx)
		}
	}
}

func (rw *ReconcileWorker) reconcileOrphanedAgents(ctx context.Context) {
	startTime := time.Now()

	rw.logger.Info("Starting orphaned agent scan")

	cutoff := time.Now().Add(-rw.orphanAge)
	agents, err := rw.storage.ListAgentsCreatedBefore(cutoff)
	if err != nil {
		rw.logger.Error("Failed to list agents for reconciliation",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	var orphaned int
	for _, agent := range agents {
		keys, err := rw.store.ListPrefix(ctx, uploads.AgentPrefix(agent.UserID, agent.ID))
		if err != nil {
			rw.logger.Error("Failed to list agent files",
				"agent_id", agent.ID,
				"error", err.Error())
			continue
		}

		if len(keys) == 0 {
			orphaned++
			rw.logger.Warn("Agent has no files in storage",
				"agent_id", agent.ID,
				"user_id", agent.UserID,
				"created_at", agent.CreatedAt.Format(time.RFC3339))
		}
	}

	duration := time.Since(startTime)

	rw.logger.Info("Completed orphaned agent scan",
		"agents_checked", len(agents),
		"agents_orphaned", orphaned,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// The worker is pointless without storage to reconcile against
	if !cfg.Storage.Configured() {
		log.Fatal("Object storage must be configured for the reconcile worker")
	}

	store, err := objectstore.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	worker := NewReconcileWorker(storage, store,
		time.Duration(cfg.Worker.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Worker.OrphanAgeMinutes)*time.Minute)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the worker
	worker.Start(ctx)

	slog.Info("Reconcile worker stopped")
}

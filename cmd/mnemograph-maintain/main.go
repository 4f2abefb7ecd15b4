// Command mnemograph-maintain runs periodic maintenance over the graph:
// recency-weighted recomputation of every scored memory's effectiveness and
// confidence, rate-limited so sweeps never crowd out live traffic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/config"
	"github.com/haldane/mnemograph/internal/engine"
	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/internal/graph/neo4j"
	"github.com/haldane/mnemograph/internal/graph/postgres"
	"github.com/haldane/mnemograph/internal/graph/sqlite"
)

var (
	interval = flag.Duration("interval", 0, "Sweep interval (overrides MNEMO_SWEEP_INTERVAL)")
	oneshot  = flag.Bool("oneshot", false, "Run a single sweep and exit")
	halfLife = flag.Float64("half-life", 0, "Outcome half-life in days (overrides MNEMO_DECAY_HALF_LIFE_DAYS)")
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	sweepInterval, err := time.ParseDuration(cfg.Maintain.SweepInterval)
	if err != nil {
		logger.Fatal("invalid MNEMO_SWEEP_INTERVAL", zap.Error(err))
	}
	if *interval > 0 {
		sweepInterval = *interval
	}

	halfLifeDays := cfg.Learning.DecayHalfLifeDays
	if *halfLife > 0 {
		halfLifeDays = *halfLife
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend",
			zap.String("backend", cfg.Backend.Engine), zap.Error(err))
	}
	defer store.Close()

	decay := engine.NewOutcomeDecay(store, logger,
		engine.WithDecayHalfLife(halfLifeDays),
		engine.WithSweepRate(cfg.Maintain.SweepRate))

	if *oneshot {
		if !runSweep(ctx, decay, logger) {
			os.Exit(1)
		}
		return
	}

	logger.Info("maintenance service started",
		zap.String("backend", cfg.Backend.Engine),
		zap.Duration("interval", sweepInterval),
		zap.Float64("half_life_days", halfLifeDays))

	// Sweep once at startup, then on every tick.
	runSweep(ctx, decay, logger)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance service stopped")
			return
		case <-ticker.C:
			runSweep(ctx, decay, logger)
		}
	}
}

// runSweep performs one decay sweep and logs the outcome. It reports whether
// the sweep completed.
func runSweep(ctx context.Context, decay *engine.OutcomeDecay, logger *zap.Logger) bool {
	start := time.Now()
	count, err := decay.Sweep(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		logger.Error("decay sweep failed",
			zap.Int("recomputed", count),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return false
	}
	logger.Info("decay sweep complete",
		zap.Int("recomputed", count),
		zap.Duration("took", time.Since(start)))
	return true
}

// openStore opens the backend selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graph.Store, error) {
	switch cfg.Backend.Engine {
	case "neo4j":
		return neo4j.New(ctx, neo4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		}, logger)
	case "postgres":
		return postgres.New(cfg.Postgres.DSN, logger)
	case "sqlite":
		return sqlite.New(cfg.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unknown backend engine %q", cfg.Backend.Engine)
	}
}

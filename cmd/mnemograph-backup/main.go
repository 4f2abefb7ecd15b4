// Command mnemograph-backup snapshots the sqlite graph database. By
// default it runs as a service taking scheduled snapshots with tiered
// retention; -oneshot takes a single snapshot, -list shows stored
// snapshots, and -restore swaps a snapshot back in. The server backends
// ship their own backup tooling and are refused here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/backup"
	"github.com/haldane/mnemograph/internal/config"
)

var (
	db         = flag.String("db", "", "SQLite database file (overrides MNEMO_SQLITE_PATH)")
	backupDir  = flag.String("backup-dir", "", "Snapshot directory (overrides MNEMO_BACKUP_DIR)")
	interval   = flag.Duration("interval", 0, "Snapshot interval; 0 uses MNEMO_BACKUP_INTERVAL")
	verify     = flag.Bool("verify", true, "Run an integrity check on every snapshot")
	oneshot    = flag.Bool("oneshot", false, "Take a single snapshot and exit")
	restoreArg = flag.String("restore", "", "Restore the database from this snapshot and exit")
	list       = flag.Bool("list", false, "List stored snapshots and exit")
)

// applyOverrides pushes flag values into the environment so that
// config.LoadConfig validates the effective settings, not the pre-flag ones.
func applyOverrides() {
	if *db != "" {
		os.Setenv("MNEMO_SQLITE_PATH", *db)
	}
	if *backupDir != "" {
		os.Setenv("MNEMO_BACKUP_DIR", *backupDir)
	}
}

func main() {
	flag.Parse()
	applyOverrides()

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
	if cfg.Backend.Engine != "sqlite" {
		logger.Fatal("backup covers the sqlite backend only",
			zap.String("backend", cfg.Backend.Engine))
	}

	every := *interval
	if every <= 0 {
		parsed, err := time.ParseDuration(cfg.Backup.Interval)
		if err != nil {
			logger.Fatal("invalid MNEMO_BACKUP_INTERVAL",
				zap.String("value", cfg.Backup.Interval), zap.Error(err))
		}
		every = parsed
	}

	dir := cfg.Backup.Dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(cfg.SQLite.Path), "backups")
	}

	svc, err := backup.NewService(backup.Config{
		DBPath:   cfg.SQLite.Path,
		Dir:      dir,
		Interval: every,
		Verify:   *verify,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create backup service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	switch {
	case *restoreArg != "":
		if err := svc.Restore(ctx, *restoreArg); err != nil {
			logger.Fatal("restore failed", zap.Error(err))
		}
		fmt.Printf("database restored from %s\n", *restoreArg)

	case *list:
		snapshots, err := svc.List()
		if err != nil {
			logger.Fatal("failed to list snapshots", zap.Error(err))
		}
		if len(snapshots) == 0 {
			fmt.Println("no snapshots")
			return
		}
		var total int64
		for _, snap := range snapshots {
			fmt.Printf("%s  %12d  %s\n", snap.Timestamp.Format(time.RFC3339), snap.Size, snap.Path)
			total += snap.Size
		}
		fmt.Printf("%d snapshots, %d bytes\n", len(snapshots), total)

	case *oneshot:
		res, err := svc.BackupNow(ctx)
		if err != nil {
			logger.Fatal("snapshot failed", zap.Error(err))
		}
		fmt.Println("mnemograph snapshot complete")
		fmt.Printf("  path:     %s\n", res.Path)
		fmt.Printf("  size:     %d bytes\n", res.Size)
		fmt.Printf("  verified: %v\n", res.Verified)
		fmt.Printf("  took:     %s\n", res.Took.Round(time.Millisecond))

	default:
		if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("backup service failed", zap.Error(err))
		}
	}
}

// Package backup snapshots the sqlite graph backend on a schedule, with
// integrity verification, tiered retention, and verified restore. The
// server backends (postgres, neo4j) ship their own backup tooling; the
// embedded one otherwise has none.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Retention sets how many snapshots to keep per age tier: hourly under a
// day old, daily under a week, weekly under 30 days, monthly under a year.
// Snapshots older than a year are always pruned.
type Retention struct {
	Hourly  int
	Daily   int
	Weekly  int
	Monthly int
}

// Config configures a snapshot service.
type Config struct {
	// DBPath is the sqlite database file to snapshot.
	DBPath string

	// Dir is where snapshots land.
	Dir string

	// Interval between scheduled snapshots. Zero means one hour.
	Interval time.Duration

	// Retention quotas; zero fields take the defaults (24/7/4/12).
	Retention Retention

	// Verify runs an integrity check on every snapshot taken.
	Verify bool
}

// Info describes one stored snapshot.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Result describes one completed snapshot.
type Result struct {
	Path     string
	Size     int64
	Verified bool
	Took     time.Duration
}

// Service takes scheduled snapshots of a sqlite database. A service is
// either running its schedule (Start) or idle; Restore only works on an
// idle service since it replaces the file the schedule reads.
type Service struct {
	dbPath    string
	dir       string
	interval  time.Duration
	retention Retention
	verify    bool
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewService creates a snapshot service and its target directory. A nil
// logger disables logging.
func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("backup: database path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup: snapshot directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention.Hourly == 0 {
		cfg.Retention.Hourly = 24
	}
	if cfg.Retention.Daily == 0 {
		cfg.Retention.Daily = 7
	}
	if cfg.Retention.Weekly == 0 {
		cfg.Retention.Weekly = 4
	}
	if cfg.Retention.Monthly == 0 {
		cfg.Retention.Monthly = 12
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("backup: create %q: %w", cfg.Dir, err)
	}

	return &Service{
		dbPath:    cfg.DBPath,
		dir:       cfg.Dir,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		verify:    cfg.Verify,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start runs the snapshot schedule until the context is cancelled or Stop
// is called. A failed snapshot is logged and the schedule continues.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup: service already running")
	}
	s.running = true
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("backup service started",
		zap.Duration("interval", s.interval),
		zap.String("dir", s.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			res, err := s.BackupNow(ctx)
			if err != nil {
				s.logger.Error("scheduled snapshot failed", zap.Error(err))
				continue
			}
			s.logger.Info("snapshot complete",
				zap.String("path", res.Path),
				zap.Int64("bytes", res.Size),
				zap.Bool("verified", res.Verified),
				zap.Duration("took", res.Took))
		}
	}
}

// Stop ends the schedule.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("backup: service not running")
	}
	close(s.stopCh)
	s.running = false
	return nil
}

// BackupNow takes one snapshot immediately, verifies it when configured,
// and prunes old snapshots. Pruning trouble is logged rather than failing
// a snapshot that already landed.
func (s *Service) BackupNow(ctx context.Context) (*Result, error) {
	start := time.Now()

	if _, err := os.Stat(s.dbPath); err != nil {
		return nil, fmt.Errorf("backup: database: %w", err)
	}

	name := fmt.Sprintf("mnemograph-%s.db", start.UTC().Format("20060102-150405.000000"))
	dest := filepath.Join(s.dir, name)

	if err := snapshot(ctx, s.dbPath, dest); err != nil {
		return nil, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("backup: stat %q: %w", dest, err)
	}

	res := &Result{Path: dest, Size: info.Size()}
	if s.verify {
		if err := verify(ctx, dest); err != nil {
			return nil, err
		}
		res.Verified = true
	}

	if err := applyRetention(s.dir, s.retention); err != nil {
		s.logger.Warn("snapshot pruning failed", zap.Error(err))
	}

	res.Took = time.Since(start)
	return res, nil
}

// List returns the stored snapshots, newest first.
func (s *Service) List() ([]Info, error) {
	return listSnapshots(s.dir)
}

// Restore replaces the live database with a verified snapshot. The graph
// store using the database must be closed first, and the service must not
// be running. A pre-restore snapshot of the current database guards the
// swap: if the restore fails, the previous state is put back.
func (s *Service) Restore(ctx context.Context, snapshotPath string) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return fmt.Errorf("backup: cannot restore while the service is running")
	}

	if _, err := os.Stat(snapshotPath); err != nil {
		return fmt.Errorf("backup: snapshot: %w", err)
	}

	// The guard name has no .db suffix, so listing and pruning ignore it.
	guard := s.dbPath + ".pre-restore"
	haveGuard := false
	if _, err := os.Stat(s.dbPath); err == nil {
		_ = os.Remove(guard)
		if err := snapshot(ctx, s.dbPath, guard); err != nil {
			return fmt.Errorf("backup: pre-restore snapshot: %w", err)
		}
		haveGuard = true
	}

	if err := restore(ctx, snapshotPath, s.dbPath); err != nil {
		if haveGuard {
			if rbErr := restore(ctx, guard, s.dbPath); rbErr != nil {
				return fmt.Errorf("backup: restore failed (%v) and rollback failed: %w", err, rbErr)
			}
			return fmt.Errorf("backup: restore failed, previous state kept: %w", err)
		}
		return err
	}
	if haveGuard {
		_ = os.Remove(guard)
	}

	s.logger.Info("database restored", zap.String("from", snapshotPath))
	return nil
}

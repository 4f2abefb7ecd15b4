package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite"
)

// snapshot writes a consistent point-in-time copy of the database at
// sourcePath to destPath. VACUUM INTO reads through the WAL, so a live
// database under write load still snapshots cleanly. destPath must not
// exist yet.
func snapshot(ctx context.Context, sourcePath, destPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("backup: open %q: %w", sourcePath, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("backup: ping %q: %w", sourcePath, err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backup: snapshot to %q: %w", destPath, err)
	}
	return nil
}

// verify opens a snapshot read-only and runs the full integrity check.
func verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: open %q: %w", path, err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check %q: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check %q: %s", path, result)
	}
	return nil
}

// restore copies a verified snapshot over targetPath and verifies the
// result. Stale WAL and SHM sidecars of the replaced database are removed;
// left in place they would be replayed over the restored copy on the next
// open.
func restore(ctx context.Context, snapshotPath, targetPath string) error {
	if err := verify(ctx, snapshotPath); err != nil {
		return err
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("backup: open %q: %w", snapshotPath, err)
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("backup: create %q: %w", targetPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: copy: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("backup: sync %q: %w", targetPath, err)
	}

	for _, sidecar := range []string{targetPath + "-wal", targetPath + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("backup: remove %q: %w", sidecar, err)
		}
	}

	return verify(ctx, targetPath)
}

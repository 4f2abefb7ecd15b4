package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// listSnapshots returns the snapshot files in dir, newest first. Anything
// that is not a .db file is ignored.
func listSnapshots(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: read %q: %w", dir, err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Info{
			Path:      filepath.Join(dir, entry.Name()),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// applyRetention deletes snapshots beyond the per-tier quotas. Walking the
// newest-first listing in order keeps the most recent members of each tier;
// anything older than the last tier goes unconditionally.
func applyRetention(dir string, policy Retention) error {
	snapshots, err := listSnapshots(dir)
	if err != nil {
		return err
	}

	tiers := []struct {
		maxAge time.Duration
		keep   int
	}{
		{24 * time.Hour, policy.Hourly},
		{7 * 24 * time.Hour, policy.Daily},
		{30 * 24 * time.Hour, policy.Weekly},
		{365 * 24 * time.Hour, policy.Monthly},
	}

	now := time.Now()
	counts := make([]int, len(tiers))
	var doomed []string

	for _, snap := range snapshots {
		age := now.Sub(snap.Timestamp)
		tier := -1
		for i, t := range tiers {
			if age < t.maxAge {
				tier = i
				break
			}
		}
		if tier == -1 {
			doomed = append(doomed, snap.Path)
			continue
		}
		counts[tier]++
		if counts[tier] > tiers[tier].keep {
			doomed = append(doomed, snap.Path)
		}
	}

	// Keep deleting past individual failures so one stuck file does not
	// pin every other expired snapshot.
	var lastErr error
	for _, path := range doomed {
		if err := os.Remove(path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("backup: pruning: %w", lastErr)
	}
	return nil
}

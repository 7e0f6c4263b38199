// Package maintenance keeps the on-disk footprint bounded: input and
// output directories retain only their newest files, and the seen-hash
// store drops records past the retention window. Runs one-shot after a
// pipeline run and on a ticker in watch mode.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/svitlobot/blackout-notify/internal/notifications"
)

// Config controls retention.
type Config struct {
	KeepFiles      int           // newest files kept per directory
	StoreRetention time.Duration // seen-hash record lifetime
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		KeepFiles:      10,
		StoreRetention: 30 * 24 * time.Hour,
	}
}

// Sweep runs one retention pass. Problems are logged, not returned: a
// failed sweep must never fail the run that triggered it.
func Sweep(ctx context.Context, cfg Config, store notifications.SeenStore, dirs []string, logger *slog.Logger) {
	for _, dir := range dirs {
		removed, err := removeOldFiles(dir, cfg.KeepFiles)
		if err != nil {
			logger.Warn("sweep: directory cleanup failed", "dir", dir, "error", err)
		} else if removed > 0 {
			logger.Info("sweep: removed old files", "dir", dir, "count", removed)
		}
	}

	if store != nil && cfg.StoreRetention > 0 {
		pruned, err := store.Prune(ctx, time.Now().Add(-cfg.StoreRetention))
		if err != nil {
			logger.Warn("sweep: store prune failed", "error", err)
		} else if pruned > 0 {
			logger.Info("sweep: pruned seen hashes", "count", pruned)
		}
	}
}

// Start runs Sweep on a ticker until ctx is cancelled. Blocks; intended
// to be called with `go`.
func Start(ctx context.Context, cfg Config, store notifications.SeenStore, dirs []string, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	logger.Info("maintenance ticker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Sweep(ctx, cfg, store, dirs, logger)
		case <-ctx.Done():
			logger.Info("maintenance ticker stopped")
			return
		}
	}
}

// removeOldFiles deletes all but the newest keep files in dir. A missing
// directory is not an error.
func removeOldFiles(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	type aged struct {
		path string
		mod  time.Time
	}
	files := make([]aged, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{path: filepath.Join(dir, e.Name()), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	removed := 0
	for _, f := range files[min(keep, len(files)):] {
		if err := os.Remove(f.path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", f.path, err)
		}
		removed++
	}
	return removed, nil
}

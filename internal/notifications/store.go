package notifications

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SeenStore persists seen content digests namespaced by scope key.
// MarkIfNew must treat create-if-absent as its atomic unit: under
// concurrent invocation a duplicate notification is acceptable, a missed
// one is not.
type SeenStore interface {
	// MarkIfNew records the digest for the scope and reports whether it
	// was absent before the call.
	MarkIfNew(ctx context.Context, scopeKey, digest string) (bool, error)
	// Prune removes records last seen before the cutoff and returns how
	// many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// DirStore keeps one empty marker file per (scope, digest) under
// root/<scope>/<digest>. Existence of the file is the whole record.
type DirStore struct {
	root string
}

// NewDirStore creates the store root if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &DirStore{root: root}, nil
}

// MarkIfNew creates the marker with O_EXCL so the existence check and the
// create are one filesystem operation.
func (s *DirStore) MarkIfNew(_ context.Context, scopeKey, digest string) (bool, error) {
	dir := filepath.Join(s.root, scopeKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create scope dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, digest), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create marker: %w", err)
	}
	return true, f.Close()
}

// Prune removes marker files older than the cutoff.
func (s *DirStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune seen store: %w", err)
	}
	return removed, nil
}

// Close is a no-op; the store holds no open handles.
func (s *DirStore) Close() error { return nil }

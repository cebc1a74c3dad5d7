package storage

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempStore owns the shared scratch directory. File names are derived from
// random UUIDs (128 bits of crypto/rand entropy), never from user input, so
// paths cannot be guessed or collided on purpose.
type TempStore struct {
	dir string
}

// NewTempStore creates the scratch directory if needed and returns the store.
func NewTempStore(dir string) (*TempStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &TempStore{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *TempStore) Dir() string { return s.dir }

// Allocate returns a fresh scratch path with the given extension. The file is
// not created; callers open it themselves with restrictive permissions.
func (s *TempStore) Allocate(ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	name := id.String()
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + strings.ToLower(ext)
	}
	return filepath.Join(s.dir, name), nil
}

// Resolve maps a bare file name back to a scratch path for download. Only the
// base name is honoured, so "../" traversal never leaves the scratch dir.
func (s *TempStore) Resolve(name string) (string, bool) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == "" {
		return "", false
	}
	path := filepath.Join(s.dir, base)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Sweep removes any scratch entry whose mtime is older than ttl and returns
// how many were removed. Per-entry failures are logged and skipped so one
// stubborn file cannot stall retention for the rest.
func (s *TempStore) Sweep(ttl time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("scratch sweep: read dir failed: %v", err)
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("scratch sweep: remove %s failed: %v", e.Name(), err)
			continue
		}
		removed++
	}
	return removed
}

// StartSweeper launches a background goroutine that sweeps expired scratch
// entries on an interval. It is best-effort and never stops the process.
func (s *TempStore) StartSweeper(interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			if n := s.Sweep(ttl); n > 0 {
				log.Printf("scratch sweep: removed %d expired entries", n)
			}
		}
	}()
}

// Package cache implements the two-tier anime metadata cache: JSON file
// indexes for fast lookups plus a durable store that survives file loss.
package cache

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileIndex is a JSON-file-backed map that tolerates external edits. Every
// read checks the file's mtime and size and reloads when they changed, so a
// hand-edited or externally rebuilt index is picked up without a restart.
type FileIndex[T any] struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]T
	mtime   time.Time
	size    int64
}

// NewFileIndex opens the index at path, creating an empty file when absent.
// A file that exists but cannot be parsed yields an empty index with a
// warning rather than an error; lookups then fall through to slower tiers.
func NewFileIndex[T any](path string, logger *slog.Logger) (*FileIndex[T], error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	idx := &FileIndex[T]{
		path:    path,
		logger:  logger,
		entries: make(map[string]T),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		if err := idx.writeLocked(); err != nil {
			return nil, fmt.Errorf("create index file: %w", err)
		}
		return idx, nil
	}

	idx.mu.Lock()
	idx.reloadLocked()
	idx.mu.Unlock()
	return idx, nil
}

// Get returns the value for key, reloading the file first if it changed on
// disk.
func (idx *FileIndex[T]) Get(key string) (T, bool) {
	idx.maybeReload()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v, ok := idx.entries[key]
	return v, ok
}

// Put stores a value under key and rewrites the file. The in-memory map is
// only updated when the write succeeds, so a failed write leaves the index
// consistent with disk.
func (idx *FileIndex[T]) Put(key string, value T) error {
	idx.maybeReload()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev, existed := idx.entries[key]
	idx.entries[key] = value
	if err := idx.writeLocked(); err != nil {
		if existed {
			idx.entries[key] = prev
		} else {
			delete(idx.entries, key)
		}
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// PutAll stores several values in one file write.
func (idx *FileIndex[T]) PutAll(values map[string]T) error {
	if len(values) == 0 {
		return nil
	}
	idx.maybeReload()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for k, v := range values {
		idx.entries[k] = v
	}
	if err := idx.writeLocked(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Replace swaps the whole index for values and rewrites the file. Used for
// startup rebuilds from the durable store.
func (idx *FileIndex[T]) Replace(values map[string]T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if values == nil {
		values = make(map[string]T)
	}
	idx.entries = values
	if err := idx.writeLocked(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Len returns the number of keys in the index.
func (idx *FileIndex[T]) Len() int {
	idx.maybeReload()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// maybeReload re-reads the file when its mtime or size differ from the last
// load. A vanished file keeps the in-memory copy; the next write recreates it.
func (idx *FileIndex[T]) maybeReload() {
	info, err := os.Stat(idx.path)
	if err != nil {
		return
	}

	idx.mu.RLock()
	unchanged := info.ModTime().Equal(idx.mtime) && info.Size() == idx.size
	idx.mu.RUnlock()
	if unchanged {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	// Re-check under the write lock; another goroutine may have reloaded.
	info, err = os.Stat(idx.path)
	if err != nil {
		return
	}
	if info.ModTime().Equal(idx.mtime) && info.Size() == idx.size {
		return
	}
	idx.reloadLocked()
}

func (idx *FileIndex[T]) reloadLocked() {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		idx.logger.Warn("index read failed", "path", idx.path, "error", err)
		return
	}

	entries := make(map[string]T)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			idx.logger.Warn("index parse failed, starting empty",
				"path", idx.path,
				"error", err,
			)
			entries = make(map[string]T)
		}
	}

	idx.entries = entries
	if info, err := os.Stat(idx.path); err == nil {
		idx.mtime = info.ModTime()
		idx.size = info.Size()
	}
}

// writeLocked writes the index atomically via a temp file rename.
// Callers must hold the write lock.
func (idx *FileIndex[T]) writeLocked() error {
	data, err := json.Marshal(idx.entries)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(idx.path)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, idx.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace index file: %w", err)
	}

	if info, err := os.Stat(idx.path); err == nil {
		idx.mtime = info.ModTime()
		idx.size = info.Size()
	}
	return nil
}

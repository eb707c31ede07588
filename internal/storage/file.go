package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is where the document lives when no path is configured.
const DefaultPath = "data/stats.json"

// FileBackend keeps the document in a local JSON file.
type FileBackend struct {
	path string
}

// NewFile returns a backend writing to path.
func NewFile(path string) *FileBackend {
	if path == "" {
		path = DefaultPath
	}
	return &FileBackend{path: path}
}

func (b *FileBackend) Name() string { return "file" }

// Path returns the document location.
func (b *FileBackend) Path() string { return b.path }

// Load reads the file.
func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

// Save replaces the file through a temp file and rename so readers never
// observe a partial document.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

// Ping checks that the parent directory is reachable.
func (b *FileBackend) Ping(_ context.Context) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stats dir %s: %w", dir, err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
)

// ImportSeeder copies a legacy stats.json into a backend that holds no
// document yet. It is a no-op once the backend has data.
type ImportSeeder struct {
	Path    string
	Backend Backend
}

// Seed performs the one-off import.
func (s ImportSeeder) Seed(ctx context.Context) error {
	if s.Path == "" || s.Backend == nil {
		return nil
	}
	attrs := []slog.Attr{
		slog.String("backend", s.Backend.Name()),
		slog.String("path", s.Path),
	}

	_, err := s.Backend.Load(ctx)
	switch {
	case err == nil:
		logger.Debug(ctx, "db.seed", "import.skip", append(attrs, slog.String("reason", "not_empty"))...)
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("probe %s backend: %w", s.Backend.Name(), err)
	}

	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug(ctx, "db.seed", "import.skip", append(attrs, slog.String("reason", "no_file"))...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy stats: %w", err)
	}
	snap, err := Decode(raw)
	if err != nil {
		return fmt.Errorf("legacy stats %s: %w", s.Path, err)
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := s.Backend.Save(ctx, data); err != nil {
		return fmt.Errorf("import legacy stats: %w", err)
	}
	logger.Info(ctx, "db.seed", "import.done", append(attrs, slog.Int("users", snap.Len()))...)
	return nil
}

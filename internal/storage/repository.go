package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
)

const component = "store"

// Config holds the repository dependencies.
type Config struct {
	Backend Backend
}

// Repository performs whole-document read-modify-write cycles against a
// Backend. Writers inside one process are serialized; separate processes
// sharing a backend still race at document granularity.
type Repository struct {
	backend Backend
	mu      sync.RWMutex
}

// NewRepository creates a repository over the configured backend.
func NewRepository(cfg *Config) (*Repository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	return &Repository{backend: cfg.Backend}, nil
}

// Snapshot loads the current document. It never fails: a missing or
// unreadable document yields an empty snapshot and a log line.
func (r *Repository) Snapshot(ctx context.Context) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, err := r.load(ctx)
	if err != nil {
		logger.Error(ctx, component, "load.fail",
			slog.String("backend", r.backend.Name()),
			slog.String("err", err.Error()),
		)
		return NewSnapshot()
	}
	return s
}

// Update loads the document, applies fn and saves the result. If fn returns
// an error nothing is written. A malformed document is replaced by an empty
// one; a backend read error aborts the update so data is never clobbered.
func (r *Repository) Update(ctx context.Context, fn func(*Snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	s, err := r.load(ctx)
	var decodeErr *decodeError
	switch {
	case err == nil:
	case errors.As(err, &decodeErr):
		logger.Error(ctx, component, "load.malformed",
			slog.String("backend", r.backend.Name()),
			slog.String("err", err.Error()),
		)
		s = NewSnapshot()
	default:
		return err
	}

	if err := fn(s); err != nil {
		return err
	}

	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := r.backend.Save(ctx, data); err != nil {
		logger.Error(ctx, component, "save.fail",
			slog.String("backend", r.backend.Name()),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Debug(ctx, component, "save.ok",
		slog.String("backend", r.backend.Name()),
		slog.Int("users", s.Len()),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// RecordMood sets the user's mood for date, overwriting any previous tag,
// and refreshes the display name.
func (r *Repository) RecordMood(ctx context.Context, userID, name, date string, mood Mood) error {
	return r.Update(ctx, func(s *Snapshot) error {
		u, _ := s.Ensure(userID, name)
		u.Name = name
		u.Moods[date] = mood
		return nil
	})
}

// RecordEntry sets the user's count for date and refreshes the display name.
// It reports whether an earlier value for that date was replaced.
func (r *Repository) RecordEntry(ctx context.Context, userID, name, date string, count int) (bool, error) {
	var overwritten bool
	err := r.Update(ctx, func(s *Snapshot) error {
		u, _ := s.Ensure(userID, name)
		u.Name = name
		_, overwritten = u.Entries[date]
		u.Entries[date] = count
		return nil
	})
	return overwritten, err
}

// RecordFallback writes count for date only when the user has no entry for
// that date yet. The name is used only if the record has to be created.
// It reports whether the fallback was written.
func (r *Repository) RecordFallback(ctx context.Context, userID, name, date string, count int) (bool, error) {
	var credited bool
	err := r.Update(ctx, func(s *Snapshot) error {
		u, _ := s.Ensure(userID, name)
		if _, exists := u.Entries[date]; exists {
			return errSkip
		}
		u.Entries[date] = count
		credited = true
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	return credited, err
}

// Ping checks the backend.
func (r *Repository) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

var errSkip = errors.New("storage: nothing to write")

type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (r *Repository) load(ctx context.Context) (*Snapshot, error) {
	data, err := r.backend.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	s, err := Decode(data)
	if err != nil {
		return nil, &decodeError{err: err}
	}
	return s, nil
}

// Package storage persists the club's check-in log as a single JSON document.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend that holds no document yet.
var ErrNotFound = errors.New("storage: document not found")

// Backend stores the raw document bytes.
type Backend interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

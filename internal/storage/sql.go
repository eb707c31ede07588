package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const documentID = "stats"

// SQLBackend keeps the document in a single row of stats_documents.
// Works with any driver sqlx can rebind for (postgres, sqlite).
type SQLBackend struct {
	db *sqlx.DB
}

// NewSQL wraps an open, migrated database.
func NewSQL(db *sqlx.DB) (*SQLBackend, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Name() string { return b.db.DriverName() }

// Load reads the document row.
func (b *SQLBackend) Load(ctx context.Context) ([]byte, error) {
	var body string
	q := b.db.Rebind(`SELECT body FROM stats_documents WHERE id = ?`)
	err := b.db.GetContext(ctx, &body, q, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the document row.
func (b *SQLBackend) Save(ctx context.Context, data []byte) error {
	q := b.db.Rebind(`INSERT INTO stats_documents (id, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`)
	if _, err := b.db.ExecContext(ctx, q, documentID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close is a no-op: the database handle belongs to bootstrap.
func (b *SQLBackend) Close() error { return nil }

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
)

// PingInterval spaces readiness probes while the server is coming up.
var PingInterval = 2 * time.Second

// Connect opens cfg's database, waits for it to answer within the connect
// timeout and sizes the pool.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("db dir: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(logger.Background(), cfg.ConnectTimeout())
	defer cancel()

	start := time.Now()
	db, err := open(ctx, cfg)
	attrs := []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Target()),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.Error(ctx, "db", "db.connect", append(attrs, slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.Info(ctx, "db", "db.connect", append(attrs, slog.Int("pool", cfg.MaxConnections))...)
	return db, nil
}

func open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := WaitReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WaitReady pings db every PingInterval until it answers or ctx ends.
func WaitReady(ctx context.Context, db *sqlx.DB) error {
	t := time.NewTicker(PingInterval)
	defer t.Stop()
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logger.Debug(ctx, "db", "db.ping", slog.Int("attempt", attempt), slog.String("err", err.Error()))
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", err)
		case <-t.C:
		}
	}
}

// Package bootstrap brings up shared infrastructure in a fixed order:
// logger, database, migrations. Seeders run afterwards at the caller's
// discretion.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"
	coredatabase "github.com/anakalachikova-cmd/sterladometr-bot/core/database"
	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
)

// Options control the pipeline. The function fields default to the core
// implementations and exist for tests.
type Options struct {
	Config *coreconfig.Config
	// Database is nil when the bot runs without an SQL store.
	Database   *coredatabase.Config
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(*sqlx.DB, coredatabase.Config, fs.FS) error
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Result holds what Run brought up.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, when a database is configured, connects
// and migrates it. On a migration failure the connection is closed.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	if opts.Database == nil {
		return &Result{}, nil
	}

	db, err := opts.Connect(*opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := opts.Migrate(db, *opts.Database, opts.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}
	return &Result{DB: db}, nil
}

// RunSeeders runs seeders in order and stops at the first failure. nil
// entries are skipped.
func RunSeeders(ctx context.Context, seeders ...Seeder) error {
	for step, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		err := s.Seed(ctx)
		attrs := []slog.Attr{slog.Int("step", step), slog.Duration("duration", logger.Took(start))}
		if err != nil {
			logger.Error(ctx, "seed", "db.seed", append(attrs, slog.String("err", err.Error()))...)
			return fmt.Errorf("bootstrap: seeder %d: %w", step, err)
		}
		logger.Debug(ctx, "seed", "db.seed", attrs...)
	}
	return nil
}

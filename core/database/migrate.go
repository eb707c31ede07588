package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/logger"
)

// RunMigrations applies every pending up migration from the directory of
// source named after cfg.Driver. db stays open.
func RunMigrations(db *sqlx.DB, cfg Config, migrations fs.FS) error {
	switch {
	case db == nil:
		return errors.New("migrate: nil database")
	case migrations == nil:
		return errors.New("migrate: nil migrations source")
	}
	ctx := logger.Background()

	src, err := iofs.New(migrations, cfg.Driver)
	if err != nil {
		return fmt.Errorf("migrate: open %s: %w", cfg.Driver, err)
	}
	drv, err := databaseDriver(db, cfg.Driver)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, cfg.Driver, drv)
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	m.Log = migrateLog{}

	from, dirty, _ := m.Version()
	if dirty {
		logger.Warn(ctx, "migrate", "migrate.dirty", slog.Uint64("version", uint64(from)))
	}

	start := time.Now()
	err = m.Up()
	took := logger.Took(start)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "migrate", "migrate.fail",
			slog.Uint64("from_ver", uint64(from)),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrate: up: %w", err)
	}

	to, _, _ := m.Version()
	applied := pending(src, from, to)
	preview, truncated := logger.SummarizeStrings(applied, 6)
	attrs := []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("applied", len(applied)),
		slog.Duration("duration", took),
	}
	if preview != "" {
		attrs = append(attrs, slog.String("versions", preview), slog.Bool("truncated", truncated))
	}
	logger.Info(ctx, "migrate", "migrate.done", attrs...)
	return nil
}

func databaseDriver(db *sqlx.DB, driver string) (database.Driver, error) {
	switch driver {
	case DriverPostgres:
		return postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		return sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}

// pending walks the source versions in (from, to].
func pending(src source.Driver, from, to uint) []string {
	if to <= from {
		return nil
	}
	var out []string
	v, err := src.First()
	for err == nil && v <= to {
		if v > from {
			out = append(out, fmt.Sprint(v))
		}
		v, err = src.Next(v)
	}
	return out
}

// migrateLog routes golang-migrate's own output to the migrate logger.
type migrateLog struct{}

func (migrateLog) Printf(format string, v ...any) {
	logger.Debug(logger.Background(), "migrate", "migrate.log",
		slog.String("line", strings.TrimSpace(fmt.Sprintf(format, v...))))
}

func (migrateLog) Verbose() bool { return false }

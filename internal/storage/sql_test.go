package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	coredatabase "github.com/anakalachikova-cmd/sterladometr-bot/core/database"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
	"github.com/anakalachikova-cmd/sterladometr-bot/migrations"
)

type SQLBackendTestSuite struct {
	suite.Suite
	db      *sqlx.DB
	backend *storage.SQLBackend
	ctx     context.Context
}

func (s *SQLBackendTestSuite) SetupTest() {
	s.ctx = context.Background()
	cfg := coredatabase.Config{
		Driver: coredatabase.DriverSQLite,
		Path:   filepath.Join(s.T().TempDir(), "stats.db"),
	}
	db, err := coredatabase.Connect(cfg)
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(cfg.Normalize())
	s.Require().NoError(coredatabase.RunMigrations(db, cfg, migrations.FS))

	backend, err := storage.NewSQL(db)
	s.Require().NoError(err)
	s.backend = backend
}

func (s *SQLBackendTestSuite) TearDownTest() {
	s.db.Close()
}

func TestSQLBackendTestSuite(t *testing.T) {
	suite.Run(t, new(SQLBackendTestSuite))
}

func (s *SQLBackendTestSuite) TestLoadMissing() {
	_, err := s.backend.Load(s.ctx)
	s.ErrorIs(err, storage.ErrNotFound)
	s.Equal("sqlite", s.backend.Name())
	s.NoError(s.backend.Ping(s.ctx))
}

func (s *SQLBackendTestSuite) TestUpsert() {
	s.Require().NoError(s.backend.Save(s.ctx, []byte(`{"1":{}}`)))
	s.Require().NoError(s.backend.Save(s.ctx, []byte(`{"2":{}}`)))

	data, err := s.backend.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(`{"2":{}}`, string(data))

	var rows int
	s.Require().NoError(s.db.Get(&rows, `SELECT COUNT(*) FROM stats_documents`))
	s.Equal(1, rows)
}

func (s *SQLBackendTestSuite) TestRepositoryOverSQL() {
	repo, err := storage.NewRepository(&storage.Config{Backend: s.backend})
	s.Require().NoError(err)

	overwritten, err := repo.RecordEntry(s.ctx, "5", "Dina", "2026-03-02", 4200)
	s.Require().NoError(err)
	s.False(overwritten)

	u, ok := repo.Snapshot(s.ctx).User("5")
	s.Require().True(ok)
	s.Equal(4200, u.Entries["2026-03-02"])
}

func (s *SQLBackendTestSuite) TestMigrationsAreIdempotent() {
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite}
	s.NoError(coredatabase.RunMigrations(s.db, cfg, migrations.FS))
}

func TestNewSQLRejectsNil(t *testing.T) {
	_, err := storage.NewSQL(nil)
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

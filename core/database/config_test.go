package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	pg := Config{Driver: " Postgres ", Host: "db", User: "club", Password: "p@ss", Name: "stats"}
	require.NoError(t, pg.Normalize())
	assert.Equal(t, DriverPostgres, pg.Driver)
	assert.Equal(t, "5432", pg.Port)
	assert.Equal(t, "disable", pg.SSLMode)
	assert.Equal(t, 4, pg.MaxConnections)
	assert.Equal(t, "postgres://club:p%40ss@db:5432/stats?sslmode=disable", pg.DSN())
	assert.Equal(t, "db:5432/stats", pg.Target())

	lite := Config{Driver: "sqlite", MaxConnections: 10}
	require.NoError(t, lite.Normalize())
	assert.Equal(t, "data/stats.db", lite.Path)
	assert.Equal(t, 1, lite.MaxConnections)
	assert.Equal(t, "file:data/stats.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", lite.DSN())
	assert.Equal(t, "data/stats.db", lite.Target())

	bad := Config{Driver: "mysql"}
	assert.Error(t, bad.Normalize())
}

func TestConnectTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Config{}.ConnectTimeout())
	assert.Equal(t, 5*time.Second, Config{ConnectTimeoutSeconds: 5}.ConnectTimeout())
}

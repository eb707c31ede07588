package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/bootstrap"
	coretelegram "github.com/anakalachikova-cmd/sterladometr-bot/core/telegram"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/config"
)

func loadConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
telegram:
  token: "123:abc"
club:
  group_chat_id: -1002906845038
  input_thread_id: 4
  output_thread_id: 5
` + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func noInfra(bootstrap.Options) (*bootstrap.Result, error) { return &bootstrap.Result{}, nil }

func TestNewWiresMemoryStore(t *testing.T) {
	cfg := loadConfig(t, "storage:\n  driver: memory\nschedule:\n  disabled: true\n")
	a, err := New(context.Background(), cfg, Options{Bootstrap: noInfra})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "memory", a.backend.Name())
	assert.Nil(t, a.health)
	assert.Equal(t, cfg.Checkin.Timeout, a.checkins.Timeout())

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, cfg.CoreConfig(), opts.Config)
	assert.NotEmpty(t, opts.Middlewares)

	var names []string
	for _, c := range opts.Registry.ListCommands(true) {
		names = append(names, c.Text)
	}
	assert.Equal(t, []string{"report", "stats", "top", "send_weekly", "help"}, names)
	assert.ElementsMatch(t, []string{"mood", "stats"}, opts.Registry.ListCallbacks())
}

func TestNewFileStoreDefaultPath(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, "storage:\n  driver: file\n  path: "+filepath.Join(dir, "stats.json")+"\n")
	a, err := New(context.Background(), cfg, Options{Bootstrap: noInfra})
	require.NoError(t, err)
	assert.Equal(t, "file", a.backend.Name())
	assert.NoError(t, a.Close())
}

func TestSQLDriverNeedsConnection(t *testing.T) {
	cfg := loadConfig(t, "storage:\n  driver: sqlite\n  database:\n    path: "+filepath.Join(t.TempDir(), "x.db")+"\n")
	_, err := New(context.Background(), cfg, Options{Bootstrap: noInfra})
	assert.ErrorContains(t, err, "needs a database connection")
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := loadConfig(t, "storage:\n  driver: memory\nschedule:\n  disabled: true\nhealth:\n  listen: 127.0.0.1:0\n")
	a, err := New(context.Background(), cfg, Options{Bootstrap: noInfra})
	require.NoError(t, err)
	require.NotNil(t, a.health)

	ctx := context.Background()
	require.NoError(t, a.start(ctx, coretelegram.Runtime{}))

	resp, err := http.Get("http://" + a.health.Addr() + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, a.stop(ctx, coretelegram.Runtime{}))
}

func TestNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, Options{Bootstrap: noInfra})
	assert.Error(t, err)
}

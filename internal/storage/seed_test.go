package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `{"77": {"name": "Legacy", "entries": {"2025-12-01": 3000}}}`

func TestImportSeeder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDoc), 0o644))

	b := NewMemory()
	require.NoError(t, ImportSeeder{Path: path, Backend: b}.Seed(ctx))

	u, ok := newRepo(t, b).Snapshot(ctx).User("77")
	require.True(t, ok)
	assert.Equal(t, 3000, u.Entries["2025-12-01"])
	assert.NotNil(t, u.Moods)
}

func TestImportSeederSkipsNonEmptyBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDoc), 0o644))

	b := NewMemory()
	require.NoError(t, b.Save(ctx, []byte(`{}`)))
	require.NoError(t, ImportSeeder{Path: path, Backend: b}.Seed(ctx))

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestImportSeederMissingFile(t *testing.T) {
	b := NewMemory()
	require.NoError(t, ImportSeeder{Path: filepath.Join(t.TempDir(), "none.json"), Backend: b}.Seed(context.Background()))
	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, ImportSeeder{}.Seed(context.Background()))
}

func TestImportSeederMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))
	err := ImportSeeder{Path: path, Backend: NewMemory()}.Seed(context.Background())
	assert.Error(t, err)
}

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/storage/docstore"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	_, err = b.Read(ctx, "dinners/current")
	assert.True(t, errors.Is(err, docstore.ErrNotExist))
	_, err = b.Stat(ctx, "dinners/current")
	assert.True(t, errors.Is(err, docstore.ErrNotExist))

	modTime := time.Date(2024, 6, 5, 12, 0, 0, 123000000, time.UTC)
	require.NoError(t, b.Write(ctx,
		docstore.Document{Key: "dinners/current", Data: []byte(`{"id": "a"}`), ModTime: modTime},
		docstore.Document{Key: "settings", Data: []byte(`{"dinner_day": 6}`), ModTime: modTime},
	))

	data, err := os.ReadFile(filepath.Join(dir, "data", "dinners", "current.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"id": "a"}`, string(data))

	doc, err := b.Read(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, `{"dinner_day": 6}`, string(doc.Data))
	assert.True(t, doc.ModTime.Equal(modTime), "got %s", doc.ModTime)

	st, err := b.Stat(ctx, "settings")
	require.NoError(t, err)
	assert.True(t, st.Equal(modTime))

	tmps, err := filepath.Glob(filepath.Join(dir, "data", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps)
}

func TestBackend_Write_stagingFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, b.Write(ctx, docstore.Document{Key: "settings", Data: []byte("old")}))

	// a regular file where a directory is needed makes staging the second document fail
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644))
	err = b.Write(ctx,
		docstore.Document{Key: "settings", Data: []byte("new")},
		docstore.Document{Key: "blocked/doc", Data: []byte("new")},
	)
	require.Error(t, err)

	doc, err := b.Read(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "old", string(doc.Data))

	tmps, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps)
}

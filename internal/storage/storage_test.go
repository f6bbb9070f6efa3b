package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	var s Storage = Local{}

	// Listing a directory that doesn't exist is not an error.
	matches, err := s.Glob(ctx, filepath.Join(root, "models", "*.meta"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	for _, name := range []string{"000002-b.meta", "000001-a.meta", "000001-a.data"} {
		require.NoError(t, s.WriteFile(ctx, filepath.Join(root, "models", name), []byte(name)))
	}
	matches, err = s.Glob(ctx, filepath.Join(root, "models", "*.meta"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "models", "000001-a.meta"),
		filepath.Join(root, "models", "000002-b.meta"),
	}, matches)

	data, err := s.ReadFile(ctx, filepath.Join(root, "models", "000001-a.data"))
	require.NoError(t, err)
	assert.Equal(t, "000001-a.data", string(data))

	found, err := s.Exists(ctx, filepath.Join(root, "models", "000002-b.meta"))
	require.NoError(t, err)
	assert.True(t, found)
	found, err = s.Exists(ctx, filepath.Join(root, "models", "000003-c.meta"))
	require.NoError(t, err)
	assert.False(t, found)

	// No temporary files are left behind.
	all, err := s.Glob(ctx, filepath.Join(root, "models", ".*"))
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.ReadFile(ctx, filepath.Join(root, "missing"))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Glob(cancelled, filepath.Join(root, "*"))
	assert.ErrorIs(t, err, context.Canceled)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(FileEnvVar, "")
	t.Setenv("BUCKET_NAME", "minigo-test")
	t.Setenv("BOARD_SIZE", "9")
	t.Setenv("STORAGE_ROOT", "/data")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "minigo-test", c.Bucket)
	assert.Equal(t, 9, c.BoardSize)
	assert.Equal(t, "/data/minigo-test", c.BaseDir())
	assert.Equal(t, "/data/minigo-test/models", c.ModelsDir())
	assert.Equal(t, "/data/minigo-test/games", c.SelfPlayDir())
	assert.Equal(t, "/data/minigo-test/sgf", c.SGFDir())
	assert.Equal(t, "/data/minigo-test/data/training_chunks", c.TrainingChunkDir())
}

func TestLoadMissing(t *testing.T) {
	t.Setenv(FileEnvVar, "")
	t.Setenv("BUCKET_NAME", "")
	t.Setenv("BOARD_SIZE", "19")
	_, err := Load()
	var configErr *Error
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, KeyBucket, configErr.Key)

	t.Setenv("BUCKET_NAME", "b")
	t.Setenv("BOARD_SIZE", "")
	_, err = Load()
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, KeyBoardSize, configErr.Key)

	t.Setenv("BOARD_SIZE", "nineteen")
	_, err = Load()
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, KeyBoardSize, configErr.Key)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rlloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bucket_name: from-file\nboard_size: 19\nstorage_root: /srv\n"), 0o644))
	t.Setenv(FileEnvVar, path)
	t.Setenv("BUCKET_NAME", "")
	t.Setenv("BOARD_SIZE", "9")
	t.Setenv("STORAGE_ROOT", "")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.Bucket)
	assert.Equal(t, 9, c.BoardSize)
	assert.Equal(t, "/srv", c.StorageRoot)
}

func TestNew(t *testing.T) {
	c, err := New("bucket", 9, "")
	require.NoError(t, err)
	assert.Equal(t, "bucket", c.BaseDir())
	assert.Len(t, c.Flags(), 7)

	_, err = New("a/b", 9, "")
	assert.Error(t, err)
	_, err = New("bucket", 0, "")
	assert.Error(t, err)
}

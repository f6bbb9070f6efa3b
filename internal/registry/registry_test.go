package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/rlloop/internal/config"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistry creates a Registry on a temporary directory, with the given files created
// under the models directory.
func newTestRegistry(t *testing.T, modelFiles ...string) (*Registry, config.Config) {
	cfg, err := config.New("bucket", 9, t.TempDir())
	require.NoError(t, err)
	store := storage.Local{}
	for _, name := range modelFiles {
		require.NoError(t, store.WriteFile(context.Background(), filepath.Join(cfg.ModelsDir(), name), nil))
	}
	return New(store, cfg), cfg
}

func TestLatestModel(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, "000001-a.meta", "000003-c.meta", "000002-b.meta",
		"000004-d.data", "000004-d.index") // Model 4 is incomplete: no marker.
	latest, err := r.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, shipname.ModelID{Generation: 3, Name: "c"}, latest)
}

func TestLatestModelNumericOrder(t *testing.T) {
	// Lexicographically "000010-a" < "000009-z", but generation 10 is the latest.
	r, _ := newTestRegistry(t, "000009-z.meta", "000010-a.meta", "000010-b.meta")
	latest, err := r.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shipname.ModelID{Generation: 10, Name: "b"}, latest)
}

func TestLatestModelEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.LatestModel(context.Background())
	assert.ErrorIs(t, err, ErrNoModels)
}

func TestLatestModelSkipsUnparseable(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, "000001-a.meta", "checkpoint.meta", "000002-b.meta", "12-bad.meta")
	latest, err := r.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, shipname.ModelID{Generation: 2, Name: "b"}, latest)

	models, err := r.ListModels(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 2)

	names, err := r.UsedNames(ctx)
	require.NoError(t, err)
	assert.True(t, names.Has("a"))
	assert.True(t, names.Has("b"))
	assert.Len(t, names, 2)

	// Only unparseable files: same as no models.
	r, _ = newTestRegistry(t, "junk.meta")
	_, err = r.LatestModel(ctx)
	assert.ErrorIs(t, err, ErrNoModels)
}

func TestRecentModelGameCounts(t *testing.T) {
	ctx := context.Background()
	r, cfg := newTestRegistry(t, "000001-a.meta", "000002-b.meta", "000003-c.meta")
	store := storage.Local{}
	for model, numFiles := range map[string]int{"000001-a": 3, "000003-c": 2} {
		for ii := range numFiles {
			path := filepath.Join(cfg.SelfPlayDir(), model, fmt.Sprintf("game-%d.zz", ii))
			require.NoError(t, store.WriteFile(ctx, path, nil))
		}
	}
	// Not a record file: not counted.
	require.NoError(t, store.WriteFile(ctx, filepath.Join(cfg.SelfPlayDir(), "000003-c", "notes.txt"), nil))

	counts, err := r.RecentModelGameCounts(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, []GameCount{
		{Model: shipname.ModelID{Generation: 3, Name: "c"}, Games: 16},
		{Model: shipname.ModelID{Generation: 2, Name: "b"}, Games: 0},
		{Model: shipname.ModelID{Generation: 1, Name: "a"}, Games: 24},
	}, counts)

	counts, err = r.RecentModelGameCounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 3, counts[0].Model.Generation)
}

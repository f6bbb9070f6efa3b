// Package registry finds the models available in storage.
//
// There is no index: every query lists the models directory again, so the answers always reflect
// models created by other processes (e.g. a trainer running on another machine), modulo the
// storage listing consistency.
package registry

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/janpfeifer/rlloop/internal/config"
	"github.com/janpfeifer/rlloop/internal/generics"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// ModelMarkerExt is the extension of the file whose presence marks a complete model artifact.
	ModelMarkerExt = ".meta"

	// GameRecordExt is the extension of self-play game record files.
	GameRecordExt = ".zz"

	// GamesPerRecordFile is the number of games bundled in each game record file.
	GamesPerRecordFile = 8
)

// ErrNoModels is returned when the models area is empty: bootstrap must be run first.
var ErrNoModels = errors.New("no models found, run bootstrap first")

// Registry lists the models and self-play games in storage.
type Registry struct {
	store       storage.Storage
	modelsDir   string
	selfPlayDir string
}

// New creates a Registry for the models and games directories of the given configuration.
func New(store storage.Storage, cfg config.Config) *Registry {
	return &Registry{
		store:       store,
		modelsDir:   cfg.ModelsDir(),
		selfPlayDir: cfg.SelfPlayDir(),
	}
}

// ModelPath returns the path of the model artifact, without extension.
// The engines add their own extensions to it.
func (r *Registry) ModelPath(id shipname.ModelID) string {
	return filepath.Join(r.modelsDir, id.String())
}

// MarkerPath returns the path of the file that marks the model as complete.
func (r *Registry) MarkerPath(id shipname.ModelID) string {
	return r.ModelPath(id) + ModelMarkerExt
}

// HasModel returns whether the model marker file exists.
func (r *Registry) HasModel(ctx context.Context, id shipname.ModelID) (bool, error) {
	return r.store.Exists(ctx, r.MarkerPath(id))
}

// ListModels returns all models found in storage, latest first.
//
// Files whose names cannot be parsed as model identifiers are skipped (with a warning):
// one stray file shouldn't make all models unreachable.
func (r *Registry) ListModels(ctx context.Context) ([]shipname.ModelID, error) {
	paths, err := r.store.Glob(ctx, filepath.Join(r.modelsDir, "*"+ModelMarkerExt))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to list models in %q", r.modelsDir)
	}
	models := make([]shipname.ModelID, 0, len(paths))
	for _, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), ModelMarkerExt)
		id, err := shipname.ParseModelID(base)
		if err != nil {
			klog.Warningf("Skipping model file %q: %v", path, err)
			continue
		}
		models = append(models, id)
	}
	slices.SortFunc(models, func(a, b shipname.ModelID) int { return b.Compare(a) })
	return models, nil
}

// LatestModel returns the model with the highest generation.
// It returns ErrNoModels if there are no models.
func (r *Registry) LatestModel(ctx context.Context) (shipname.ModelID, error) {
	models, err := r.ListModels(ctx)
	if err != nil {
		return shipname.ModelID{}, err
	}
	if len(models) == 0 {
		return shipname.ModelID{}, errors.WithMessagef(ErrNoModels, "models directory %q", r.modelsDir)
	}
	return models[0], nil
}

// UsedNames returns the set of model names (without the generation) in storage.
func (r *Registry) UsedNames(ctx context.Context) (generics.Set[string], error) {
	models, err := r.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return generics.SetWith(generics.SliceMap(models, func(id shipname.ModelID) string { return id.Name })...), nil
}

// GameCount is the number of self-play games recorded for a model.
type GameCount struct {
	Model shipname.ModelID
	Games int
}

// GamesDir returns the directory with the self-play game records of the model.
func (r *Registry) GamesDir(id shipname.ModelID) string {
	return filepath.Join(r.selfPlayDir, id.String())
}

// RecentModelGameCounts returns the number of self-play games of each of the n most recent models,
// latest first. Each record file is assumed to hold GamesPerRecordFile games.
func (r *Registry) RecentModelGameCounts(ctx context.Context, n int) ([]GameCount, error) {
	models, err := r.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(models) {
		models = models[:n]
	}
	counts := make([]GameCount, 0, len(models))
	for _, id := range models {
		records, err := r.store.Glob(ctx, filepath.Join(r.GamesDir(id), "*"+GameRecordExt))
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to list games of model %s", id)
		}
		counts = append(counts, GameCount{Model: id, Games: len(records) * GamesPerRecordFile})
	}
	return counts, nil
}

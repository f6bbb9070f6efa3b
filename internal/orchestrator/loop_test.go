package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/rlloop/internal/config"
	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/engine/random"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGather returns the errors in order, and nil once they are exhausted.
func scriptedGather(calls *int, errs ...error) func(ctx context.Context) error {
	return func(context.Context) error {
		idx := *calls
		*calls++
		if idx < len(errs) {
			return errs[idx]
		}
		return nil
	}
}

func countingTrain(calls *int, status TrainStatus) func(ctx context.Context, logDir string) TrainResult {
	return func(context.Context, string) TrainResult {
		*calls++
		result := TrainResult{Status: status}
		if status != TrainSuccess {
			result.Err = errors.Errorf("training failed with %s", status)
		}
		return result
	}
}

func TestLoopGatherRetries(t *testing.T) {
	var gathers, trains int
	failure := errors.New("gather failed")
	o := &Orchestrator{}
	summary := o.Loop(context.Background(), LoopConfig{
		NumIterations: 1,
		GatherFn:      scriptedGather(&gathers, failure, failure),
		TrainFn:       countingTrain(&trains, TrainSuccess),
	})
	assert.Equal(t, StopMaxIterations, summary.StopReason)
	assert.Equal(t, 0, summary.StopReason.ExitCode())
	assert.Equal(t, 3, gathers)
	assert.Equal(t, 1, trains)
	assert.Equal(t, 2, summary.GatherFailures)
	assert.Equal(t, 1, summary.Trained)
	assert.NoError(t, summary.Err)
}

func TestLoopGatherFailureCounterResets(t *testing.T) {
	var gathers, trains int
	failure := errors.New("gather failed")
	o := &Orchestrator{}
	// Four failures in total, but never three in a row.
	summary := o.Loop(context.Background(), LoopConfig{
		NumIterations: 2,
		GatherFn:      scriptedGather(&gathers, failure, failure, nil, failure, failure),
		TrainFn:       countingTrain(&trains, TrainSuccess),
	})
	assert.Equal(t, StopMaxIterations, summary.StopReason)
	assert.Equal(t, 6, gathers)
	assert.Equal(t, 2, trains)
	assert.Equal(t, 4, summary.GatherFailures)
}

func TestLoopGatherExhausted(t *testing.T) {
	var gathers, trains int
	failure := errors.New("gather failed")
	o := &Orchestrator{}
	summary := o.Loop(context.Background(), LoopConfig{
		GatherFn: scriptedGather(&gathers, failure, failure, failure),
		TrainFn:  countingTrain(&trains, TrainSuccess),
	})
	assert.Equal(t, StopGatherFailures, summary.StopReason)
	assert.Equal(t, 1, summary.StopReason.ExitCode())
	assert.Equal(t, 3, gathers)
	assert.Equal(t, 0, trains)
	require.ErrorIs(t, summary.Err, failure)
}

func TestLoopTrainFailures(t *testing.T) {
	var gathers, trains int
	o := &Orchestrator{}
	summary := o.Loop(context.Background(), LoopConfig{
		NumIterations: 3,
		GatherFn:      scriptedGather(&gathers),
		TrainFn:       countingTrain(&trains, TrainRecoverable),
	})
	assert.Equal(t, StopMaxIterations, summary.StopReason)
	assert.Equal(t, 3, gathers)
	assert.Equal(t, 3, trains)
	assert.Equal(t, 3, summary.TrainFailures)
	assert.Equal(t, 0, summary.Trained)

	gathers, trains = 0, 0
	summary = o.Loop(context.Background(), LoopConfig{
		GatherFn: scriptedGather(&gathers),
		TrainFn:  countingTrain(&trains, TrainFatal),
	})
	assert.Equal(t, StopFatalTraining, summary.StopReason)
	assert.Equal(t, 2, summary.StopReason.ExitCode())
	assert.Equal(t, 1, trains)
	require.Error(t, summary.Err)
}

func TestLoopInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var trains int
	o := &Orchestrator{}
	summary := o.Loop(ctx, LoopConfig{
		GatherFn: func(ctx context.Context) error {
			cancel()
			return ctx.Err()
		},
		TrainFn: countingTrain(&trains, TrainSuccess),
	})
	assert.Equal(t, StopInterrupted, summary.StopReason)
	assert.Equal(t, 0, summary.StopReason.ExitCode())
	assert.Equal(t, 0, summary.GatherFailures)
	assert.Equal(t, 0, trains)
}

func TestLoopEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.New("e2e", 5, t.TempDir())
	require.NoError(t, err)
	store := storage.Local{}
	eng, err := random.New(store)
	require.NoError(t, err)
	eng.Parallelism = 2
	o := New(cfg, store, eng)

	// Generation 0, created directly with the engine to control its name.
	gen0 := shipname.ModelID{Generation: 0, Name: "x"}
	require.NoError(t, eng.Bootstrap(ctx, engine.BootstrapParams{SavePath: o.Registry.ModelPath(gen0), BoardSize: 5}))
	gen0Files, err := store.Glob(ctx, o.Registry.ModelPath(gen0)+".*")
	require.NoError(t, err)
	require.Len(t, gen0Files, 2)
	gen0Contents := make(map[string][]byte)
	for _, path := range gen0Files {
		gen0Contents[path], err = store.ReadFile(ctx, path)
		require.NoError(t, err)
	}

	opts := DefaultSelfPlayOptions()
	opts.Readouts = 10
	opts.Games = 16
	played, err := o.SelfPlay(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, gen0, played)
	counts, err := o.GameCounts(ctx, DefaultGameCountModels)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 16, counts[0].Games)

	summary := o.Loop(ctx, LoopConfig{NumIterations: 1, LogDir: filepath.Join(t.TempDir(), "logs")})
	require.NoError(t, summary.Err)
	assert.Equal(t, StopMaxIterations, summary.StopReason)
	assert.Equal(t, 1, summary.Trained)

	chunks, err := store.Glob(ctx, filepath.Join(cfg.TrainingChunkDir(), "*.zz"))
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	models, err := o.Registry.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, 1, models[0].Generation)
	assert.NotEqual(t, "x", models[0].Name)
	assert.Equal(t, gen0, models[1])

	for path, contents := range gen0Contents {
		got, err := store.ReadFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, contents, got, "model file %q was modified", path)
	}
	found, err := o.Registry.HasModel(ctx, models[0])
	require.NoError(t, err)
	assert.True(t, found)
}

package orchestrator

import (
	"context"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/metrics"
	"github.com/janpfeifer/rlloop/internal/registry"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"k8s.io/klog/v2"
)

// TrainStatus is the outcome of one training step.
type TrainStatus int

const (
	// TrainSuccess means the new model was saved.
	TrainSuccess TrainStatus = iota

	// TrainRecoverable means this training step failed, but the loop can go on.
	TrainRecoverable

	// TrainFatal means training can't succeed without intervention: e.g. there are no models, or
	// the engine is misconfigured.
	TrainFatal
)

// String implements fmt.Stringer.
func (s TrainStatus) String() string {
	switch s {
	case TrainSuccess:
		return "success"
	case TrainRecoverable:
		return "recoverable"
	case TrainFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrNoArtifact is returned when the engine finishes training without saving the model marker.
var ErrNoArtifact = errors.New("training finished but the model marker was not written")

// TrainResult of one training step.
type TrainResult struct {
	Status TrainStatus

	// From is the model training started from, and Model the one being created.
	// They are only set if the latest model was found.
	From, Model shipname.ModelID

	// Err is set if Status is not TrainSuccess.
	Err error
}

// Train creates the next generation model, starting from the latest model and trained with the
// current training chunks. The starting model is never modified.
//
// Errors are not returned, but reported in the TrainResult.
func (o *Orchestrator) Train(ctx context.Context, logDir string) (result TrainResult) {
	defer func() {
		metrics.TrainResults.WithLabelValues(result.Status.String()).Inc()
	}()

	latest, err := o.Registry.LatestModel(ctx)
	if err != nil {
		result.Status = TrainRecoverable
		if errors.Is(err, registry.ErrNoModels) {
			result.Status = TrainFatal
		}
		result.Err = errors.WithMessage(err, "train")
		return
	}
	result.From = latest
	used, err := o.Registry.UsedNames(ctx)
	if err != nil {
		result.Status = TrainRecoverable
		result.Err = errors.WithMessage(err, "train")
		return
	}
	result.Model, err = shipname.ParseModelID(shipname.GenerateUnused(latest.Generation+1, used))
	if err != nil {
		result.Status = TrainFatal
		result.Err = errors.WithMessage(err, "train: generated invalid model name")
		return
	}

	params := engine.TrainParams{
		ChunkDir:   o.Config.TrainingChunkDir(),
		LoadPath:   o.Registry.ModelPath(latest),
		SavePath:   o.Registry.ModelPath(result.Model),
		Generation: result.Model.Generation,
		BoardSize:  o.Config.BoardSize,
		LogDir:     logDir,
	}
	klog.Infof("Training %s from %s", result.Model, latest)
	err = runPhase(ctx, PhaseTrain, func(ctx context.Context) error {
		var trainErr error
		exception := exceptions.TryCatch[error](func() { trainErr = o.Engine.Train(ctx, params) })
		if exception != nil {
			return errors.WithMessage(exception, "engine panicked")
		}
		return trainErr
	}, attribute.String("model", result.Model.String()), attribute.String("from", latest.String()))
	if err != nil {
		result.Status = TrainRecoverable
		if engine.IsFatal(err) {
			result.Status = TrainFatal
		}
		result.Err = errors.WithMessagef(err, "training %s from %s failed", result.Model, latest)
		return
	}

	found, err := o.Registry.HasModel(ctx, result.Model)
	if err == nil && !found {
		err = ErrNoArtifact
	}
	if err != nil {
		result.Status = TrainRecoverable
		result.Err = errors.WithMessagef(err, "training %s from %s", result.Model, latest)
		return
	}
	result.Status = TrainSuccess
	metrics.LatestGeneration.Set(float64(result.Model.Generation))
	return
}

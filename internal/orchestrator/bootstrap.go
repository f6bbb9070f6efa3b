package orchestrator

import (
	"context"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/metrics"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"k8s.io/klog/v2"
)

// Bootstrap creates the generation 0 model, with a random name.
//
// It fails if there are already models in storage, since generations must be unique.
func (o *Orchestrator) Bootstrap(ctx context.Context) (shipname.ModelID, error) {
	models, err := o.Registry.ListModels(ctx)
	if err != nil {
		return shipname.ModelID{}, err
	}
	if len(models) > 0 {
		return shipname.ModelID{}, errors.Errorf("bootstrap: storage already has %d models (latest is %s)",
			len(models), models[0])
	}
	id, err := shipname.ParseModelID(shipname.Generate(0))
	if err != nil {
		return shipname.ModelID{}, errors.WithMessage(err, "bootstrap: generated invalid model name")
	}
	savePath := o.Registry.ModelPath(id)
	klog.Infof("Bootstrapping model %s to %q", id, savePath)
	err = runPhase(ctx, PhaseBootstrap, func(ctx context.Context) error {
		return o.Engine.Bootstrap(ctx, engine.BootstrapParams{
			SavePath:  savePath,
			BoardSize: o.Config.BoardSize,
		})
	}, attribute.String("model", id.String()))
	if err != nil {
		return id, errors.WithMessagef(err, "bootstrap of model %s failed", id)
	}
	metrics.LatestGeneration.Set(float64(id.Generation))
	return id, nil
}

package orchestrator

import (
	"context"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/metrics"
	"github.com/pkg/errors"
)

// Gather consolidates the self-play game records of all models into training chunks.
// It is safe to retry.
func (o *Orchestrator) Gather(ctx context.Context) error {
	params := engine.GatherParams{
		InputDir:  o.Config.SelfPlayDir(),
		OutputDir: o.Config.TrainingChunkDir(),
	}
	err := runPhase(ctx, PhaseGather, func(ctx context.Context) error {
		return o.Engine.Gather(ctx, params)
	})
	if err != nil {
		metrics.GatherAttempts.WithLabelValues("failure").Inc()
		return errors.WithMessagef(err, "gather from %q failed", params.InputDir)
	}
	metrics.GatherAttempts.WithLabelValues("success").Inc()
	return nil
}

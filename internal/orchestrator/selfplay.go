package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/metrics"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"k8s.io/klog/v2"
)

// SelfPlayOptions configures a batch of self-play games.
type SelfPlayOptions struct {
	Readouts        int
	Games           int
	Verbose         int
	ResignThreshold float64
}

// DefaultSelfPlayOptions returns the options used by the selfplay command if not set otherwise.
func DefaultSelfPlayOptions() SelfPlayOptions {
	return SelfPlayOptions{
		Readouts:        800,
		Games:           8,
		Verbose:         2,
		ResignThreshold: 0.99,
	}
}

// SelfPlay plays a batch of games with the latest model. Games are written under games/<model>
// and transcripts under sgf/<model>.
//
// Failures are returned to the caller, there are no retries.
func (o *Orchestrator) SelfPlay(ctx context.Context, opts SelfPlayOptions) (shipname.ModelID, error) {
	latest, err := o.Registry.LatestModel(ctx)
	if err != nil {
		return latest, errors.WithMessage(err, "selfplay")
	}
	metrics.LatestGeneration.Set(float64(latest.Generation))
	params := engine.SelfPlayParams{
		LoadPath:        o.Registry.ModelPath(latest),
		OutputDir:       o.Registry.GamesDir(latest),
		OutputSGFDir:    filepath.Join(o.Config.SGFDir(), latest.String()),
		Readouts:        opts.Readouts,
		Games:           opts.Games,
		Verbose:         opts.Verbose,
		ResignThreshold: opts.ResignThreshold,
		BoardSize:       o.Config.BoardSize,
	}
	klog.Infof("Playing %d games with %s", opts.Games, latest)
	err = runPhase(ctx, PhaseSelfPlay, func(ctx context.Context) error {
		return o.Engine.SelfPlay(ctx, params)
	}, attribute.String("model", latest.String()), attribute.Int("games", opts.Games))
	if err != nil {
		return latest, errors.WithMessagef(err, "selfplay with model %s failed", latest)
	}
	metrics.SelfPlayGames.Add(float64(opts.Games))
	return latest, nil
}

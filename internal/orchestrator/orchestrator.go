// Package orchestrator drives the reinforcement learning loop: bootstrap, self-play, gather and train.
//
// The actual work of each phase is delegated to an engine.Engine; the orchestrator decides what
// model to use, where inputs and outputs live, and how failures are handled.
package orchestrator

import (
	"context"
	"time"

	"github.com/janpfeifer/rlloop/internal/config"
	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/metrics"
	"github.com/janpfeifer/rlloop/internal/registry"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/janpfeifer/rlloop/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"
)

// Phase names, used in logs, spans and metrics.
const (
	PhaseBootstrap = "bootstrap"
	PhaseSelfPlay  = "selfplay"
	PhaseGather    = "gather"
	PhaseTrain     = "train"
)

// Orchestrator holds what the phases need: configuration, storage (through the registry) and the engine.
type Orchestrator struct {
	Config   config.Config
	Engine   engine.Engine
	Registry *registry.Registry
}

// New creates an Orchestrator for the given configuration, storage and engine.
func New(cfg config.Config, store storage.Storage, eng engine.Engine) *Orchestrator {
	return &Orchestrator{
		Config:   cfg,
		Engine:   eng,
		Registry: registry.New(store, cfg),
	}
}

// runPhase runs fn within a span named after the phase, and logs and records its duration.
func runPhase(ctx context.Context, phase string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tracing.Tracer().Start(ctx, phase, trace.WithAttributes(attrs...))
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.PhaseDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		klog.V(1).Infof("%s: failed after %s", phase, elapsed)
		return err
	}
	klog.Infof("%s: finished in %s", phase, elapsed)
	return nil
}

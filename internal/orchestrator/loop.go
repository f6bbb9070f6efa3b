package orchestrator

import (
	"context"
	"time"

	"k8s.io/klog/v2"
)

// StopReason indicates why the loop terminated.
type StopReason int

const (
	StopInterrupted    StopReason = iota // Context cancelled (e.g. SIGINT).
	StopMaxIterations                    // Completed LoopConfig.NumIterations training steps.
	StopGatherFailures                   // Too many consecutive gather failures.
	StopFatalTraining                    // Training can't make progress without intervention.
)

// String returns a human-readable label for the stop reason.
func (r StopReason) String() string {
	switch r {
	case StopInterrupted:
		return "interrupted"
	case StopMaxIterations:
		return "max-iterations"
	case StopGatherFailures:
		return "gather-failures"
	case StopFatalTraining:
		return "fatal-training"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code for the stop reason.
func (r StopReason) ExitCode() int {
	switch r {
	case StopInterrupted, StopMaxIterations:
		return 0
	case StopGatherFailures:
		return 1
	case StopFatalTraining:
		return 2
	default:
		return 1
	}
}

// DefaultMaxGatherFailures is the default number of consecutive gather failures before the loop stops.
const DefaultMaxGatherFailures = 3

// LoopConfig configures the gather/train loop.
type LoopConfig struct {
	// LogDir passed to the training engine.
	LogDir string

	// NumIterations is the number of training steps after which to stop. Zero means run forever.
	NumIterations int

	// MaxGatherFailures stops the loop after N consecutive gather failures.
	// Zero means use DefaultMaxGatherFailures.
	MaxGatherFailures int

	// Test hooks, nil means use the Orchestrator methods.
	GatherFn func(ctx context.Context) error
	TrainFn  func(ctx context.Context, logDir string) TrainResult
}

// LoopSummary holds the aggregate results of the loop.
type LoopSummary struct {
	Iterations     int
	Trained        int
	TrainFailures  int
	GatherFailures int
	StopReason     StopReason

	// Err that caused the loop to stop, if any.
	Err      error
	Duration time.Duration
}

type loopState int

const (
	stateGathering loopState = iota
	stateTraining
)

// Loop alternates gathering the self-play data and training a new model, until interrupted.
//
// Gather failures are retried, up to MaxGatherFailures consecutive ones. Recoverable training
// failures are logged and the loop goes on with a new gather.
func (o *Orchestrator) Loop(ctx context.Context, cfg LoopConfig) (summary LoopSummary) {
	gather, train := cfg.GatherFn, cfg.TrainFn
	if gather == nil {
		gather = o.Gather
	}
	if train == nil {
		train = o.Train
	}
	maxGatherFailures := cfg.MaxGatherFailures
	if maxGatherFailures <= 0 {
		maxGatherFailures = DefaultMaxGatherFailures
	}

	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start)
		klog.Infof("Loop stopped (%s) after %s: %d iterations, %d models trained",
			summary.StopReason, summary.Duration, summary.Iterations, summary.Trained)
	}()

	state := stateGathering
	consecutiveFailures := 0
	for {
		if ctx.Err() != nil {
			summary.StopReason = StopInterrupted
			return
		}
		switch state {
		case stateGathering:
			err := gather(ctx)
			if err != nil {
				if ctx.Err() != nil {
					summary.StopReason = StopInterrupted
					return
				}
				consecutiveFailures++
				summary.GatherFailures++
				klog.Errorf("Gather failed (%d of %d consecutive failures): %+v",
					consecutiveFailures, maxGatherFailures, err)
				if consecutiveFailures >= maxGatherFailures {
					klog.Errorf("Gathering died too many times, stopping")
					summary.StopReason = StopGatherFailures
					summary.Err = err
					return
				}
				continue
			}
			consecutiveFailures = 0
			state = stateTraining

		case stateTraining:
			result := train(ctx, cfg.LogDir)
			summary.Iterations++
			switch result.Status {
			case TrainSuccess:
				summary.Trained++
				klog.Infof("Trained model %s", result.Model)
			case TrainFatal:
				summary.TrainFailures++
				klog.Errorf("Training can't continue: %+v", result.Err)
				summary.StopReason = StopFatalTraining
				summary.Err = result.Err
				return
			default:
				summary.TrainFailures++
				if ctx.Err() != nil {
					summary.StopReason = StopInterrupted
					return
				}
				klog.Errorf("Training failed, muddling on regardless: %+v", result.Err)
			}
			if cfg.NumIterations > 0 && summary.Iterations >= cfg.NumIterations {
				summary.StopReason = StopMaxIterations
				return
			}
			state = stateGathering
		}
	}
}

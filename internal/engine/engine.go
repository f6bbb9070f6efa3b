// Package engine defines the interface to the external collaborators of the training loop:
// the self-play game engine, the data aggregation ("gather") step and the training step.
//
// The orchestrator treats them as opaque operations. Engine implementations register themselves
// as modules (see RegisterModule) and are created from a configuration string (see New).
//
// Contract for model paths: LoadPath and SavePath are model paths without extension
// (e.g. ".../models/000003-brave-frigate-042"). An engine saving a model must write the marker
// file SavePath+".meta" last, once every other file of the model is complete.
package engine

import (
	"context"
)

// BootstrapParams configures the creation of the generation 0 model.
type BootstrapParams struct {
	SavePath  string
	BoardSize int
}

// SelfPlayParams configures one batch of self-play games.
type SelfPlayParams struct {
	// LoadPath of the model playing.
	LoadPath string

	// OutputDir for the raw game records, and OutputSGFDir for human-readable transcripts.
	OutputDir, OutputSGFDir string

	Readouts        int
	Games           int
	Verbose         int
	ResignThreshold float64
	BoardSize       int
}

// GatherParams configures the aggregation of self-play records into training chunks.
type GatherParams struct {
	// InputDir holds one sub-directory of game records per model.
	InputDir string

	// OutputDir where to write the training chunks.
	OutputDir string
}

// TrainParams configures one training step.
type TrainParams struct {
	ChunkDir   string
	LoadPath   string
	SavePath   string
	Generation int
	BoardSize  int

	// LogDir is optional, where to write training logs (e.g. for TensorBoard).
	LogDir string
}

// Engine implements the operations the orchestrator delegates.
// All methods block until the operation finishes or fails.
type Engine interface {
	// Bootstrap creates the initial, untrained, model.
	Bootstrap(ctx context.Context, params BootstrapParams) error

	// SelfPlay plays a batch of games with a model and writes the game records.
	SelfPlay(ctx context.Context, params SelfPlayParams) error

	// Gather consolidates self-play records into training chunks.
	// It must not modify or delete its inputs, so it is always safe to retry.
	Gather(ctx context.Context, params GatherParams) error

	// Train creates a new model, initialized from LoadPath, trained on the chunks, and saved to SavePath.
	// It must not modify the model in LoadPath.
	Train(ctx context.Context, params TrainParams) error
}

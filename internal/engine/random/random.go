// Package random implements a self-contained engine.Engine, registered as the "random" module.
//
// It doesn't use any neural network: a "model" is a move prior (frequency of each board point
// in won games) plus a few statistics. Self-play places stones guided by the prior with plenty of
// randomness, and training blends the parent prior with the frequencies in the newly gathered
// data. It exists so the training loop can be run and tested end-to-end without an ML stack.
//
// Files written:
//
//   - <model>.data: gob encoded Weights; <model>.meta: YAML ModelMeta, written last.
//   - <games>/<uuid>.zz: zstd compressed, gob encoded []Game, GamesPerFile games per file.
//   - <sgf>/<uuid>-<n>.sgf: one transcript per game.
//   - <chunks>/chunk-<gathering time>-<n>.zz: zstd compressed, gob encoded []Example.
package random

import (
	"runtime"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/parameters"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ModuleName used to select this engine.
const ModuleName = "random"

const (
	// DefaultChunkSize is the default maximum number of examples per training chunk.
	DefaultChunkSize = 4096

	// GamesPerFile is the number of games bundled in each game record file.
	GamesPerFile = 8
)

// Engine implements engine.Engine with random games.
type Engine struct {
	store storage.Storage

	// Parallelism is the number of games played (or files decoded) in parallel.
	Parallelism int

	// ChunkSize is the maximum number of examples per training chunk.
	ChunkSize int

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Assert Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

func init() {
	engine.RegisterModule(ModuleName, engine.ModuleFunc(func(params parameters.Params) (engine.Engine, error) {
		e, err := New(storage.Local{})
		if err != nil {
			return nil, err
		}
		e.Parallelism, err = parameters.PopParamOr(params, "parallelism", e.Parallelism)
		if err != nil {
			return nil, err
		}
		e.ChunkSize, err = parameters.PopParamOr(params, "chunk_size", e.ChunkSize)
		if err != nil {
			return nil, err
		}
		if e.Parallelism <= 0 || e.ChunkSize <= 0 {
			return nil, errors.Errorf("random engine requires positive parallelism and chunk_size, got %d and %d",
				e.Parallelism, e.ChunkSize)
		}
		return e, nil
	}))
}

// New creates a random Engine reading and writing to the given storage.
func New(store storage.Storage) (*Engine, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd encoder")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, errors.Wrap(err, "failed to create zstd decoder")
	}
	return &Engine{
		store:       store,
		Parallelism: runtime.GOMAXPROCS(0),
		ChunkSize:   DefaultChunkSize,
		encoder:     encoder,
		decoder:     decoder,
	}, nil
}

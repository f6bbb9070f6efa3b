package random

import (
	"bytes"
	"context"
	"encoding/gob"
	"path/filepath"
	"time"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/shipname"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

const (
	metaExt = ".meta"
	dataExt = ".data"
)

// ModelMeta is the human-readable description of a model, stored as YAML in its marker (".meta") file.
type ModelMeta struct {
	Name        string    `yaml:"name"`
	Generation  int       `yaml:"generation"`
	Parent      string    `yaml:"parent,omitempty"`
	BoardSize   int       `yaml:"board_size"`
	Created     time.Time `yaml:"created"`
	NumExamples int       `yaml:"num_examples"`
	NumGames    int       `yaml:"num_games"`

	// FirstPlayerWinRate and MeanGameLength of the games trained on.
	FirstPlayerWinRate float32 `yaml:"first_player_win_rate"`
	MeanGameLength     float32 `yaml:"mean_game_length"`

	// ValueStdDev is the standard deviation of the value labels trained on.
	ValueStdDev float32 `yaml:"value_stddev"`
}

// Weights of a model: a probability for each point of the board.
type Weights struct {
	BoardSize int
	Prior     []float32
}

// newMeta creates the metadata for a model to be saved in path.
func newMeta(path string, boardSize int) ModelMeta {
	meta := ModelMeta{
		Name:      filepath.Base(path),
		BoardSize: boardSize,
		Created:   time.Now().UTC(),
	}
	if generation, err := shipname.DetectModelNum(path); err == nil {
		meta.Generation = generation
	}
	return meta
}

// uniformWeights returns the weights of the bootstrap model.
func uniformWeights(boardSize int) Weights {
	w := Weights{BoardSize: boardSize, Prior: make([]float32, boardSize*boardSize)}
	for ii := range w.Prior {
		w.Prior[ii] = 1 / float32(len(w.Prior))
	}
	return w
}

// saveModel writes the weights and then the marker file. It refuses to overwrite an existing model.
func (e *Engine) saveModel(ctx context.Context, path string, meta ModelMeta, w Weights) error {
	exists, err := e.store.Exists(ctx, path+metaExt)
	if err != nil {
		return err
	}
	if exists {
		return engine.Fatal(errors.Errorf("model %q already exists, refusing to overwrite it", path))
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return errors.Wrapf(err, "failed to encode weights of %q", path)
	}
	if err := e.store.WriteFile(ctx, path+dataExt, buf.Bytes()); err != nil {
		return err
	}
	metaBytes, err := yaml.Marshal(&meta)
	if err != nil {
		return errors.Wrapf(err, "failed to encode metadata of %q", path)
	}
	if err := e.store.WriteFile(ctx, path+metaExt, metaBytes); err != nil {
		return err
	}
	klog.V(1).Infof("Saved model %s (generation %d)", meta.Name, meta.Generation)
	return nil
}

// loadModel reads the metadata and weights of the model in path.
// Models that can't be decoded are reported as fatal errors.
func (e *Engine) loadModel(ctx context.Context, path string) (meta ModelMeta, w Weights, err error) {
	metaBytes, err := e.store.ReadFile(ctx, path+metaExt)
	if err != nil {
		return
	}
	if err = yaml.Unmarshal(metaBytes, &meta); err != nil {
		err = engine.Fatal(errors.Wrapf(err, "corrupt model metadata %q", path+metaExt))
		return
	}
	data, err := e.store.ReadFile(ctx, path+dataExt)
	if err != nil {
		return
	}
	if err = gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		err = engine.Fatal(errors.Wrapf(err, "corrupt model weights %q", path+dataExt))
		return
	}
	if w.BoardSize != meta.BoardSize || len(w.Prior) != w.BoardSize*w.BoardSize {
		err = engine.Fatal(errors.Errorf("corrupt model %q: board size %d, metadata board size %d, %d weights",
			path, w.BoardSize, meta.BoardSize, len(w.Prior)))
		return
	}
	return
}

// Bootstrap implements engine.Engine. It creates a model with a uniform prior.
func (e *Engine) Bootstrap(ctx context.Context, params engine.BootstrapParams) error {
	if params.BoardSize <= 0 || params.BoardSize > maxBoardSize {
		return engine.Fatal(errors.Errorf("random engine supports board sizes from 1 to %d, got %d",
			maxBoardSize, params.BoardSize))
	}
	return e.saveModel(ctx, params.SavePath, newMeta(params.SavePath, params.BoardSize), uniformWeights(params.BoardSize))
}

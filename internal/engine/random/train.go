package random

import (
	"context"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// priorBlend is the weight of the newly observed move frequencies when training the prior.
const priorBlend = float32(0.5)

// Train implements engine.Engine. The new prior is a blend of the parent's prior and the
// frequency of the moves played by the winners in the latest gathered chunks.
func (e *Engine) Train(ctx context.Context, params engine.TrainParams) error {
	parentMeta, parentWeights, err := e.loadModel(ctx, params.LoadPath)
	if err != nil {
		return errors.WithMessagef(err, "failed to load model to train from")
	}
	if parentWeights.BoardSize != params.BoardSize {
		return engine.Fatal(errors.Errorf("model %s is for board size %d, but board size %d was requested",
			parentMeta.Name, parentWeights.BoardSize, params.BoardSize))
	}
	chunks, err := e.latestChunks(ctx, params.ChunkDir)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return errors.Errorf("no training chunks found in %s", params.ChunkDir)
	}

	var examples []Example
	for _, path := range chunks {
		data, err := e.store.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		var chunk []Example
		if err := e.decode(data, &chunk); err != nil {
			return engine.Fatal(errors.WithMessagef(err, "corrupt training chunk %q", path))
		}
		examples = append(examples, chunk...)
	}

	n := params.BoardSize
	meta := newMeta(params.SavePath, n)
	meta.Generation = params.Generation
	meta.Parent = parentMeta.Name
	meta.NumExamples = len(examples)
	counts := make([]float32, n*n)
	var totalCount, valueSum, valueSumSq float32
	var firstPlayerWins int
	for _, example := range examples {
		if example.BoardSize != n || example.Move < 0 || example.Move >= n*n {
			return engine.Fatal(errors.Errorf("training chunk example for board size %d (move %d) incompatible "+
				"with board size %d", example.BoardSize, example.Move, n))
		}
		if example.Value > 0 {
			counts[example.Move]++
			totalCount++
		}
		valueSum += example.Value
		valueSumSq += example.Value * example.Value
		if example.MoveNumber == 0 {
			meta.NumGames++
			if example.Value > 0 {
				firstPlayerWins++
			}
		}
	}
	if meta.NumExamples > 0 {
		mean := valueSum / float32(meta.NumExamples)
		meta.ValueStdDev = math32.Sqrt(max(0, valueSumSq/float32(meta.NumExamples)-mean*mean))
	}
	if meta.NumGames > 0 {
		meta.FirstPlayerWinRate = float32(firstPlayerWins) / float32(meta.NumGames)
		meta.MeanGameLength = float32(meta.NumExamples) / float32(meta.NumGames)
	}

	weights := Weights{BoardSize: n, Prior: make([]float32, n*n)}
	for ii, parentPrior := range parentWeights.Prior {
		weights.Prior[ii] = parentPrior
		if totalCount > 0 {
			weights.Prior[ii] = (1-priorBlend)*parentPrior + priorBlend*counts[ii]/totalCount
		}
	}

	if params.LogDir != "" {
		logBytes, err := yaml.Marshal(&meta)
		if err != nil {
			return errors.Wrap(err, "failed to encode training log")
		}
		if err := e.store.WriteFile(ctx, filepath.Join(params.LogDir, meta.Name+".yaml"), logBytes); err != nil {
			return err
		}
	}
	klog.Infof("Trained %s from %s on %d positions of %d games", meta.Name, parentMeta.Name, meta.NumExamples, meta.NumGames)
	return e.saveModel(ctx, params.SavePath, meta, weights)
}

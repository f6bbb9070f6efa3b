package random

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// chunkPrefix of the training chunk file names: "chunk-<gathering timestamp>-<index>.zz".
const chunkPrefix = "chunk-"

// Gather implements engine.Engine. It reads the game records of all models, shuffles the
// positions, and writes them in chunks of at most ChunkSize examples.
// The inputs are never modified.
func (e *Engine) Gather(ctx context.Context, params engine.GatherParams) error {
	paths, err := e.store.Glob(ctx, filepath.Join(params.InputDir, "*", "*.zz"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		klog.Warningf("No game records found in %s, nothing to gather", params.InputDir)
		return nil
	}

	gamesPerFile := make([][]Game, len(paths))
	var g errgroup.Group
	g.SetLimit(e.Parallelism)
	for ii, path := range paths {
		g.Go(func() error {
			data, err := e.store.ReadFile(ctx, path)
			if err != nil {
				return err
			}
			if err := e.decode(data, &gamesPerFile[ii]); err != nil {
				return engine.Fatal(errors.WithMessagef(err, "corrupt game record %q", path))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var examples []Example
	var numGames int
	for _, games := range gamesPerFile {
		for ii := range games {
			examples = append(examples, games[ii].Examples()...)
			numGames++
		}
	}
	rand.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })

	stamp := time.Now().UTC().UnixNano()
	var numChunks int
	for start := 0; start < len(examples); start += e.ChunkSize {
		chunk := examples[start:min(start+e.ChunkSize, len(examples))]
		data, err := e.encode(chunk)
		if err != nil {
			return err
		}
		path := filepath.Join(params.OutputDir, fmt.Sprintf("%s%d-%04d.zz", chunkPrefix, stamp, numChunks))
		if err := e.store.WriteFile(ctx, path, data); err != nil {
			return err
		}
		numChunks++
	}
	klog.Infof("Gathered %d games (%d positions) from %d record files into %d chunks in %s",
		numGames, len(examples), len(paths), numChunks, params.OutputDir)
	return nil
}

// latestChunks returns the chunks written by the most recent Gather.
func (e *Engine) latestChunks(ctx context.Context, chunkDir string) ([]string, error) {
	paths, err := e.store.Glob(ctx, filepath.Join(chunkDir, chunkPrefix+"*.zz"))
	if err != nil {
		return nil, err
	}
	var latestStamp string
	var latest []string
	for _, path := range paths {
		stamp, _, found := strings.Cut(strings.TrimPrefix(filepath.Base(path), chunkPrefix), "-")
		if !found {
			continue
		}
		// Timestamps have the same number of digits, so they sort as strings.
		switch {
		case stamp > latestStamp:
			latestStamp = stamp
			latest = []string{path}
		case stamp == latestStamp:
			latest = append(latest, path)
		}
	}
	return latest, nil
}

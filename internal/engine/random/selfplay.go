package random

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// maxBoardSize supported: SGF coordinates are single letters.
const maxBoardSize = 25

// SelfPlay implements engine.Engine.
func (e *Engine) SelfPlay(ctx context.Context, params engine.SelfPlayParams) error {
	if params.Games <= 0 {
		return errors.Errorf("invalid number of games %d", params.Games)
	}
	meta, weights, err := e.loadModel(ctx, params.LoadPath)
	if err != nil {
		return errors.WithMessagef(err, "failed to load model for self-play")
	}
	if weights.BoardSize != params.BoardSize {
		return engine.Fatal(errors.Errorf("model %s is for board size %d, but board size %d was requested",
			meta.Name, weights.BoardSize, params.BoardSize))
	}

	games := make([]Game, params.Games)
	var g errgroup.Group
	g.SetLimit(e.Parallelism)
	for gameIdx := range params.Games {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rng := rand.New(rand.NewPCG(rand.Uint64(), uint64(gameIdx)))
			games[gameIdx] = playGame(rng, weights, params.Readouts, params.ResignThreshold)
			if klog.V(2).Enabled() {
				klog.Infof("%s: game %d finished in %d moves, winner %+d", meta.Name, gameIdx,
					len(games[gameIdx].Moves), games[gameIdx].Winner)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var blackWins int
	for start := 0; start < len(games); start += GamesPerFile {
		batch := games[start:min(start+GamesPerFile, len(games))]
		recordID := uuid.NewString()
		data, err := e.encode(batch)
		if err != nil {
			return err
		}
		if err := e.store.WriteFile(ctx, filepath.Join(params.OutputDir, recordID+".zz"), data); err != nil {
			return err
		}
		for ii := range batch {
			if batch[ii].Winner > 0 {
				blackWins++
			}
			sgfPath := filepath.Join(params.OutputSGFDir, fmt.Sprintf("%s-%d.sgf", recordID, ii))
			if err := e.store.WriteFile(ctx, sgfPath, []byte(batch[ii].SGF())); err != nil {
				return err
			}
		}
	}
	if params.Verbose >= 1 {
		klog.Infof("%s: played %d games (%d first player wins), records in %s",
			meta.Name, len(games), blackWins, params.OutputDir)
	}
	return nil
}

// playGame plays one game until the board is full or a player resigns.
//
// At each move up to readouts empty points are sampled, and the one with the highest prior
// (perturbed by noise) is played.
func playGame(rng *rand.Rand, weights Weights, readouts int, resignThreshold float64) Game {
	n := weights.BoardSize
	game := Game{BoardSize: n}
	board := make([]int8, n*n)
	empty := make([]int, n*n)
	for ii := range empty {
		empty[ii] = ii
	}
	color := int8(1)
	numCandidates := max(1, readouts)
	for len(empty) > 0 {
		bestPos, bestScore := -1, float32(math.Inf(-1))
		for range min(numCandidates, len(empty)) {
			pos := rng.IntN(len(empty))
			score := weights.Prior[empty[pos]] * (0.5 + rng.Float32())
			if score > bestScore {
				bestPos, bestScore = pos, score
			}
		}
		idx := empty[bestPos]
		if board[idx] != 0 {
			exceptions.Panicf("random engine: point %d already occupied", idx)
		}
		board[idx] = color
		empty[bestPos] = empty[len(empty)-1]
		empty = empty[:len(empty)-1]
		game.Moves = append(game.Moves, Point{Row: int8(idx / n), Col: int8(idx % n)})
		color = -color

		// The player to move resigns if its position looks hopeless.
		if value := positionValue(board, n, color); float64(-value) > resignThreshold && resignThreshold > 0 {
			game.Winner = -color
			game.Resigned = true
			return game
		}
	}
	if score(board, n) > 0 {
		game.Winner = 1
	} else {
		game.Winner = -1
	}
	return game
}

// score of a finished board from the first player (black) point of view: each stone with at least as many
// friendly as enemy orthogonal neighbours counts as one point, and white receives a 0.5 komi.
func score(board []int8, n int) float32 {
	total := float32(-0.5)
	for idx, stone := range board {
		if stone == 0 {
			continue
		}
		var friends, enemies int
		row, col := idx/n, idx%n
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r, c := row+d[0], col+d[1]
			if r < 0 || r >= n || c < 0 || c >= n {
				continue
			}
			switch board[r*n+c] {
			case stone:
				friends++
			case -stone:
				enemies++
			}
		}
		if friends >= enemies {
			total += float32(stone)
		}
	}
	return total
}

// positionValue estimates, in [-1, 1], how good the board is for the player of the given color.
func positionValue(board []int8, n int, color int8) float32 {
	return math32.Tanh(score(board, n) * float32(color) / float32(n))
}

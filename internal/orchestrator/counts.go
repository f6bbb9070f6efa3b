package orchestrator

import (
	"context"

	"github.com/janpfeifer/rlloop/internal/registry"
	"github.com/pkg/errors"
)

// DefaultGameCountModels is the default number of models reported by GameCounts.
const DefaultGameCountModels = 20

// GameCounts returns the number of self-play games of the n most recent models, latest first.
func (o *Orchestrator) GameCounts(ctx context.Context, n int) ([]registry.GameCount, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid number of models %d, it must be > 0", n)
	}
	counts, err := o.Registry.RecentModelGameCounts(ctx, n)
	if err != nil {
		return nil, errors.WithMessage(err, "game counts")
	}
	return counts, nil
}

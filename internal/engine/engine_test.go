package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/janpfeifer/rlloop/internal/parameters"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopEngine implements Engine doing nothing.
type nopEngine struct {
	name string
}

func (e *nopEngine) Bootstrap(context.Context, BootstrapParams) error { return nil }
func (e *nopEngine) SelfPlay(context.Context, SelfPlayParams) error   { return nil }
func (e *nopEngine) Gather(context.Context, GatherParams) error       { return nil }
func (e *nopEngine) Train(context.Context, TrainParams) error         { return nil }

func init() {
	RegisterModule("nop", ModuleFunc(func(params parameters.Params) (Engine, error) {
		name, err := parameters.PopParamOr(params, "name", "default")
		if err != nil {
			return nil, err
		}
		return &nopEngine{name: name}, nil
	}))
}

func TestNew(t *testing.T) {
	e, err := New("nop")
	require.NoError(t, err)
	assert.Equal(t, "default", e.(*nopEngine).name)

	e, err = New("nop:name=custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", e.(*nopEngine).name)

	_, err = New("nop:nmae=typo")
	assert.ErrorContains(t, err, "nmae")

	_, err = New("unknown:x=1")
	assert.ErrorContains(t, err, "unknown engine")
	assert.Contains(t, Modules(), "nop")
}

func TestFatal(t *testing.T) {
	assert.NoError(t, Fatal(nil))
	base := errors.New("binary not found")
	err := Fatal(base)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "binary not found", err.Error())

	// Still fatal after further wrapping.
	wrapped := errors.WithMessage(fmt.Errorf("train: %w", err), "generation 3")
	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsFatal(base))
	assert.False(t, IsFatal(errors.New("transient")))
}

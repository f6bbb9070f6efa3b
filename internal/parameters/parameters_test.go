package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigString(t *testing.T) {
	params := NewFromConfigString("bin=python3 main.py --flag=x,verbose,,timeout=10")
	assert.Equal(t, Params{"bin": "python3 main.py --flag=x", "verbose": "", "timeout": "10"}, params)
	assert.Empty(t, NewFromConfigString(""))
}

func TestPopParamOr(t *testing.T) {
	params := NewFromConfigString("n=19,ratio=0.5,fast,slow=false,name=x,bad=abc")

	n, err := PopParamOr(params, "n", 9)
	require.NoError(t, err)
	assert.Equal(t, 19, n)

	ratio, err := PopParamOr(params, "ratio", float32(1))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), ratio)

	fast, err := PopParamOr(params, "fast", false)
	require.NoError(t, err)
	assert.True(t, fast)

	slow, err := PopParamOr(params, "slow", true)
	require.NoError(t, err)
	assert.False(t, slow)

	name, err := PopParamOr(params, "name", "default")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	missing, err := PopParamOr(params, "missing", 3.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, missing)

	_, err = PopParamOr(params, "bad", 1)
	assert.Error(t, err)
	// Failed parsing doesn't consume the parameter.
	assert.Error(t, CheckAllConsumed(params, "test"))
	delete(params, "bad")
	assert.NoError(t, CheckAllConsumed(params, "test"))
}

package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"testing"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test: it is the fake engine program run by the other tests.
// It prints its arguments and exits with the status in $HELPER_EXIT_CODE.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	fmt.Println(strings.Join(args[1:], " "))
	if code := os.Getenv("HELPER_EXIT_CODE"); code != "" && code != "0" {
		fmt.Fprintln(os.Stderr, "something went wrong")
		os.Exit(3)
	}
	os.Exit(0)
}

// newHelperEngine returns an Engine that runs TestHelperProcess, and the buffer capturing its stdout.
func newHelperEngine(t *testing.T, fail bool) (*Engine, *bytes.Buffer) {
	e, err := New("fake-engine --flag")
	require.NoError(t, err)
	var stdout bytes.Buffer
	e.Stdout = &stdout
	e.Stderr = &bytes.Buffer{}
	e.CommandFactory = func(ctx context.Context, name string, args ...string) *osexec.Cmd {
		cmdArgs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := osexec.CommandContext(ctx, os.Args[0], cmdArgs...)
		exitCode := "0"
		if fail {
			exitCode = "3"
		}
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_EXIT_CODE="+exitCode)
		return cmd
	}
	return e, &stdout
}

func TestArguments(t *testing.T) {
	ctx := context.Background()
	e, stdout := newHelperEngine(t, false)

	require.NoError(t, e.Bootstrap(ctx, engine.BootstrapParams{SavePath: "models/000000-x", BoardSize: 9}))
	require.NoError(t, e.SelfPlay(ctx, engine.SelfPlayParams{
		LoadPath: "models/000000-x", OutputDir: "games/000000-x", OutputSGFDir: "sgf/000000-x",
		Readouts: 800, Games: 8, Verbose: 2, ResignThreshold: 0.99, BoardSize: 9}))
	require.NoError(t, e.Gather(ctx, engine.GatherParams{InputDir: "games", OutputDir: "data/training_chunks"}))
	require.NoError(t, e.Train(ctx, engine.TrainParams{
		ChunkDir: "data/training_chunks", LoadPath: "models/000000-x", SavePath: "models/000001-y",
		Generation: 1, BoardSize: 9}))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "fake-engine --flag bootstrap models/000000-x --n=9", lines[0])
	assert.Equal(t, "fake-engine --flag selfplay models/000000-x --output-dir=games/000000-x "+
		"--output-sgf=sgf/000000-x --readouts=800 --games=8 --verbose=2 --resign-threshold=0.99 --n=9", lines[1])
	assert.Equal(t, "fake-engine --flag gather --input-directory=games --output-directory=data/training_chunks", lines[2])
	assert.Equal(t, "fake-engine --flag train data/training_chunks models/000001-y --load-file=models/000000-x "+
		"--generation-num=1 --n=9", lines[3])
}

func TestFailures(t *testing.T) {
	ctx := context.Background()
	e, _ := newHelperEngine(t, true)
	err := e.Gather(ctx, engine.GatherParams{InputDir: "games", OutputDir: "chunks"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 3")
	assert.Contains(t, err.Error(), "something went wrong")
	assert.False(t, engine.IsFatal(err))

	// Program that doesn't exist: fatal.
	e, err = New("/nonexistent/rl-engine-binary")
	require.NoError(t, err)
	err = e.Gather(ctx, engine.GatherParams{InputDir: "games", OutputDir: "chunks"})
	require.Error(t, err)
	assert.True(t, engine.IsFatal(err))
}

func TestModule(t *testing.T) {
	e, err := engine.New("exec:bin=python3 main.py,dir=/tmp")
	require.NoError(t, err)
	execEngine := e.(*Engine)
	assert.Equal(t, []string{"python3", "main.py"}, execEngine.Bin)
	assert.Equal(t, "/tmp", execEngine.Dir)

	_, err = engine.New("exec")
	assert.Error(t, err)
}

func TestTailBuffer(t *testing.T) {
	tail := &tailBuffer{max: 5}
	_, _ = tail.Write([]byte("abc"))
	_, _ = tail.Write([]byte("defgh"))
	assert.Equal(t, "defgh", tail.String())
}

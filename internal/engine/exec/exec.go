// Package exec implements an engine.Engine that runs an external program for each operation.
//
// It is registered as the "exec" engine module, configured with the command line to run, e.g.:
//
//	--engine="exec:bin=python3 main.py"
//
// Each operation runs "<bin> <operation> <arguments...>", where operation is one of
// "bootstrap", "selfplay", "gather" or "train". A non-zero exit status is an error.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/janpfeifer/rlloop/internal/engine"
	"github.com/janpfeifer/rlloop/internal/parameters"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ModuleName used to select this engine.
const ModuleName = "exec"

// stderrTailSize is how much of the stderr of a failed command is included in the error.
const stderrTailSize = 2048

// CommandFactory builds the *exec.Cmd for the given program and arguments.
// Tests can inject a factory that invokes a helper process instead.
type CommandFactory func(ctx context.Context, name string, args ...string) *osexec.Cmd

// Engine runs an external program for each operation.
type Engine struct {
	// Bin is the program followed by any fixed arguments.
	Bin []string

	// Dir is the working directory of the program, if not empty.
	Dir string

	// Stdout and Stderr receive the program output. They default to os.Stdout and os.Stderr.
	Stdout, Stderr io.Writer

	// CommandFactory defaults to exec.CommandContext.
	CommandFactory CommandFactory
}

// Assert Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

func init() {
	engine.RegisterModule(ModuleName, engine.ModuleFunc(NewFromParams))
}

// NewFromParams creates an Engine from the parameters "bin" (required) and "dir" (optional).
func NewFromParams(params parameters.Params) (engine.Engine, error) {
	bin, _ := parameters.PopParamOr(params, "bin", "")
	dir, _ := parameters.PopParamOr(params, "dir", "")
	e, err := New(bin)
	if err != nil {
		return nil, err
	}
	e.Dir = dir
	return e, nil
}

// New creates an Engine for the given command line.
// The command line is split on white spaces, no quoting is supported.
func New(commandLine string) (*Engine, error) {
	bin := strings.Fields(commandLine)
	if len(bin) == 0 {
		return nil, errors.New("exec engine requires the program to run, e.g. \"exec:bin=python3 main.py\"")
	}
	return &Engine{Bin: bin}, nil
}

// Bootstrap implements engine.Engine.
func (e *Engine) Bootstrap(ctx context.Context, params engine.BootstrapParams) error {
	return e.run(ctx, "bootstrap",
		params.SavePath,
		fmt.Sprintf("--n=%d", params.BoardSize))
}

// SelfPlay implements engine.Engine.
func (e *Engine) SelfPlay(ctx context.Context, params engine.SelfPlayParams) error {
	return e.run(ctx, "selfplay",
		params.LoadPath,
		"--output-dir="+params.OutputDir,
		"--output-sgf="+params.OutputSGFDir,
		fmt.Sprintf("--readouts=%d", params.Readouts),
		fmt.Sprintf("--games=%d", params.Games),
		fmt.Sprintf("--verbose=%d", params.Verbose),
		fmt.Sprintf("--resign-threshold=%g", params.ResignThreshold),
		fmt.Sprintf("--n=%d", params.BoardSize))
}

// Gather implements engine.Engine.
func (e *Engine) Gather(ctx context.Context, params engine.GatherParams) error {
	return e.run(ctx, "gather",
		"--input-directory="+params.InputDir,
		"--output-directory="+params.OutputDir)
}

// Train implements engine.Engine.
func (e *Engine) Train(ctx context.Context, params engine.TrainParams) error {
	args := []string{
		params.ChunkDir,
		params.SavePath,
		"--load-file=" + params.LoadPath,
		fmt.Sprintf("--generation-num=%d", params.Generation),
		fmt.Sprintf("--n=%d", params.BoardSize),
	}
	if params.LogDir != "" {
		args = append(args, "--logdir="+params.LogDir)
	}
	return e.run(ctx, "train", args...)
}

// run the program for the given operation. Output is streamed to e.Stdout/e.Stderr, and the tail of
// stderr is kept to build the error message.
func (e *Engine) run(ctx context.Context, operation string, args ...string) error {
	factory := e.CommandFactory
	if factory == nil {
		factory = osexec.CommandContext
	}
	stdout, stderr := e.Stdout, e.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	fullArgs := append(append(append([]string(nil), e.Bin[1:]...), operation), args...)
	cmd := factory(ctx, e.Bin[0], fullArgs...)
	if e.Dir != "" {
		cmd.Dir = e.Dir
	}
	tail := &tailBuffer{max: stderrTailSize}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)
	klog.V(1).Infof("Running %s %q", e.Bin[0], fullArgs)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		klog.V(1).Infof("%s finished in %s", operation, elapsed)
		return nil
	}
	if ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), "%s interrupted after %s", operation, elapsed)
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Errorf("%s failed with exit code %d after %s: %s",
			operation, exitErr.ExitCode(), elapsed, strings.TrimSpace(tail.String()))
	}
	// The program could not be started at all (e.g. not found): retrying won't help.
	return engine.Fatal(errors.Wrapf(err, "failed to start %q for %s", e.Bin[0], operation))
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

// Write implements io.Writer.
func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if extra := t.buf.Len() - t.max; extra > 0 {
		t.buf.Next(extra)
	}
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }

// rl-loop orchestrates the reinforcement learning of a game playing model:
//
//  1. bootstrap: create a random generation 0 model.
//  2. selfplay: play games with the latest model; typically many of these run in parallel,
//     on other machines.
//  3. loop: repeatedly gather the self-play games into training chunks, and train the next
//     generation model from the latest one.
//
// The configuration comes from the environment (BUCKET_NAME, BOARD_SIZE, STORAGE_ROOT), optionally
// from a YAML file pointed by RLLOOP_CONFIG. The actual work is delegated to an engine, selected
// with --engine. See --help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/janpfeifer/must"
	"github.com/janpfeifer/rlloop/internal/config"
	"github.com/janpfeifer/rlloop/internal/engine"
	_ "github.com/janpfeifer/rlloop/internal/engine/exec"
	_ "github.com/janpfeifer/rlloop/internal/engine/random"
	"github.com/janpfeifer/rlloop/internal/orchestrator"
	"github.com/janpfeifer/rlloop/internal/profilers"
	"github.com/janpfeifer/rlloop/internal/storage"
	"github.com/janpfeifer/rlloop/internal/tracing"
	"github.com/janpfeifer/rlloop/internal/ui/spinning"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// Flags
var (
	flagEngine string
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled on interrupt (Ctrl+C) or when the program exits.
	globalCtx = context.Background()

	// orch is created before any command runs, see setup.
	orch *orchestrator.Orchestrator

	// exitCode of the program, if the command didn't return an error.
	exitCode int

	shutdownTracing = func(context.Context) error { return nil }
)

func main() {
	klog.InitFlags(nil)

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)

	err := newRootCmd().ExecuteContext(globalCtx)
	cleanup()
	globalCancel()
	if err != nil {
		klog.Errorf("%+v", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	klog.Flush()
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rl-loop",
		Short: "Orchestrates self-play, gathering and training of game playing models",
		Long: "rl-loop orchestrates self-play, gathering and training of game playing models.\n\n" +
			"It is configured with the environment variables BUCKET_NAME and BOARD_SIZE (required), " +
			"STORAGE_ROOT (default \".\") and the optional YAML config file in " + config.FileEnvVar + ".",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", engine.DefaultConfig,
		fmt.Sprintf("Engine configuration, as \"<module>:<key>=<value>,...\". Registered modules: %s. "+
			"E.g.: \"exec:bin=python3 main.py\"", strings.Join(engine.Modules(), ", ")))
	// Profilers and klog flags.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(
		newBootstrapCmd(),
		newSelfPlayCmd(),
		newGatherCmd(),
		newTrainCmd(),
		newLoopCmd(),
		newGameCountsCmd(),
		newFlagsCmd(),
	)
	return rootCmd
}

// setup loads the configuration, creates the engine and starts profiling and tracing.
// Configuration errors are fatal.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		klog.Exitf("Invalid configuration: %v", err)
	}
	for _, kv := range cfg.Flags() {
		klog.V(1).Infof("%s=%s", kv[0], kv[1])
	}
	klog.V(1).Infof("engine=%s", flagEngine)
	eng, err := engine.New(flagEngine)
	if err != nil {
		klog.Exitf("Failed to create engine from --engine=%q: %+v", flagEngine, err)
	}
	orch = orchestrator.New(cfg, storage.Local{}, eng)

	profilers.Setup(globalCtx)
	shutdownTracing = must.M1(tracing.Setup(cmd.Context()))
	return nil
}

// cleanup flushes the traces and stops the profilers. It is called before exit.
func cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		klog.Warningf("Failed to flush traces: %v", err)
	}
	if orch != nil {
		profilers.OnQuit()
	}
}

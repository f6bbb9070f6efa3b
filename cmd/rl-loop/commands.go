package main

import (
	"fmt"
	"strconv"

	"github.com/janpfeifer/rlloop/internal/orchestrator"
	"github.com/janpfeifer/rlloop/internal/ui/spinning"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the generation 0 model, with random weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := orch.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Bootstrapped model %s\n", highlight(id.String()))
			return nil
		},
	}
}

func newSelfPlayCmd() *cobra.Command {
	opts := orchestrator.DefaultSelfPlayOptions()
	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Play a batch of games with the latest model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spinner := spinning.New(cmd.Context())
			id, err := orch.SelfPlay(cmd.Context(), opts)
			spinner.Done()
			if err != nil {
				return err
			}
			fmt.Printf("Played %d games with %s\n", opts.Games, highlight(id.String()))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.Readouts, "readouts", opts.Readouts, "Number of search readouts per move.")
	flags.IntVar(&opts.Games, "games", opts.Games, "Number of games to play.")
	flags.IntVar(&opts.Verbose, "verbose", opts.Verbose, "Verbosity level of the engine.")
	flags.Float64Var(&opts.ResignThreshold, "resign_threshold", opts.ResignThreshold,
		"Absolute value of the position evaluation at which a player resigns.")
	return cmd
}

func newGatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gather",
		Short: "Consolidate the self-play games into training chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spinner := spinning.New(cmd.Context())
			defer spinner.Done()
			return orch.Gather(cmd.Context())
		},
	}
}

func newTrainCmd() *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the next generation model from the latest one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spinner := spinning.New(cmd.Context())
			result := orch.Train(cmd.Context(), logDir)
			spinner.Done()
			switch result.Status {
			case orchestrator.TrainSuccess:
				fmt.Printf("Trained model %s from %s\n", highlight(result.Model.String()), result.From)
				return nil
			case orchestrator.TrainFatal:
				exitCode = orchestrator.StopFatalTraining.ExitCode()
			}
			return result.Err
		},
	}
	cmd.Flags().StringVar(&logDir, "logdir", "", "Directory where the engine writes training logs.")
	return cmd
}

func newLoopCmd() *cobra.Command {
	var loopCfg orchestrator.LoopConfig
	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Repeatedly gather the self-play games and train a new model",
		Long: "Repeatedly gather the self-play games and train a new model, until interrupted.\n\n" +
			"Exit status is 1 if gathering fails too many consecutive times, and 2 if training can't continue.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loopCfg.NumIterations <= 0 {
				fmt.Println("Training indefinitely (use --num_iterations to limit it):")
				fmt.Println("\t- Each new model is saved as it is trained, you can simply interrupt (Control+C) when you want to stop.")
			}
			summary := orch.Loop(cmd.Context(), loopCfg)
			printLoopSummary(summary)
			exitCode = summary.StopReason.ExitCode()
			return nil
		},
	}
	cmd.Flags().StringVar(&loopCfg.LogDir, "logdir", "", "Directory where the engine writes training logs.")
	cmd.Flags().IntVar(&loopCfg.NumIterations, "num_iterations", 0,
		"Number of iterations of gather and train. A value of <= 0 means to train indefinitely, until interrupted.")
	cmd.Flags().IntVar(&loopCfg.MaxGatherFailures, "max_gather_failures", orchestrator.DefaultMaxGatherFailures,
		"Number of consecutive gather failures after which the loop stops.")
	return cmd
}

func newGameCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "game_counts [n]",
		Short: "Print the number of self-play games of the n most recent models",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := orchestrator.DefaultGameCountModels
			if len(args) == 1 {
				var err error
				n, err = strconv.Atoi(args[0])
				if err != nil {
					return errors.Wrapf(err, "invalid number of models %q", args[0])
				}
			}
			counts, err := orch.GameCounts(cmd.Context(), n)
			if err != nil {
				return err
			}
			printGameCounts(counts)
			return nil
		},
	}
}

func newFlagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "Print the configuration and the computed paths",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			printFlags(append(orch.Config.Flags(), [2]string{"ENGINE", flagEngine}))
		},
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/zeu5/flappy-rl/analysis"
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/policies"
	"github.com/zeu5/flappy-rl/replay"
	"github.com/zeu5/flappy-rl/storage"
	"github.com/zeu5/flappy-rl/util"
)

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <recording.jsonl>",
		Short: "Train the agent on recorded gameplay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, args[0], true)
		},
	}
	return cmd
}

func EvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <recording.jsonl>",
		Short: "Run the trained agent without updating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, args[0], false)
		},
	}
	return cmd
}

func runAgent(cmd *cobra.Command, recording string, train bool) error {
	name := "eval"
	if train {
		name = "train"
	}
	if err := flags.Record(); err != nil {
		return fmt.Errorf("error recording config: %w", err)
	}

	env, err := replay.Open(recording)
	if err != nil {
		return err
	}
	defer env.Close()

	store := storage.NewFileStore(flags.TablePath, flags.ProgressPath)
	agent := policies.NewQLearningAgent(flags.Params(), store, train)
	if err := agent.LoadState(); err != nil {
		return err
	}

	exp := core.NewExperiment(name, env, agent)
	scores := analysis.NewScoreAnalyzer(flags.ScoreWindow)
	coverage := analysis.NewCoverageAnalyzer()
	exp.AddAnalysis("scores", scores)
	exp.AddAnalysis("coverage", coverage)
	exp.AddAnalysis("errors", analysis.NewErrorAnalyzer(flags.SavePath))
	if flags.Debug {
		exp.AddAnalysis("traces", analysis.NewTraceAnalyzer(flags.SavePath, flags.DebugAfter))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()

	printer := util.NewTerminalPrinter(flags.RefreshInterval)
	out := printer.NewOutput()
	printer.Start(ctx)
	result := exp.Run(ctx, &core.RunConfig{
		Episodes:                   flags.Episodes,
		Horizon:                    flags.Horizon,
		CheckpointEvery:            flags.CheckpointEvery,
		ThresholdConsecutiveErrors: flags.MaxConsecutiveErrors,
	}, out)
	printer.Stop()
	close(doneCh)

	if err := analysis.SaveDatasets(path.Join(flags.SavePath, name), result.Datasets); err != nil {
		glog.Warningf("error saving datasets: %v", err)
	}

	fmt.Fprintf(
		cmd.OutOrStdout(),
		"%s: %d episodes (%d failed), mean score %.2f over the last %d, max score %.0f, alpha %.5f, %d states, %d states visited\n",
		name, result.CompletedEpisodes, result.ErrorEpisodes, scores.Mean(), flags.ScoreWindow,
		agent.MaxScore(), agent.Alpha(), agent.Table().Size(), coverage.UniqueStates(),
	)

	if errors.Is(result.Error, context.Canceled) {
		glog.Info("interrupted, state persisted")
		return nil
	}
	return result.Error
}

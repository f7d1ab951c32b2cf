package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/flappy-rl/analysis"
	"github.com/zeu5/flappy-rl/storage"
)

func StatsCommand() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the persisted value table and training progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewFileStore(flags.TablePath, flags.ProgressPath)
			w := cmd.OutOrStdout()

			table, ok, err := store.LoadValueTable()
			if err != nil {
				return err
			}
			if ok {
				s := table.Stats()
				fmt.Fprintf(w, "Value table: %d states, %d visited, %d visits\n", s.States, s.Visited, s.Visits)
				for _, k := range table.MostVisited(top) {
					e := table.MustGet(k)
					fmt.Fprintf(w, "  %s: visits %d, noop %.2f, flap %.2f\n", k, e.Visits, e.Q[0], e.Q[1])
				}
			} else {
				fmt.Fprintf(w, "Value table: none at %s\n", flags.TablePath)
			}

			progress, ok, err := store.LoadProgress()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(w, "Progress: none at %s\n", flags.ProgressPath)
				return nil
			}
			sum := analysis.SummarizeScores(progress.Scores)
			fmt.Fprintf(w, "Progress: %d episodes, alpha %.5f\n", progress.Episodes, flags.Params().ScheduledAlpha(progress.Episodes))
			fmt.Fprintf(
				w,
				"Scores: mean %.2f, std-dev %.2f, median %.0f, p90 %.0f, max %.0f\n",
				sum.Mean, sum.StdDev, sum.Median, sum.P90, sum.Max,
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "List the n most visited states")
	return cmd
}

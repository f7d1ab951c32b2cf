package cmd

import (
	goflag "flag"

	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "flappy-rl",
		Short:        "Tabular Q-learning agent for the flappy obstacle game",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return UpdateFlags(cmd)
		},
	}
	AddFlags(cmd)
	// glog registers its flags on the standard flag set
	cmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	cmd.AddCommand(
		TrainCommand(),
		EvalCommand(),
		StatsCommand(),
		MergeCommand(),
	)

	return cmd
}

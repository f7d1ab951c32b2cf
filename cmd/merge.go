package cmd

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/storage"
)

func MergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <out.json> <table.json>...",
		Short: "Merge value tables trained by independent agents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := core.NewValueTable()
			for _, p := range args[1:] {
				table, ok, err := storage.NewFileStore(p, "").LoadValueTable()
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no value table at %s", p)
				}
				glog.Infof("merging %s with %d states", p, table.Size())
				merged.Merge(table)
			}
			if err := storage.NewFileStore(args[0], "").SaveValueTable(merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d tables into %s: %d states\n", len(args)-1, args[0], merged.Size())
			return nil
		},
	}
	return cmd
}

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/flappy-rl/common"
)

var (
	flags        *common.Flags = common.DefaultFlags()
	configPath   string
	savePath     string
	tablePath    string
	progressPath string

	episodes             int
	horizon              int
	checkpointEvery      int
	maxConsecutiveErrors int

	alpha          float64
	alphaDecay     float64
	alphaFloor     float64
	discount       float64
	flushThreshold int

	debug           bool
	debugAfter      int
	scoreWindow     int
	refreshInterval time.Duration
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with flag values, explicit flags take precedence")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().StringVar(&tablePath, "table", flags.TablePath, "Value table file")
	cmd.PersistentFlags().StringVar(&progressPath, "progress", flags.ProgressPath, "Training progress file")

	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of episodes, 0 plays the whole recording")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", flags.Horizon, "Maximum ticks per episode, 0 for no limit")
	cmd.PersistentFlags().IntVar(&checkpointEvery, "checkpoint-every", flags.CheckpointEvery, "Persist the agent every n episodes, 0 only at the end")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive errors")

	cmd.PersistentFlags().Float64Var(&alpha, "alpha", flags.Alpha, "Initial learning rate")
	cmd.PersistentFlags().Float64Var(&alphaDecay, "alpha-decay", flags.AlphaDecay, "Learning rate decay per episode")
	cmd.PersistentFlags().Float64Var(&alphaFloor, "alpha-floor", flags.AlphaFloor, "Minimum learning rate")
	cmd.PersistentFlags().Float64Var(&discount, "discount", flags.Discount, "Discount factor")
	cmd.PersistentFlags().IntVar(&flushThreshold, "flush-threshold", flags.FlushThreshold, "Trajectory length that triggers a partial update")

	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Write episode traces")
	cmd.PersistentFlags().IntVar(&debugAfter, "debug-after", flags.DebugAfter, "First episode to write a trace for")
	cmd.PersistentFlags().IntVar(&scoreWindow, "score-window", flags.ScoreWindow, "Episodes in the running score mean")
	cmd.PersistentFlags().DurationVar(&refreshInterval, "refresh", flags.RefreshInterval, "Terminal refresh interval")
}

// UpdateFlags builds the configuration: defaults, then the config file,
// then the flags given on the command line.
func UpdateFlags(cmd *cobra.Command) error {
	if configPath != "" {
		if err := flags.LoadYAML(configPath); err != nil {
			return err
		}
	}
	set := func(name string, apply func()) {
		if configPath == "" || cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("save-path", func() { flags.SavePath = savePath })
	set("table", func() { flags.TablePath = tablePath })
	set("progress", func() { flags.ProgressPath = progressPath })

	set("episodes", func() { flags.Episodes = episodes })
	set("horizon", func() { flags.Horizon = horizon })
	set("checkpoint-every", func() { flags.CheckpointEvery = checkpointEvery })
	set("max-consecutive-errors", func() { flags.MaxConsecutiveErrors = maxConsecutiveErrors })

	set("alpha", func() { flags.Alpha = alpha })
	set("alpha-decay", func() { flags.AlphaDecay = alphaDecay })
	set("alpha-floor", func() { flags.AlphaFloor = alphaFloor })
	set("discount", func() { flags.Discount = discount })
	set("flush-threshold", func() { flags.FlushThreshold = flushThreshold })

	set("debug", func() { flags.Debug = debug })
	set("debug-after", func() { flags.DebugAfter = debugAfter })
	set("score-window", func() { flags.ScoreWindow = scoreWindow })
	set("refresh", func() { flags.RefreshInterval = refreshInterval })

	return flags.Validate()
}

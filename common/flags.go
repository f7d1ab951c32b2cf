package common

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/zeu5/flappy-rl/policies"
	"github.com/zeu5/flappy-rl/util"
	"gopkg.in/yaml.v3"
)

type Flags struct {
	SavePath     string `yaml:"save_path" json:"save_path"`
	TablePath    string `yaml:"table_path" json:"table_path"`
	ProgressPath string `yaml:"progress_path" json:"progress_path"`

	RunFlags   `yaml:",inline"`
	AgentFlags `yaml:",inline"`

	Debug           bool          `yaml:"debug" json:"debug"`
	DebugAfter      int           `yaml:"debug_after" json:"debug_after"`
	ScoreWindow     int           `yaml:"score_window" json:"score_window"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
}

type RunFlags struct {
	Episodes             int `yaml:"episodes" json:"episodes"`
	Horizon              int `yaml:"horizon" json:"horizon"`
	CheckpointEvery      int `yaml:"checkpoint_every" json:"checkpoint_every"`
	MaxConsecutiveErrors int `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
}

type AgentFlags struct {
	Alpha          float64 `yaml:"alpha" json:"alpha"`
	AlphaDecay     float64 `yaml:"alpha_decay" json:"alpha_decay"`
	AlphaFloor     float64 `yaml:"alpha_floor" json:"alpha_floor"`
	Discount       float64 `yaml:"discount" json:"discount"`
	FlushThreshold int     `yaml:"flush_threshold" json:"flush_threshold"`
}

func DefaultFlags() *Flags {
	params := policies.DefaultParams()
	return &Flags{
		SavePath:     "results",
		TablePath:    path.Join("data", "q_values_resume.json"),
		ProgressPath: path.Join("data", "training_values_resume.json"),
		RunFlags: RunFlags{
			Episodes:             0,
			Horizon:              0,
			CheckpointEvery:      1000,
			MaxConsecutiveErrors: 20,
		},
		AgentFlags: AgentFlags{
			Alpha:          params.Alpha,
			AlphaDecay:     params.AlphaDecay,
			AlphaFloor:     params.AlphaFloor,
			Discount:       params.Discount,
			FlushThreshold: params.FlushThreshold,
		},
		Debug:           false,
		DebugAfter:      0,
		ScoreWindow:     100,
		RefreshInterval: 500 * time.Millisecond,
	}
}

// LoadYAML overlays the values present in the YAML file at p.
func (f *Flags) LoadYAML(p string) error {
	bs, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}
	if err := yaml.Unmarshal(bs, f); err != nil {
		return fmt.Errorf("error parsing config %s: %w", p, err)
	}
	return nil
}

// Params are the agent hyper-parameters with the configured overrides.
func (f *Flags) Params() policies.Params {
	params := policies.DefaultParams()
	params.Alpha = f.Alpha
	params.AlphaDecay = f.AlphaDecay
	params.AlphaFloor = f.AlphaFloor
	params.Discount = f.Discount
	params.FlushThreshold = f.FlushThreshold
	return params
}

func (f *Flags) Validate() error {
	if f.TablePath == "" || f.ProgressPath == "" {
		return errors.New("table and progress paths are required")
	}
	if f.Episodes < 0 || f.Horizon < 0 || f.CheckpointEvery < 0 {
		return errors.New("episodes, horizon and checkpoint interval cannot be negative")
	}
	if f.MaxConsecutiveErrors <= 0 {
		return errors.New("max consecutive errors must be positive")
	}
	if f.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	return f.Params().Validate()
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}

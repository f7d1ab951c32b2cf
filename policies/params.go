package policies

import (
	"errors"
	"math"
)

// Params are the hyper-parameters of the agent. The trained table only
// makes sense together with the rewards and the discount it was trained
// with.
type Params struct {
	Discount   float64
	Alpha      float64
	AlphaDecay float64
	AlphaFloor float64

	StepReward  float64
	DeathReward float64
	// a terminal state whose Y0 exceeds this is a death from flying too high
	HighDeathThreshold int
	// trajectories longer than this are partially learned mid-episode
	FlushThreshold int
}

func DefaultParams() Params {
	return Params{
		Discount:           0.95,
		Alpha:              0.7,
		AlphaDecay:         0.00003,
		AlphaFloor:         0.1,
		StepReward:         0,
		DeathReward:        -1000,
		HighDeathThreshold: 120,
		FlushThreshold:     1000000,
	}
}

func (p Params) Validate() error {
	if p.Discount < 0 || p.Discount > 1 {
		return errors.New("discount must be in [0, 1]")
	}
	if p.Alpha <= 0 || p.Alpha > 1 {
		return errors.New("alpha must be in (0, 1]")
	}
	if p.AlphaFloor < 0 || p.AlphaFloor > p.Alpha {
		return errors.New("alpha floor must be in [0, alpha]")
	}
	if p.AlphaDecay < 0 {
		return errors.New("alpha decay cannot be negative")
	}
	if p.FlushThreshold <= 0 {
		return errors.New("flush threshold must be positive")
	}
	return nil
}

// ScheduledAlpha is the learning rate after the given number of
// episodes, so resuming a run lands on the same schedule.
func (p Params) ScheduledAlpha(episodes int) float64 {
	return math.Max(p.Alpha-p.AlphaDecay*float64(episodes), p.AlphaFloor)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
)

var (
	ErrTooManyErrors = errors.New("too many errors")
)

type ExperimentResult struct {
	CompletedEpisodes int
	TruncatedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TotalTimeSteps    int
	Checkpoints       int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// Run plays episodes until the configured count is reached, the
// environment is exhausted or ctx is cancelled. Progress lines are
// written to out. The agent is persisted every CheckpointEvery episodes
// and once more when the run ends.
func (e *Experiment) Run(ctx context.Context, rConfig *RunConfig, out io.Writer) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	for _, a := range e.Analyzers {
		a.Reset()
	}

	consecutiveErrors := 0
EpisodeLoop:
	for episode := 0; rConfig.Episodes <= 0 || episode < rConfig.Episodes; episode++ {
		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			break EpisodeLoop
		default:
		}

		obs, err := e.Environment.Reset()
		if errors.Is(err, ErrExhausted) {
			break EpisodeLoop
		}

		eCtx := NewEpisodeContext(ctx)
		eCtx.Episode = episode
		eCtx.StartTimeStep = result.TotalTimeSteps
		terminal := false
		if err == nil {
			terminal, err = e.playEpisode(eCtx, rConfig, obs)
		}

		if err != nil && ctx.Err() != nil {
			// interrupted, not a failed episode
			e.Agent.AbortEpisode()
			result.Error = ctx.Err()
			break EpisodeLoop
		}
		if err != nil {
			eCtx.Error(err)
			e.Agent.AbortEpisode()
			result.ErrorEpisodes++
			glog.V(1).Infof("experiment %s: episode %d failed: %v", e.Name, episode, err)
			if consecutiveErrors++; rConfig.ThresholdConsecutiveErrors > 0 && consecutiveErrors >= rConfig.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
			}
		} else {
			consecutiveErrors = 0
			if terminal {
				e.Agent.EndEpisode(eCtx.Score)
			} else {
				e.Agent.TruncateEpisode(eCtx.Score)
				result.TruncatedEpisodes++
			}
			result.CompletedEpisodes++
			result.TotalTimeSteps += eCtx.Log.Len()
		}
		result.TotalEpisodes++

		for _, a := range e.Analyzers {
			a.Analyze(eCtx)
		}

		fmt.Fprintf(
			out,
			"Experiment: %s, Episode: %d, Score: %.0f, Timesteps: %d, Completed: %d, Errors: %d\n",
			e.Name, episode, eCtx.Score, result.TotalTimeSteps, result.CompletedEpisodes, result.ErrorEpisodes,
		)

		if result.Error != nil {
			break EpisodeLoop
		}
		if err == nil && rConfig.CheckpointEvery > 0 && result.CompletedEpisodes%rConfig.CheckpointEvery == 0 {
			if err := e.Agent.PersistState(); err != nil {
				result.Error = fmt.Errorf("checkpoint: %w", err)
				break EpisodeLoop
			}
			result.Checkpoints++
		}
	}

	if err := e.Agent.PersistState(); err != nil && result.Error == nil {
		result.Error = fmt.Errorf("persist: %w", err)
	}
	if result.Error != nil {
		fmt.Fprintf(out, "Experiment: %s, Error: %v\n", e.Name, result.Error)
	}

	for name, a := range e.Analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

// playEpisode runs one episode until the game ends it or the horizon
// is reached. terminal is false when the horizon cut the episode short.
func (e *Experiment) playEpisode(eCtx *EpisodeContext, rConfig *RunConfig, obs *Observation) (terminal bool, err error) {
	for step := 0; rConfig.Horizon <= 0 || step < rConfig.Horizon; step++ {
		eCtx.Score = obs.Score
		if obs.Done {
			return true, nil
		}
		select {
		case <-eCtx.Context.Done():
			return false, eCtx.Context.Err()
		default:
		}

		action, err := e.Agent.ChooseAction(obs)
		if err != nil {
			return false, err
		}
		eCtx.Log.Add(&Frame{Observation: obs, Action: action})

		next, err := e.Environment.Step(action, &StepContext{Step: step, EpisodeContext: eCtx})
		if err != nil {
			return false, err
		}
		obs = next
	}
	eCtx.Score = obs.Score
	return obs.Done, nil
}

package policies

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/storage"
)

// the most recent transitions always receive the death penalty
const deathWindow = 2

// QLearningAgent learns a flap / no-op policy with tabular Q-learning.
// Actions are always greedy. In training mode the transitions of the
// running episode are buffered and learned backwards when the episode
// ends. An agent is not safe for concurrent use; run one agent per
// goroutine, each with its own table.
type QLearningAgent struct {
	params Params
	train  bool
	store  storage.Store

	table    *core.ValueTable
	trace    *core.Trace
	progress *core.Progress
	alpha    float64

	prevState  core.StateKey
	prevAction core.Action
}

var _ core.Agent = &QLearningAgent{}

func NewQLearningAgent(params Params, store storage.Store, train bool) *QLearningAgent {
	a := &QLearningAgent{
		params:     params,
		train:      train,
		store:      store,
		table:      core.NewValueTable(),
		trace:      core.NewTrace(),
		progress:   core.NewProgress(),
		alpha:      params.Alpha,
		prevState:  core.OriginState,
		prevAction: core.NoOp,
	}
	a.table.Ensure(a.prevState)
	return a
}

// LoadState restores the table and, when training, the progress record.
// Missing state falls back to an empty table and a fresh schedule.
func (a *QLearningAgent) LoadState() error {
	glog.Info("loading value table")
	table, ok, err := a.store.LoadValueTable()
	if err != nil {
		return fmt.Errorf("load value table: %w", err)
	}
	if !ok {
		glog.Warning("no value table found, starting with an empty one")
		table = core.NewValueTable()
	}
	a.table = table
	a.table.Ensure(a.prevState)

	if !a.train {
		return nil
	}
	glog.Info("loading training progress")
	progress, ok, err := a.store.LoadProgress()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if ok {
		a.progress = progress
		a.alpha = a.params.ScheduledAlpha(progress.Episodes)
		glog.Infof("resuming at episode %d, alpha %.5f, max score %.0f", progress.Episodes, a.alpha, progress.MaxScore)
	}
	return nil
}

// PersistState saves the table and the progress record. Evaluation
// never writes.
func (a *QLearningAgent) PersistState() error {
	if !a.train {
		return nil
	}
	glog.Infof("saving value table with %d states", a.table.Size())
	if err := a.store.SaveValueTable(a.table); err != nil {
		return fmt.Errorf("save value table: %w", err)
	}
	glog.Infof("saving training progress with %d episodes", a.progress.Episodes)
	if err := a.store.SaveProgress(a.progress); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Observe encodes the observation and makes sure the table has an entry
// for the resulting state.
func (a *QLearningAgent) Observe(obs *core.Observation) (core.StateKey, error) {
	state, err := Encode(obs)
	if err != nil {
		return state, err
	}
	a.table.Ensure(state)
	return state, nil
}

func (a *QLearningAgent) ChooseAction(obs *core.Observation) (core.Action, error) {
	state, err := a.Observe(obs)
	if err != nil {
		return core.NoOp, err
	}
	if a.train {
		a.trace.AddStep(core.Transition{
			State:     a.prevState,
			Action:    a.prevAction,
			NextState: state,
		})
		a.flush()
		a.prevState = state
	}
	a.prevAction = a.SelectAction(state)
	return a.prevAction, nil
}

// SelectAction is the greedy action for the state, NoOp on ties.
func (a *QLearningAgent) SelectAction(state core.StateKey) core.Action {
	return a.table.Ensure(state).Greedy()
}

// EndEpisode records the score and, when training, learns from the
// buffered trajectory and decays the learning rate. The episode is
// assumed to have ended with the bird dying.
func (a *QLearningAgent) EndEpisode(score float64) {
	a.finishEpisode(score, a.learn)
}

// TruncateEpisode ends an episode cut short while the bird was still
// alive. The trajectory is learned with the step reward only.
func (a *QLearningAgent) TruncateEpisode(score float64) {
	a.finishEpisode(score, func() {
		a.learnSteps(a.trace.Head(a.trace.Len()), true)
	})
}

func (a *QLearningAgent) finishEpisode(score float64, learn func()) {
	a.progress.Record(score)
	if !a.train {
		return
	}
	learn()
	if a.alpha > a.params.AlphaFloor {
		a.alpha = math.Max(a.alpha-a.params.AlphaDecay, a.params.AlphaFloor)
	}
	a.trace.Clear()
	glog.V(1).Infof("episode %d: score %.0f, alpha %.5f, states %d", a.progress.Episodes, score, a.alpha, a.table.Size())
}

// AbortEpisode drops the buffered trajectory without learning from it.
func (a *QLearningAgent) AbortEpisode() {
	a.trace.Clear()
}

// learn replays the trajectory from the most recent transition backwards.
// The last deathWindow transitions get the death penalty. Before them,
// the most recent flap is penalized as well, once per episode: it is
// assumed to have caused the death, always when the bird died high.
func (a *QLearningAgent) learn() {
	n := a.trace.Len()
	if n == 0 {
		return
	}
	highDeath := a.trace.Last().NextState.Y0 > a.params.HighDeathThreshold
	lastFlap := true

	for i := n - 1; i >= 0; i-- {
		t := a.trace.Step(i)
		rank := n - i
		a.table.MustGet(t.State).Visits++

		reward := a.params.StepReward
		if rank <= deathWindow {
			reward = a.params.DeathReward
			if t.Action == core.Flap {
				lastFlap = false
			}
		} else if (lastFlap || highDeath) && t.Action == core.Flap {
			reward = a.params.DeathReward
			lastFlap = false
			highDeath = false
		}
		a.update(t, reward)
	}
}

// flush learns the oldest part of an overlong trajectory with the step
// reward only and drops it from the buffer. Neither the episode count nor
// the visit counts are touched.
func (a *QLearningAgent) flush() {
	if a.trace.Len() <= a.params.FlushThreshold {
		return
	}
	a.learnSteps(a.trace.Head(a.params.FlushThreshold), false)
	a.trace.Drop(a.params.FlushThreshold)
	glog.V(1).Infof("flushed %d transitions of a running episode", a.params.FlushThreshold)
}

// learnSteps replays transitions newest first with the step reward.
func (a *QLearningAgent) learnSteps(steps []core.Transition, visit bool) {
	for i := len(steps) - 1; i >= 0; i-- {
		if visit {
			a.table.MustGet(steps[i].State).Visits++
		}
		a.update(steps[i], a.params.StepReward)
	}
}

// update is the one step Q-learning rule
// Q(s,a) = (1-alpha) Q(s,a) + alpha (r + discount max Q(s',.)).
func (a *QLearningAgent) update(t core.Transition, reward float64) {
	e := a.table.MustGet(t.State)
	next := a.table.MustGet(t.NextState)
	e.Q[t.Action] = (1-a.alpha)*e.Q[t.Action] + a.alpha*(reward+a.params.Discount*next.Best())
}

func (a *QLearningAgent) Alpha() float64 {
	return a.alpha
}

func (a *QLearningAgent) Episodes() int {
	return a.progress.Episodes
}

func (a *QLearningAgent) MaxScore() float64 {
	return a.progress.MaxScore
}

func (a *QLearningAgent) Scores() []float64 {
	return a.progress.Scores
}

func (a *QLearningAgent) Table() *core.ValueTable {
	return a.table
}

func (a *QLearningAgent) Training() bool {
	return a.train
}

// PendingTransitions is the length of the buffered trajectory.
func (a *QLearningAgent) PendingTransitions() int {
	return a.trace.Len()
}

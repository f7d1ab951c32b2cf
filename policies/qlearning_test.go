package policies

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/storage"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func newTrainingAgent(params Params) *QLearningAgent {
	return NewQLearningAgent(params, storage.NewMemoryStore(), true)
}

// record puts transitions straight into the trajectory buffer, creating
// the table entries like the encoder would.
func record(a *QLearningAgent, steps ...core.Transition) {
	for _, s := range steps {
		a.table.Ensure(s.State)
		a.table.Ensure(s.NextState)
		a.trace.AddStep(s)
	}
}

func frame(birdX, birdY float64) *core.Observation {
	return &core.Observation{BirdX: birdX, BirdY: birdY, Obstacles: obstacles(300, 250, 500, 250)}
}

func TestSelectActionTieFavorsNoOp(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	s := core.StateKey{X0: 10}
	if got := a.SelectAction(s); got != core.NoOp {
		t.Errorf("fresh state: got %s, want noop", got)
	}
	a.table.Ensure(s).Q = [2]float64{3, 3}
	if got := a.SelectAction(s); got != core.NoOp {
		t.Errorf("tie: got %s, want noop", got)
	}
	a.table.Ensure(s).Q = [2]float64{-1, 2}
	if got := a.SelectAction(s); got != core.Flap {
		t.Errorf("got %s, want flap", got)
	}
}

func TestChooseActionInitializesState(t *testing.T) {
	a := NewQLearningAgent(DefaultParams(), storage.NewMemoryStore(), false)
	obs := frame(100, 200)
	state, _ := Encode(obs)
	if a.table.Has(state) {
		t.Fatal("state should not exist yet")
	}
	if _, err := a.ChooseAction(obs); err != nil {
		t.Fatal(err)
	}
	e, ok := a.table.Get(state)
	if !ok {
		t.Fatal("state should have been initialized")
	}
	if *e != (core.Entry{}) {
		t.Errorf("new entry should be zero, got %+v", *e)
	}
	if a.PendingTransitions() != 0 {
		t.Errorf("evaluation should not buffer transitions")
	}
}

func TestChooseActionRecordsTransitions(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	s1, _ := Encode(frame(100, 200))
	s2, _ := Encode(frame(200, 200))
	if s1 == s2 {
		t.Fatal("frames should encode to different states")
	}

	a.ChooseAction(frame(100, 200))
	a.ChooseAction(frame(200, 200))
	if a.PendingTransitions() != 2 {
		t.Fatalf("expected 2 transitions, got %d", a.PendingTransitions())
	}
	want := []core.Transition{
		{State: core.OriginState, Action: core.NoOp, NextState: s1},
		{State: s1, Action: core.NoOp, NextState: s2},
	}
	for i, w := range want {
		if got := a.trace.Step(i); got != w {
			t.Errorf("transition %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestChooseActionRejectsShortObstacleList(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	if _, err := a.ChooseAction(&core.Observation{Obstacles: obstacles(10, 10)}); err == nil {
		t.Fatal("expected an error")
	}
	if a.PendingTransitions() != 0 {
		t.Errorf("a failed observation should not be buffered")
	}
}

var (
	s0 = core.OriginState
	s1 = core.StateKey{X0: 50, Y0: 10}
	s2 = core.StateKey{X0: 20, Y0: 30}
)

func TestHighDeathPenalizesEarlierFlap(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	terminal := core.StateKey{X0: -10, Y0: 130}
	record(a,
		core.Transition{State: s0, Action: core.Flap, NextState: s1},
		core.Transition{State: s1, Action: core.NoOp, NextState: s2},
		core.Transition{State: s2, Action: core.Flap, NextState: terminal},
	)
	a.EndEpisode(3)

	checks := []struct {
		state  core.StateKey
		action core.Action
		want   float64
	}{
		{s2, core.Flap, -700},
		{s2, core.NoOp, 0},
		{s1, core.NoOp, -700},
		{s1, core.Flap, 0},
		// the most recent flap was inside the death window, only the
		// high death flag punishes this one
		{s0, core.Flap, -700},
		{terminal, core.NoOp, 0},
	}
	for _, c := range checks {
		if got := a.table.MustGet(c.state).Q[c.action]; !near(got, c.want) {
			t.Errorf("Q(%s)[%s] = %v, want %v", c.state, c.action, got, c.want)
		}
	}
	for _, s := range []core.StateKey{s0, s1, s2} {
		if v := a.table.MustGet(s).Visits; v != 1 {
			t.Errorf("visits of %s = %d, want 1", s, v)
		}
	}
	if a.table.MustGet(terminal).Visits != 0 {
		t.Errorf("terminal state is never the origin of a transition")
	}
	if a.PendingTransitions() != 0 {
		t.Errorf("trajectory should be cleared")
	}
	if !near(a.Alpha(), 0.7-0.00003) {
		t.Errorf("alpha = %v, want %v", a.Alpha(), 0.7-0.00003)
	}
}

func TestLowDeathDoesNotPenalizeEarlierFlap(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	// 120 is not above the threshold
	terminal := core.StateKey{X0: -10, Y0: 120}
	record(a,
		core.Transition{State: s0, Action: core.Flap, NextState: s1},
		core.Transition{State: s1, Action: core.NoOp, NextState: s2},
		core.Transition{State: s2, Action: core.Flap, NextState: terminal},
	)
	a.EndEpisode(3)

	if got := a.table.MustGet(s0).Q[core.Flap]; !near(got, 0) {
		t.Errorf("Q(s0)[flap] = %v, want 0", got)
	}
	if got := a.table.MustGet(s2).Q[core.Flap]; !near(got, -700) {
		t.Errorf("Q(s2)[flap] = %v, want -700", got)
	}
}

func TestLastFlapPenalizedOnce(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	sA := core.StateKey{X0: 90}
	terminal := core.StateKey{X0: -10}
	record(a,
		core.Transition{State: sA, Action: core.Flap, NextState: s0},
		core.Transition{State: s0, Action: core.Flap, NextState: s1},
		core.Transition{State: s1, Action: core.NoOp, NextState: s2},
		core.Transition{State: s2, Action: core.NoOp, NextState: terminal},
	)
	a.table.MustGet(terminal).Q = [2]float64{10, 4}
	a.EndEpisode(1)

	checks := []struct {
		state  core.StateKey
		action core.Action
		want   float64
	}{
		{s2, core.NoOp, 0.7 * (-1000 + 0.95*10)},
		{s1, core.NoOp, -700},
		{s0, core.Flap, -700},
		{sA, core.Flap, 0},
	}
	for _, c := range checks {
		if got := a.table.MustGet(c.state).Q[c.action]; !near(got, c.want) {
			t.Errorf("Q(%s)[%s] = %v, want %v", c.state, c.action, got, c.want)
		}
	}
}

func TestEmptyEpisodeOnlyCountsScore(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	a.EndEpisode(5)
	if a.Episodes() != 1 || a.MaxScore() != 5 {
		t.Errorf("got episodes %d max %v", a.Episodes(), a.MaxScore())
	}
}

func TestConvergesOnToyTable(t *testing.T) {
	params := DefaultParams()
	params.Alpha = 0.5
	params.AlphaDecay = 0
	params.StepReward = 1
	params.DeathReward = -10
	a := newTrainingAgent(params)

	sA := core.OriginState
	sB := core.StateKey{X0: 10, Y0: 20}
	for i := 0; i < 2000; i++ {
		record(a,
			core.Transition{State: sA, Action: core.NoOp, NextState: sB},
			core.Transition{State: sB, Action: core.NoOp, NextState: sA},
			core.Transition{State: sA, Action: core.Flap, NextState: sB},
			core.Transition{State: sB, Action: core.Flap, NextState: sB},
		)
		a.EndEpisode(0)
	}

	// Q(.,noop) = 1 + 0.95 * 20, Q(.,flap) = -10 + 0.95 * 20
	for _, s := range []core.StateKey{sA, sB} {
		e := a.table.MustGet(s)
		if math.Abs(e.Q[core.NoOp]-20) > 1e-6 || math.Abs(e.Q[core.Flap]-9) > 1e-6 {
			t.Errorf("Q(%s) = %v, want [20 9]", s, e.Q)
		}
	}
	if a.Alpha() != 0.5 {
		t.Errorf("alpha should not decay, got %v", a.Alpha())
	}
}

func TestAlphaDecayFloor(t *testing.T) {
	params := DefaultParams()
	params.AlphaDecay = 0.1
	a := newTrainingAgent(params)

	prev := a.Alpha()
	for i := 0; i < 20; i++ {
		a.EndEpisode(0)
		if a.Alpha() > prev {
			t.Fatalf("alpha increased from %v to %v", prev, a.Alpha())
		}
		if a.Alpha() < params.AlphaFloor {
			t.Fatalf("alpha %v below floor", a.Alpha())
		}
		prev = a.Alpha()
	}
	if a.Alpha() != params.AlphaFloor {
		t.Errorf("alpha = %v, want floor %v", a.Alpha(), params.AlphaFloor)
	}
}

func TestEvaluationOnlyKeepsBookkeeping(t *testing.T) {
	a := NewQLearningAgent(DefaultParams(), storage.NewMemoryStore(), false)
	a.ChooseAction(frame(100, 200))
	a.EndEpisode(12)
	a.EndEpisode(7)
	if a.Episodes() != 2 || a.MaxScore() != 12 {
		t.Errorf("got episodes %d, max %v", a.Episodes(), a.MaxScore())
	}
	if a.Alpha() != DefaultParams().Alpha {
		t.Errorf("alpha should not decay in evaluation")
	}
}

// The partial flush and the episode end used to bump two different
// counters. There is a single counter now and only EndEpisode moves it.
func TestPartialFlushKeepsSingleEpisodeCounter(t *testing.T) {
	params := DefaultParams()
	params.FlushThreshold = 3
	a := newTrainingAgent(params)

	for i := 0; i < 4; i++ {
		if _, err := a.ChooseAction(frame(100+float64(i)*20, 200)); err != nil {
			t.Fatal(err)
		}
	}
	if a.PendingTransitions() != 1 {
		t.Fatalf("expected 1 pending transition after the flush, got %d", a.PendingTransitions())
	}
	if a.Episodes() != 0 {
		t.Fatalf("flush must not count an episode, got %d", a.Episodes())
	}
	// visits are only counted when an episode ends
	if v := a.table.MustGet(core.OriginState).Visits; v != 0 {
		t.Errorf("flushed transitions must not count as visits, got %d", v)
	}
	a.EndEpisode(1)
	if a.Episodes() != 1 {
		t.Errorf("expected 1 episode, got %d", a.Episodes())
	}
}

func TestFlushUsesStepReward(t *testing.T) {
	params := DefaultParams()
	params.FlushThreshold = 2
	params.StepReward = 1
	a := newTrainingAgent(params)
	record(a,
		core.Transition{State: s0, Action: core.Flap, NextState: s1},
		core.Transition{State: s1, Action: core.Flap, NextState: s2},
		core.Transition{State: s2, Action: core.Flap, NextState: s0},
	)
	a.flush()
	// no death penalty: both flushed transitions get 0.7 * 1
	if got := a.table.MustGet(s1).Q[core.Flap]; !near(got, 0.7) {
		t.Errorf("Q(s1)[flap] = %v, want 0.7", got)
	}
	if got := a.table.MustGet(s0).Q[core.Flap]; !near(got, 0.7*(1+0.95*0.7)) {
		t.Errorf("Q(s0)[flap] = %v, want %v", got, 0.7*(1+0.95*0.7))
	}
	if a.PendingTransitions() != 1 || a.trace.Step(0).State != s2 {
		t.Errorf("only the newest transition should remain")
	}
}

func TestTruncateEpisodeUsesStepReward(t *testing.T) {
	params := DefaultParams()
	params.StepReward = 1
	a := newTrainingAgent(params)
	record(a,
		core.Transition{State: s0, Action: core.Flap, NextState: s1},
		core.Transition{State: s1, Action: core.Flap, NextState: s2},
	)
	a.TruncateEpisode(3)

	if got := a.table.MustGet(s1).Q[core.Flap]; !near(got, 0.7) {
		t.Errorf("Q(s1)[flap] = %v, want 0.7", got)
	}
	if got := a.table.MustGet(s0).Q[core.Flap]; !near(got, 0.7*(1+0.95*0.7)) {
		t.Errorf("Q(s0)[flap] = %v, want %v", got, 0.7*(1+0.95*0.7))
	}
	if a.table.MustGet(s0).Visits != 1 || a.table.MustGet(s1).Visits != 1 {
		t.Errorf("truncated episodes count visits")
	}
	if a.Episodes() != 1 || a.MaxScore() != 3 || a.PendingTransitions() != 0 {
		t.Errorf("episodes %d, max score %v, pending %d", a.Episodes(), a.MaxScore(), a.PendingTransitions())
	}
	if !near(a.Alpha(), 0.7-0.00003) {
		t.Errorf("alpha = %v", a.Alpha())
	}
}

// endlessEnv flies the bird forward and never ends the episode.
type endlessEnv struct {
	x float64
}

func (e *endlessEnv) Reset() (*core.Observation, error) {
	e.x = 0
	return frame(e.x, 250), nil
}

func (e *endlessEnv) Step(core.Action, *core.StepContext) (*core.Observation, error) {
	e.x += 10
	return frame(e.x, 250), nil
}

func TestHorizonRunHasNoDeathPenalty(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	result := core.NewExperiment("horizon", &endlessEnv{}, a).
		Run(context.Background(), &core.RunConfig{Episodes: 2, Horizon: 5}, io.Discard)
	if result.IsError() {
		t.Fatal(result.Error)
	}
	if result.TruncatedEpisodes != 2 || a.Episodes() != 2 {
		t.Fatalf("truncated %d, episodes %d", result.TruncatedEpisodes, a.Episodes())
	}
	for _, k := range a.Table().Keys() {
		e := a.Table().MustGet(k)
		if e.Q[core.NoOp] < 0 || e.Q[core.Flap] < 0 {
			t.Errorf("state %s got a death penalty: %v", k, e.Q)
		}
	}
}

func TestAbortEpisodeDiscardsTrajectory(t *testing.T) {
	a := newTrainingAgent(DefaultParams())
	a.ChooseAction(frame(100, 200))
	a.AbortEpisode()
	if a.PendingTransitions() != 0 || a.Episodes() != 0 {
		t.Errorf("abort should drop the trajectory and not count an episode")
	}
}

func TestPersistAndResume(t *testing.T) {
	store := storage.NewMemoryStore()
	a := NewQLearningAgent(DefaultParams(), store, true)
	for _, score := range []float64{10, 30, 20} {
		a.ChooseAction(frame(100, 200))
		a.ChooseAction(frame(120, 220))
		a.EndEpisode(score)
	}
	if err := a.PersistState(); err != nil {
		t.Fatal(err)
	}

	b := NewQLearningAgent(DefaultParams(), store, true)
	if err := b.LoadState(); err != nil {
		t.Fatal(err)
	}
	if b.Episodes() != 3 || b.MaxScore() != 30 {
		t.Errorf("got episodes %d, max %v", b.Episodes(), b.MaxScore())
	}
	if !near(b.Alpha(), a.Alpha()) {
		t.Errorf("resumed alpha %v, continuous alpha %v", b.Alpha(), a.Alpha())
	}
	if b.Table().Size() != a.Table().Size() {
		t.Errorf("table size %d, want %d", b.Table().Size(), a.Table().Size())
	}
}

func TestEvaluationNeverPersists(t *testing.T) {
	store := storage.NewMemoryStore()
	a := NewQLearningAgent(DefaultParams(), store, false)
	if err := a.LoadState(); err != nil {
		t.Fatal(err)
	}
	a.EndEpisode(4)
	if err := a.PersistState(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.LoadValueTable(); ok {
		t.Error("evaluation should not write the table")
	}
}

func TestLoadStateWithoutFilesStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewFileStore(filepath.Join(dir, "q.json"), filepath.Join(dir, "progress.json"))
	a := NewQLearningAgent(DefaultParams(), store, true)
	if err := a.LoadState(); err != nil {
		t.Fatal(err)
	}
	if a.Episodes() != 0 || a.Alpha() != DefaultParams().Alpha {
		t.Errorf("expected a fresh schedule")
	}
	if !a.Table().Has(core.OriginState) {
		t.Errorf("origin state should exist")
	}
}

func TestLoadStateFailsOnMalformedTable(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "q.json")
	if err := os.WriteFile(tablePath, []byte(`{"0_0_0_0": [1, 2]}`), 0644); err != nil {
		t.Fatal(err)
	}
	a := NewQLearningAgent(DefaultParams(), storage.NewFileStore(tablePath, filepath.Join(dir, "p.json")), true)
	if err := a.LoadState(); err == nil {
		t.Fatal("expected an error for a malformed table")
	}
}

func TestScheduledAlpha(t *testing.T) {
	p := DefaultParams()
	if got := p.ScheduledAlpha(1000); !near(got, 0.7-0.03) {
		t.Errorf("ScheduledAlpha(1000) = %v", got)
	}
	if got := p.ScheduledAlpha(1000000); got != 0.1 {
		t.Errorf("ScheduledAlpha(1000000) = %v, want floor", got)
	}
}

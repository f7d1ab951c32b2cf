package analysis

import (
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/policies"
	"github.com/zeu5/flappy-rl/util"
)

type coverageDataset struct {
	Timesteps    []int
	UniqueStates []int
}

func (c *coverageDataset) Copy() *coverageDataset {
	return &coverageDataset{
		Timesteps:    util.CopyIntSlice(c.Timesteps),
		UniqueStates: util.CopyIntSlice(c.UniqueStates),
	}
}

// CoverageAnalyzer counts the distinct states visited over time.
type CoverageAnalyzer struct {
	states  map[core.StateKey]bool
	dataset *coverageDataset
}

var _ core.Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	c := &CoverageAnalyzer{}
	c.Reset()
	return c
}

func (c *CoverageAnalyzer) Reset() {
	c.states = make(map[core.StateKey]bool)
	c.dataset = &coverageDataset{
		Timesteps:    make([]int, 0),
		UniqueStates: make([]int, 0),
	}
}

func (c *CoverageAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	for i := 0; i < eCtx.Log.Len(); i++ {
		state, err := policies.Encode(eCtx.Log.Frame(i).Observation)
		if err != nil {
			continue
		}
		c.states[state] = true
	}
	lastTimeStep := 0
	if len(c.dataset.Timesteps) > 0 {
		lastTimeStep = c.dataset.Timesteps[len(c.dataset.Timesteps)-1]
	}
	c.dataset.Timesteps = append(c.dataset.Timesteps, lastTimeStep+eCtx.Log.Len())
	c.dataset.UniqueStates = append(c.dataset.UniqueStates, len(c.states))
}

func (c *CoverageAnalyzer) UniqueStates() int {
	return len(c.states)
}

func (c *CoverageAnalyzer) DataSet() core.DataSet {
	return c.dataset.Copy()
}

package analysis

import (
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/util"
	"gonum.org/v1/gonum/stat"
)

type scoreDataset struct {
	Episodes    []int
	Scores      []float64
	RunningMean []float64
	Best        float64
}

func (s *scoreDataset) Copy() *scoreDataset {
	return &scoreDataset{
		Episodes:    util.CopyIntSlice(s.Episodes),
		Scores:      util.CopyFloatSlice(s.Scores),
		RunningMean: util.CopyFloatSlice(s.RunningMean),
		Best:        s.Best,
	}
}

// ScoreAnalyzer records the score of every completed episode along with
// the mean over the last window episodes.
type ScoreAnalyzer struct {
	window  int
	dataset *scoreDataset
}

var _ core.Analyzer = &ScoreAnalyzer{}

func NewScoreAnalyzer(window int) *ScoreAnalyzer {
	if window <= 0 {
		window = 1
	}
	s := &ScoreAnalyzer{window: window}
	s.Reset()
	return s
}

func (s *ScoreAnalyzer) Reset() {
	s.dataset = &scoreDataset{
		Episodes:    make([]int, 0),
		Scores:      make([]float64, 0),
		RunningMean: make([]float64, 0),
	}
}

func (s *ScoreAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	if eCtx.IsError() {
		return
	}
	d := s.dataset
	if len(d.Scores) == 0 || eCtx.Score > d.Best {
		d.Best = eCtx.Score
	}
	d.Episodes = append(d.Episodes, eCtx.Episode)
	d.Scores = append(d.Scores, eCtx.Score)

	start := len(d.Scores) - s.window
	if start < 0 {
		start = 0
	}
	d.RunningMean = append(d.RunningMean, stat.Mean(d.Scores[start:], nil))
}

// Mean is the mean score over the last window episodes.
func (s *ScoreAnalyzer) Mean() float64 {
	if len(s.dataset.RunningMean) == 0 {
		return 0
	}
	return s.dataset.RunningMean[len(s.dataset.RunningMean)-1]
}

func (s *ScoreAnalyzer) DataSet() core.DataSet {
	return s.dataset.Copy()
}

package core

import (
	"github.com/zeu5/flappy-rl/util"
	"gonum.org/v1/gonum/floats"
)

// Progress is the training bookkeeping that survives restarts.
type Progress struct {
	Episodes int
	Scores   []float64
	MaxScore float64
}

func NewProgress() *Progress {
	return &Progress{
		Scores: make([]float64, 0),
	}
}

// RestoreProgress rebuilds the record from a persisted episode count and
// score history, deriving the max score.
func RestoreProgress(episodes int, scores []float64) *Progress {
	p := &Progress{
		Episodes: episodes,
		Scores:   util.CopyFloatSlice(scores),
	}
	if len(scores) > 0 {
		p.MaxScore = floats.Max(scores)
	}
	return p
}

func (p *Progress) Record(score float64) {
	p.Episodes++
	p.Scores = append(p.Scores, score)
	p.MaxScore = util.MaxFloat(p.MaxScore, score)
}

func (p *Progress) Copy() *Progress {
	return &Progress{
		Episodes: p.Episodes,
		Scores:   util.CopyFloatSlice(p.Scores),
		MaxScore: p.MaxScore,
	}
}

package analysis

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ScoreSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
	Max    float64
}

// SummarizeScores computes descriptive statistics of a score history.
// An empty history gives a zero summary.
func SummarizeScores(scores []float64) ScoreSummary {
	if len(scores) == 0 {
		return ScoreSummary{}
	}
	sorted := append(make([]float64, 0, len(scores)), scores...)
	slices.Sort(sorted)

	summary := ScoreSummary{
		Count:  len(scores),
		Mean:   stat.Mean(scores, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:    floats.Max(scores),
	}
	if len(scores) > 1 {
		summary.StdDev = stat.StdDev(scores, nil)
	}
	return summary
}

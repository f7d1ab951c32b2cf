package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/golang/glog"
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/policies"
)

type TraceAnalyzer struct {
	// savePath is the directory the traces are written to
	savePath string
	// traces are written only from this episode on
	thresholdEpisode int
}

var _ core.Analyzer = &TraceAnalyzer{}

func NewTraceAnalyzer(savePath string, threshold int) *TraceAnalyzer {
	return &TraceAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *TraceAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	if eCtx.Episode < a.thresholdEpisode {
		return
	}
	file := path.Join(a.savePath, fmt.Sprintf("trace_%d.txt", eCtx.Episode))
	if err := writeFile(file, logToString(eCtx)); err != nil {
		glog.Warningf("error writing trace: %v", err)
	}
}

func (a *TraceAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *TraceAnalyzer) Reset() {}

func logToString(eCtx *core.EpisodeContext) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Episode %d, Score: %.0f\n\n", eCtx.Episode, eCtx.Score))
	for i := 0; i < eCtx.Log.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, frameToString(eCtx.Log.Frame(i))))
	}
	return buf.Bytes()
}

func frameToString(f *core.Frame) string {
	obs := f.Observation
	state := "invalid"
	if key, err := policies.Encode(obs); err == nil {
		state = key.String()
	}
	return fmt.Sprintf(
		"Bird: x=%.1f y=%.1f vel=%.1f\nObstacles: %v\nState: %s\nAction: %s\n",
		obs.BirdX, obs.BirdY, obs.Velocity, obs.Obstacles, state, f.Action,
	)
}

func writeFile(file string, data []byte) error {
	if err := os.MkdirAll(path.Dir(file), 0755); err != nil {
		return err
	}
	return os.WriteFile(file, data, 0644)
}

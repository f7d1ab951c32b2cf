package analysis

import (
	"bytes"
	"fmt"
	"path"

	"github.com/golang/glog"
	"github.com/zeu5/flappy-rl/core"
)

// ErrorAnalyzer writes the error and the frames of every failed episode.
type ErrorAnalyzer struct {
	savePath string
	count    int
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		savePath: path.Join(savePath, "errors"),
	}
}

func (a *ErrorAnalyzer) Analyze(eCtx *core.EpisodeContext) {
	if !eCtx.IsError() {
		return
	}
	a.count++
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Error: %s\n", eCtx.Err()))
	buf.Write(logToString(eCtx))

	file := path.Join(a.savePath, fmt.Sprintf("error_%d.txt", eCtx.Episode))
	if err := writeFile(file, buf.Bytes()); err != nil {
		glog.Warningf("error writing episode error: %v", err)
	}
}

func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return a.count
}

func (a *ErrorAnalyzer) Reset() {
	a.count = 0
}

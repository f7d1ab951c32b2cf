package analysis

import (
	"path"

	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/util"
)

// SaveDatasets writes every non nil dataset to <savePath>/<name>.json.
func SaveDatasets(savePath string, datasets map[string]core.DataSet) error {
	for name, d := range datasets {
		if d == nil {
			continue
		}
		if err := util.SaveJson(path.Join(savePath, name+".json"), d); err != nil {
			return err
		}
	}
	return nil
}

package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang/glog"
	"github.com/zeu5/flappy-rl/core"
	"github.com/zeu5/flappy-rl/util"
)

// FileStore keeps the table and the progress record in two JSON files.
type FileStore struct {
	TablePath    string
	ProgressPath string
}

var _ Store = &FileStore{}

func NewFileStore(tablePath, progressPath string) *FileStore {
	return &FileStore{
		TablePath:    tablePath,
		ProgressPath: progressPath,
	}
}

func (f *FileStore) LoadValueTable() (*core.ValueTable, bool, error) {
	table := core.NewValueTable()
	ok, err := loadFile(f.TablePath, table)
	if !ok || err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func (f *FileStore) SaveValueTable(table *core.ValueTable) error {
	return util.SaveJson(f.TablePath, table)
}

func (f *FileStore) LoadProgress() (*core.Progress, bool, error) {
	record := &progressRecord{}
	ok, err := loadFile(f.ProgressPath, record)
	if !ok || err != nil {
		return nil, false, err
	}
	episodes := 0
	if n := len(record.Episodes); n > 0 {
		episodes = record.Episodes[n-1]
	}
	if episodes < 0 {
		return nil, false, fmt.Errorf("progress %s: negative episode count %d", f.ProgressPath, episodes)
	}
	return core.RestoreProgress(episodes, record.Scores), true, nil
}

func (f *FileStore) SaveProgress(p *core.Progress) error {
	return util.SaveJson(f.ProgressPath, &progressRecord{
		Episodes: util.Sequence(p.Episodes),
		Scores:   p.Scores,
	})
}

// loadFile treats a file that cannot be read as absent. A file that is
// read but does not decode is an error.
func loadFile(path string, out interface{}) (bool, error) {
	err := util.LoadJson(path, out)
	if err == nil {
		return true, nil
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		glog.Warningf("cannot read %s, starting fresh: %v", path, err)
		return false, nil
	}
	return false, fmt.Errorf("decoding %s: %w", path, err)
}

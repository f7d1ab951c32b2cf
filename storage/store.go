// Package storage persists the value table and the training progress
// between runs.
package storage

import (
	"github.com/zeu5/flappy-rl/core"
)

// Store loads and saves agent state. Load methods report absence with
// ok == false and a nil error; an error means the persisted content
// exists but cannot be used.
type Store interface {
	LoadValueTable() (table *core.ValueTable, ok bool, err error)
	SaveValueTable(*core.ValueTable) error
	LoadProgress() (progress *core.Progress, ok bool, err error)
	SaveProgress(*core.Progress) error
}

// progressRecord is the persisted form of core.Progress. Episodes holds
// the markers 1..N, only the last one is read back.
type progressRecord struct {
	Episodes []int     `json:"episodes"`
	Scores   []float64 `json:"scores"`
}

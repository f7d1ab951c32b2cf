package storage

import "github.com/zeu5/flappy-rl/core"

// MemoryStore keeps copies of the saved state in memory.
type MemoryStore struct {
	table    *core.ValueTable
	progress *core.Progress
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadValueTable() (*core.ValueTable, bool, error) {
	if m.table == nil {
		return nil, false, nil
	}
	return m.table.Clone(), true, nil
}

func (m *MemoryStore) SaveValueTable(table *core.ValueTable) error {
	m.table = table.Clone()
	return nil
}

func (m *MemoryStore) LoadProgress() (*core.Progress, bool, error) {
	if m.progress == nil {
		return nil, false, nil
	}
	return m.progress.Copy(), true, nil
}

func (m *MemoryStore) SaveProgress(p *core.Progress) error {
	m.progress = p.Copy()
	return nil
}

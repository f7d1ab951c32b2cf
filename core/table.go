package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrMalformedEntry = errors.New("malformed value table entry")
)

// Entry holds the action values of a state and how many times the
// learner visited it. Visits is informational only.
type Entry struct {
	Q      [2]float64
	Visits int
}

// Best is the value of the greedy action.
func (e *Entry) Best() float64 {
	return math.Max(e.Q[NoOp], e.Q[Flap])
}

// Greedy picks the action with the highest value, NoOp on ties.
func (e *Entry) Greedy() Action {
	if e.Q[NoOp] >= e.Q[Flap] {
		return NoOp
	}
	return Flap
}

// MarshalJSON encodes the entry as [q(noop), q(flap), visits].
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{e.Q[NoOp], e.Q[Flap], float64(e.Visits)})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedEntry, err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: expected 3 values, got %d", ErrMalformedEntry, len(raw))
	}
	if raw[2] < 0 || raw[2] != math.Trunc(raw[2]) {
		return fmt.Errorf("%w: invalid visit count %v", ErrMalformedEntry, raw[2])
	}
	e.Q = [2]float64{raw[0], raw[1]}
	e.Visits = int(raw[2])
	return nil
}

// ValueTable maps state keys to their entries. Entries are created
// lazily with Ensure.
type ValueTable struct {
	entries map[StateKey]*Entry
}

func NewValueTable() *ValueTable {
	return &ValueTable{
		entries: make(map[StateKey]*Entry),
	}
}

// Ensure returns the entry for the state, creating a zero entry if
// the state was never seen.
func (v *ValueTable) Ensure(state StateKey) *Entry {
	e, ok := v.entries[state]
	if !ok {
		e = &Entry{}
		v.entries[state] = e
	}
	return e
}

func (v *ValueTable) Get(state StateKey) (*Entry, bool) {
	e, ok := v.entries[state]
	return e, ok
}

// MustGet panics when the state has no entry. The encoder initializes
// every state it produces, so a miss here is a programming error.
func (v *ValueTable) MustGet(state StateKey) *Entry {
	e, ok := v.entries[state]
	if !ok {
		panic(fmt.Sprintf("value table has no entry for state %s", state))
	}
	return e
}

func (v *ValueTable) Has(state StateKey) bool {
	_, ok := v.entries[state]
	return ok
}

func (v *ValueTable) Size() int {
	return len(v.entries)
}

// Keys returns the states in ascending order.
func (v *ValueTable) Keys() []StateKey {
	keys := maps.Keys(v.entries)
	slices.SortFunc(keys, func(a, b StateKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

// MostVisited returns up to n states by descending visit count, ties in
// key order.
func (v *ValueTable) MostVisited(n int) []StateKey {
	keys := v.Keys()
	slices.SortStableFunc(keys, func(a, b StateKey) int {
		return v.entries[b].Visits - v.entries[a].Visits
	})
	if n < 0 {
		n = 0
	}
	if n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

func (v *ValueTable) Clone() *ValueTable {
	out := NewValueTable()
	for k, e := range v.entries {
		c := *e
		out.entries[k] = &c
	}
	return out
}

// Merge folds an independently trained table into this one. Values are
// averaged weighted by visits (plain mean if neither side was visited)
// and visits are summed.
func (v *ValueTable) Merge(other *ValueTable) {
	for k, oe := range other.entries {
		e, ok := v.entries[k]
		if !ok {
			c := *oe
			v.entries[k] = &c
			continue
		}
		total := e.Visits + oe.Visits
		for a := range e.Q {
			if total == 0 {
				e.Q[a] = (e.Q[a] + oe.Q[a]) / 2
			} else {
				e.Q[a] = (e.Q[a]*float64(e.Visits) + oe.Q[a]*float64(oe.Visits)) / float64(total)
			}
		}
		e.Visits = total
	}
}

type TableStats struct {
	States  int
	Visited int
	Visits  int
}

func (v *ValueTable) Stats() TableStats {
	stats := TableStats{States: len(v.entries)}
	for _, e := range v.entries {
		if e.Visits > 0 {
			stats.Visited++
		}
		stats.Visits += e.Visits
	}
	return stats
}

// MarshalJSON encodes the table as {"x0_y0_vel_y1": [q0, q1, visits]}.
func (v *ValueTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.entries)
}

func (v *ValueTable) UnmarshalJSON(b []byte) error {
	entries := make(map[StateKey]*Entry)
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	for k, e := range entries {
		if e == nil {
			return fmt.Errorf("%w: null entry for state %s", ErrMalformedEntry, k)
		}
	}
	v.entries = entries
	return nil
}

package core

// Transition is one recorded (state, action, next state) triple.
type Transition struct {
	State     StateKey
	Action    Action
	NextState StateKey
}

// Trace buffers the transitions of the running episode. Owned by a single
// agent, it is not safe for concurrent use.
type Trace struct {
	steps []Transition
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]Transition, 0),
	}
}

func (t *Trace) AddStep(s Transition) {
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) Transition {
	return t.steps[i]
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Last() Transition {
	return t.steps[len(t.steps)-1]
}

// Head returns the n oldest transitions.
func (t *Trace) Head(n int) []Transition {
	return t.steps[:n]
}

// Drop removes the n oldest transitions.
func (t *Trace) Drop(n int) {
	rest := make([]Transition, len(t.steps)-n)
	copy(rest, t.steps[n:])
	t.steps = rest
}

func (t *Trace) Clear() {
	t.steps = make([]Transition, 0)
}

// Frame is one tick as seen by the runner.
type Frame struct {
	Observation *Observation
	Action      Action
}

// EpisodeLog records the frames of an episode for the analyzers.
type EpisodeLog struct {
	frames []*Frame
}

func NewEpisodeLog() *EpisodeLog {
	return &EpisodeLog{
		frames: make([]*Frame, 0),
	}
}

func (l *EpisodeLog) Add(f *Frame) {
	l.frames = append(l.frames, f)
}

func (l *EpisodeLog) Frame(i int) *Frame {
	return l.frames[i]
}

func (l *EpisodeLog) Len() int {
	return len(l.frames)
}

package core

import (
	"context"
	"errors"
)

var (
	// ErrExhausted is returned by Environment.Reset when no further
	// episodes can be produced.
	ErrExhausted = errors.New("environment exhausted")
)

type Action int

const (
	NoOp Action = 0
	Flap Action = 1
)

func (a Action) String() string {
	if a == Flap {
		return "flap"
	}
	return "noop"
}

// Obstacle is an upcoming pipe pair: horizontal position and the
// vertical center of its gap.
type Obstacle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Observation is what the game exposes to the agent on every tick.
type Observation struct {
	BirdX     float64    `json:"bird_x"`
	BirdY     float64    `json:"bird_y"`
	Velocity  float64    `json:"velocity"`
	Obstacles []Obstacle `json:"obstacles"`

	// Done marks the terminal observation of an episode, Score is the
	// score at this point of the episode.
	Done  bool    `json:"done"`
	Score float64 `json:"score"`
}

type Environment interface {
	Reset() (*Observation, error)
	Step(Action, *StepContext) (*Observation, error)
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	StartTimeStep int
	Score         float64

	Log *EpisodeLog

	err error
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Log:     NewEpisodeLog(),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

type StepContext struct {
	Step int
	*EpisodeContext
}

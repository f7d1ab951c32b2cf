// Package replay feeds recorded gameplay to an agent. Frames are stored
// one JSON observation per line; an observation with "done": true ends
// its episode.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeu5/flappy-rl/core"
)

var (
	ErrNoEpisode = errors.New("no episode in progress")
)

// Environment replays recorded episodes. The actions of the agent do not
// influence the recording.
type Environment struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	inEp    bool
}

var _ core.Environment = &Environment{}

func NewEnvironment(r io.Reader) *Environment {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Environment{scanner: scanner}
}

func Open(path string) (*Environment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening recording: %w", err)
	}
	env := NewEnvironment(file)
	env.closer = file
	return env, nil
}

func (e *Environment) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// Reset skips whatever is left of the current episode and returns the
// first frame of the next one, or core.ErrExhausted.
func (e *Environment) Reset() (*core.Observation, error) {
	for e.inEp {
		obs, err := e.next()
		if err != nil {
			return nil, err
		}
		e.inEp = !obs.Done
	}
	obs, err := e.next()
	if err != nil {
		return nil, err
	}
	e.inEp = !obs.Done
	return obs, nil
}

func (e *Environment) Step(_ core.Action, _ *core.StepContext) (*core.Observation, error) {
	if !e.inEp {
		return nil, ErrNoEpisode
	}
	obs, err := e.next()
	if errors.Is(err, core.ErrExhausted) {
		return nil, fmt.Errorf("line %d: recording ends inside an episode", e.line)
	}
	if err != nil {
		return nil, err
	}
	e.inEp = !obs.Done
	return obs, nil
}

func (e *Environment) next() (*core.Observation, error) {
	for e.scanner.Scan() {
		e.line++
		bs := e.scanner.Bytes()
		if len(bs) == 0 {
			continue
		}
		obs := &core.Observation{}
		if err := json.Unmarshal(bs, obs); err != nil {
			return nil, fmt.Errorf("line %d: error reading frame: %w", e.line, err)
		}
		padObstacles(obs)
		return obs, nil
	}
	if err := e.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading recording: %w", err)
	}
	return nil, core.ErrExhausted
}

// padObstacles duplicates the last obstacle so the encoder always sees
// at least two. Terminal frames may carry none at all.
func padObstacles(obs *core.Observation) {
	if len(obs.Obstacles) == 0 {
		return
	}
	for len(obs.Obstacles) < 2 {
		obs.Obstacles = append(obs.Obstacles, obs.Obstacles[len(obs.Obstacles)-1])
	}
}

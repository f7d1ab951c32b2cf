package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedStateKey = errors.New("malformed state key")
)

const stateKeySeparator = "_"

// StateKey is the discretized perception of the bird relative to the
// upcoming obstacles.
//
//	X0  horizontal distance to the target obstacle
//	Y0  vertical distance to the target obstacle's gap
//	Vel bird velocity
//	Y1  vertical distance to the following obstacle's gap, 0 when not relevant
type StateKey struct {
	X0  int
	Y0  int
	Vel int
	Y1  int
}

// OriginState is the previous state of an agent that has not acted yet.
var OriginState = StateKey{}

// String renders the key in its persisted form "x0_y0_vel_y1".
func (k StateKey) String() string {
	return strings.Join([]string{
		strconv.Itoa(k.X0),
		strconv.Itoa(k.Y0),
		strconv.Itoa(k.Vel),
		strconv.Itoa(k.Y1),
	}, stateKeySeparator)
}

func ParseStateKey(s string) (StateKey, error) {
	parts := strings.Split(s, stateKeySeparator)
	if len(parts) != 4 {
		return StateKey{}, fmt.Errorf("%w: %q", ErrMalformedStateKey, s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return StateKey{}, fmt.Errorf("%w: %q", ErrMalformedStateKey, s)
		}
		vals[i] = v
	}
	return StateKey{X0: vals[0], Y0: vals[1], Vel: vals[2], Y1: vals[3]}, nil
}

func (k StateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *StateKey) UnmarshalText(b []byte) error {
	parsed, err := ParseStateKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k StateKey) Less(o StateKey) bool {
	if k.X0 != o.X0 {
		return k.X0 < o.X0
	}
	if k.Y0 != o.Y0 {
		return k.Y0 < o.Y0
	}
	if k.Vel != o.Vel {
		return k.Vel < o.Vel
	}
	return k.Y1 < o.Y1
}

package policies

import (
	"errors"
	"fmt"

	"github.com/zeu5/flappy-rl/core"
)

var (
	ErrTooFewObstacles = errors.New("observation needs at least two obstacles")
)

const (
	// the target moves to the next obstacle once the bird is this far past the first one
	passedOffset = 50
	// the following gap only matters in (lookaheadBand, 0]
	lookaheadBand = -50

	// horizontal buckets: exact below nearBound, fine up to farBound, coarse beyond
	nearBound  = -40
	farBound   = 140
	fineStep   = 10
	coarseStep = 70

	// vertical buckets: fine inside (-verticalBound, verticalBound), coarse outside
	verticalBound      = 180
	verticalFineStep   = 10
	verticalCoarseStep = 60
)

// Encode discretizes an observation into a state key. It is a pure
// function of its input.
func Encode(obs *core.Observation) (core.StateKey, error) {
	if len(obs.Obstacles) < 2 {
		return core.StateKey{}, fmt.Errorf("%w: got %d", ErrTooFewObstacles, len(obs.Obstacles))
	}

	target, next := obs.Obstacles[0], obs.Obstacles[1]
	if obs.BirdX-target.X >= passedOffset {
		target = obs.Obstacles[1]
		if len(obs.Obstacles) > 2 {
			next = obs.Obstacles[2]
		}
	}

	x0 := target.X - obs.BirdX
	y0 := target.Y - obs.BirdY
	y1 := 0.0
	if x0 > lookaheadBand && x0 <= 0 {
		y1 = next.Y - obs.BirdY
	}

	return core.StateKey{
		X0:  quantizeHorizontal(x0),
		Y0:  quantizeVertical(y0),
		Vel: int(obs.Velocity),
		Y1:  quantizeVertical(y1),
	}, nil
}

func quantizeHorizontal(x float64) int {
	v := int(x)
	switch {
	case x < nearBound:
		return v
	case x < farBound:
		return floorTo(v, fineStep)
	default:
		return floorTo(v, coarseStep)
	}
}

func quantizeVertical(y float64) int {
	v := int(y)
	if y > -verticalBound && y < verticalBound {
		return floorTo(v, verticalFineStep)
	}
	return floorTo(v, verticalCoarseStep)
}

// floorTo rounds v down to a multiple of step, towards negative infinity.
func floorTo(v, step int) int {
	m := v % step
	if m < 0 {
		m += step
	}
	return v - m
}

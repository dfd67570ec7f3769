package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/environment"
)

// SwingUp implements a task where the agent must swing the pendulum
// up and hold it in a vertical position. Rewards are the cosine of
// the pendulum angle measured from the positive y-axis, so that
// holding the pendulum straight up earns a reward of 1.0 on each
// timestep.
type SwingUp struct {
	environment.Starter
	environment.Ender
}

// NewSwingUp returns a new SwingUp task with episodes that start from
// states drawn from s and end after maxSteps timesteps
func NewSwingUp(s environment.Starter, maxSteps int) *SwingUp {
	ender := environment.NewStepLimit(maxSteps)
	return &SwingUp{s, ender}
}

// GetReward returns the reward for landing in nextState
func (s *SwingUp) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	th := nextState.AtVec(0)
	return math.Cos(th)
}

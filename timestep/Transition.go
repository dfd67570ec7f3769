package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single environmental transition
// (state, action, reward, next state) for off-policy learning. Done
// records whether the next state is terminal in the environment
// itself. Episodes cut short by an external length cap leave Done
// unset so that learners still bootstrap from the next state.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Done      bool
}

// NewTransition returns the Transition generated by taking action in
// the state described by step and landing on nextStep.
func NewTransition(step TimeStep, action mat.Vector,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Done:      nextStep.Last(),
	}
}

func (t Transition) String() string {
	str := "Transition | Reward: %.2f  |  Done: %v"

	return fmt.Sprintf(str, t.Reward, t.Done)
}

// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/spec"
	"github.com/samuelfneumann/goddpg/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when an episode ends. Enders that end an episode
// modify the timestep so that its StepType field is timestep.Last
// before returning true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme and the start and end conditions
// for some environment
type Task interface {
	Starter
	Ender
	GetReward(state mat.Vector, action mat.Vector,
		nextState mat.Vector) float64
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given an action, returning the
	// next timestep and whether that timestep is the last in the
	// episode
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
}

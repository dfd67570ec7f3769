package environment

import "github.com/samuelfneumann/goddpg/timestep"

// StepLimit implements the Ender interface, ending episodes once a
// fixed number of timesteps have elapsed
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit returns an Ender that ends episodes after episodeSteps
// timesteps
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End returns whether the current episode should end. When the episode
// ends, End modifies the timestep so that its StepType field is
// timestep.Last.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		return true
	}
	return false
}

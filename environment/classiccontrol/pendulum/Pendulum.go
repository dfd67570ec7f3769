// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/spec"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- angle bounds
	SpeedBound  float64 = 8.0     // +/- angular velocity bounds
	TorqueBound float64 = 2.0     // +/- torque bounds

	MaxAction float64 = TorqueBound
	MinAction float64 = -MaxAction

	dt      float64 = 0.05
	Gravity float64 = 9.8
	Mass    float64 = 1.0
	Length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 2
)

// Pendulum implements the classic control environment Pendulum. In
// this environment, a pendulum is attached to a fixed base. An agent
// can swing the pendulum back and forth, but the swinging torque is
// underpowered. In order to swing the pendulum straight up, it must
// first be rocked back and forth, using the momentum to gradually
// climb higher until it can point straight up or rotate fully around
// its fixed base.
//
// State features consist of the angle of the pendulum from the
// positive y-axis and the angular velocity of the pendulum. The sign
// of the angular velocity indicates direction, with negative sign
// indicating counter-clockwise rotation. The angular velocity is
// clipped to [-SpeedBound, SpeedBound]. Angles are normalized to stay
// within [-AngleBound, AngleBound] = [-π, π].
//
// Actions are continuous and 1-dimensional: the torque to apply to
// the pendulum at its fixed base, clipped to [MinAction, MaxAction].
//
// Pendulum implements the environment.Environment interface
type Pendulum struct {
	environment.Task
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     timestep.TimeStep
}

// New creates and returns a new Pendulum environment along with the
// first timestep of the first episode
func New(t environment.Task) (*Pendulum, timestep.TimeStep, error) {
	angleBounds := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speedBounds := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	torqueBounds := r1.Interval{Min: -TorqueBound, Max: TorqueBound}

	state := t.Start()
	if err := validateState(state, angleBounds, speedBounds); err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	firstStep := timestep.New(timestep.First, 0.0, state, 0)

	pendulum := &Pendulum{t, dt, Gravity, Mass, Length, angleBounds,
		speedBounds, torqueBounds, firstStep}

	return pendulum, firstStep, nil
}

// Reset resets the environment and returns a starting state drawn
// from the task's Starter
func (p *Pendulum) Reset() (timestep.TimeStep, error) {
	state := p.Start()
	if err := validateState(state, p.angleBounds, p.speedBounds); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	startStep := timestep.New(timestep.First, 0, state, 0)
	p.lastStep = startStep

	return startStep, nil
}

// Step takes one environmental step given action a and returns the
// next timestep and a bool indicating whether or not the episode has
// ended. Actions are 1-dimensional, consisting of the torque to apply
// at the pendulum's fixed base. Actions outside [MinAction, MaxAction]
// are clipped to stay within these bounds.
func (p *Pendulum) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return timestep.TimeStep{}, false, fmt.Errorf("step: actions must "+
			"be %d-dimensional \n\thave(%d-dimensional)", ActionDims, a.Len())
	}

	torque := floatutils.ClipInterval(a.AtVec(0), p.torqueBounds)

	nextState := p.nextState(p.lastStep, torque)

	reward := p.GetReward(p.lastStep.Observation, a, nextState)
	nextStep := timestep.New(timestep.Mid, reward, nextState,
		p.lastStep.Number+1)

	// Adjust the step type if this step ends the episode
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state of the environment given the
// current timestep and the torque to apply at the pendulum's base
func (p *Pendulum) nextState(t timestep.TimeStep, torque float64) mat.Vector {
	obs := t.Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*p.dt

	newth := th + (newthdot * p.dt)

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = normalizeAngle(newth, p.angleBounds)

	return mat.NewVecDense(2, []float64{newth, newthdot})
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pendulum) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(ObservationDims, nil)

	minObs := []float64{p.angleBounds.Min, p.speedBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.angleBounds.Max, p.speedBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Continuous)
}

// ActionSpec returns the action specification of the environment
func (p *Pendulum) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(ActionDims, nil)

	lowerBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max})

	return spec.NewEnvironment(shape, spec.Action, lowerBound, upperBound,
		spec.Continuous)
}

// String converts the environment to a string representation
func (p *Pendulum) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v\n"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}

// normalizeAngle normalizes the pendulum angle to the appropriate
// limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("normalizeAngle: angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}

// validateState checks that the angle and angular velocity of a state
// are within the environmental limits
func validateState(obs mat.Vector, angleBounds,
	speedBounds r1.Interval) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("states must have %d features \n\thave(%d)",
			ObservationDims, obs.Len())
	}

	th := obs.AtVec(0)
	if th < angleBounds.Min || th > angleBounds.Max {
		return fmt.Errorf("theta %v is not within bounds %v", th, angleBounds)
	}

	thdot := obs.AtVec(1)
	if thdot < speedBounds.Min || thdot > speedBounds.Max {
		return fmt.Errorf("theta dot %v is not within bounds %v", thdot,
			speedBounds)
	}
	return nil
}

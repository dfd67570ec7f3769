package ddpg

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

// Config implements a configuration for a DDPG agent
type Config struct {
	// Actor network architecture
	ActorLayers      []int                 // Hidden layer sizes
	ActorBiases      []bool                // Whether each layer has a bias
	ActorActivations []*network.Activation // Activation of each layer

	// Critic network architecture
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation

	// Initialization algorithm for network weights
	InitWFn *initwfn.InitWFn

	// Solvers for learning network weights. The actor and critic
	// solvers carry their own learning rates.
	ActorSolver  *solver.Solver
	CriticSolver *solver.Solver

	// Experience replay parameters. The replay sample size is the
	// batch size of each gradient update.
	ExpReplay expreplay.Config

	DiscountFactor float64 // Reward discount γ ∈ [0, 1]
	Polyak         float64 // Target smoothing constant ∈ [0, 1)

	// Scale of the Gaussian exploration noise added to actions in
	// training mode
	ActionNoiseScale float64

	// StartSteps is the number of initial training steps on which
	// actions are sampled uniformly at random from the action space
	// instead of from the policy
	StartSteps int

	StepsPerEpoch    int // Environment steps per epoch
	Epochs           int // Total epochs; each ends with an evaluation
	MaxEpisodeLength int // Step cap per episode

	// EvaluationSteps is the environment step budget of each
	// evaluation run
	EvaluationSteps int

	// UseAccelerator requests that gradient computation be offloaded
	// to an accelerator device when one is available
	UseAccelerator bool
}

// BatchSize returns the batch size of the agent constructed using
// this Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// TotalSteps returns the total training step budget of the agent
// constructed using this Config
func (c Config) TotalSteps() int {
	return c.Epochs * c.StepsPerEpoch
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent, returning a ConfigError if it is not.
func (c Config) Validate() error {
	if len(c.ActorLayers) != len(c.ActorBiases) {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("invalid number of actor biases \n\twant(%v)"+
				"\n\thave(%v)", len(c.ActorLayers), len(c.ActorBiases)),
		}
	}
	if len(c.ActorLayers) != len(c.ActorActivations) {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("invalid number of actor activations"+
				"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
				len(c.ActorActivations)),
		}
	}
	if len(c.CriticLayers) != len(c.CriticBiases) {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("invalid number of critic biases \n\twant(%v)"+
				"\n\thave(%v)", len(c.CriticLayers), len(c.CriticBiases)),
		}
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("invalid number of critic activations"+
				"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
				len(c.CriticActivations)),
		}
	}

	if c.InitWFn == nil {
		return &ConfigError{
			Op:  "validate",
			Err: fmt.Errorf("no weight initializer given"),
		}
	}
	if c.ActorSolver == nil || c.CriticSolver == nil {
		return &ConfigError{
			Op:  "validate",
			Err: fmt.Errorf("both actor and critic solvers must be given"),
		}
	}

	if c.BatchSize() <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("batch size must be positive \n\thave(%v)",
				c.BatchSize()),
		}
	}
	if c.ExpReplay.MaxReplayCapacity <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("replay capacity must be positive \n\thave(%v)",
				c.ExpReplay.MaxReplayCapacity),
		}
	}
	if c.ExpReplay.RemoveSize <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("replay remove size must be positive"+
				"\n\thave(%v)", c.ExpReplay.RemoveSize),
		}
	}

	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("discount factor must be in [0, 1] \n\thave(%v)",
				c.DiscountFactor),
		}
	}
	if c.Polyak < 0 || c.Polyak >= 1 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("polyak must be in [0, 1) \n\thave(%v)",
				c.Polyak),
		}
	}
	if c.ActionNoiseScale < 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("action noise scale cannot be negative"+
				"\n\thave(%v)", c.ActionNoiseScale),
		}
	}

	if c.StartSteps < 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("start steps cannot be negative \n\thave(%v)",
				c.StartSteps),
		}
	}
	if c.StepsPerEpoch <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("steps per epoch must be positive \n\thave(%v)",
				c.StepsPerEpoch),
		}
	}
	if c.Epochs <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("epochs must be positive \n\thave(%v)",
				c.Epochs),
		}
	}
	if c.MaxEpisodeLength <= 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("max episode length must be positive"+
				"\n\thave(%v)", c.MaxEpisodeLength),
		}
	}
	if c.EvaluationSteps < 0 {
		return &ConfigError{
			Op: "validate",
			Err: fmt.Errorf("evaluation steps cannot be negative"+
				"\n\thave(%v)", c.EvaluationSteps),
		}
	}

	return nil
}

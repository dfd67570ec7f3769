// Package policy implements action-selection policies using function
// approximation with Gorgonia
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/spec"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// DeterministicMLP implements a deterministic policy parameterized by
// a feedforward neural network. The network maps an observation to one
// value per action dimension.
//
// In training mode, independent Gaussian noise scaled by the policy's
// noise coefficient is added elementwise to the network's prediction.
// In evaluation mode the prediction is used as-is. In both modes the
// action is clipped elementwise to the environment's action bounds
// before being returned.
//
// A DeterministicMLP can select actions at each timestep only when its
// batch size is 1. Policies with larger batch sizes parameterize a
// learner and only expose their network for training.
type DeterministicMLP struct {
	net network.NeuralNet
	vm  G.VM

	normal     distmv.Rander
	noiseScale float64
	evalMode   bool

	actionDims  int
	lowerBounds mat.Vector
	upperBounds mat.Vector

	seed uint64
}

// NewDeterministicMLP creates and returns a new DeterministicMLP
// policy selecting actions for environment e. The hiddenSizes, biases,
// and activations parameters define the hidden layers of the policy's
// network, and init determines its weight initialization. A final
// linear layer maps the last hidden layer to the environment's action
// dimensions. The noiseScale parameter scales the exploration noise
// added in training mode, and seed determines the noise sampler's
// initial state.
func NewDeterministicMLP(e env.Environment, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn, noiseScale float64,
	seed uint64) (agent.NNPolicy, error) {
	if e.ActionSpec().Cardinality != spec.Continuous {
		return nil, fmt.Errorf("newDeterministicMLP: actions must be " +
			"continuous")
	}

	features := e.ObservationSpec().Shape.Len()
	actionDims := e.ActionSpec().Shape.Len()

	net, err := network.NewMLP(features, batch, actionDims, g, hiddenSizes,
		biases, init, activations, "Actor", "")
	if err != nil {
		return nil, fmt.Errorf("newDeterministicMLP: could not create "+
			"network: %v", err)
	}

	return newDeterministicMLP(net, e, noiseScale, seed)
}

// newDeterministicMLP wraps an existing network in a DeterministicMLP
func newDeterministicMLP(net network.NeuralNet, e env.Environment,
	noiseScale float64, seed uint64) (*DeterministicMLP, error) {
	actionDims := e.ActionSpec().Shape.Len()

	// Standard normal for exploration noise
	means := make([]float64, actionDims)
	stds := mat.NewDiagDense(actionDims, floatutils.Ones(actionDims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newDeterministicMLP: could not create " +
			"noise sampler")
	}

	pol := &DeterministicMLP{
		net: net,

		normal:     normal,
		noiseScale: noiseScale,

		actionDims:  actionDims,
		lowerBounds: e.ActionSpec().LowerBound,
		upperBounds: e.ActionSpec().UpperBound,

		seed: seed,
	}

	// The policy can select actions at each timestep only with a
	// batch size of 1
	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// Network returns the neural network function approximator that the
// policy uses
func (d *DeterministicMLP) Network() network.NeuralNet {
	return d.net
}

// CloneWithBatch clones the DeterministicMLP with a new input batch
// size, copying the current network weights
func (d *DeterministicMLP) CloneWithBatch(
	batch int) (agent.NNPolicy, error) {
	net, err := d.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not clone "+
			"network: %v", err)
	}

	means := make([]float64, d.actionDims)
	stds := mat.NewDiagDense(d.actionDims, floatutils.Ones(d.actionDims))
	source := rand.NewSource(d.seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("cloneWithBatch: could not create noise " +
			"sampler")
	}

	pol := &DeterministicMLP{
		net: net,

		normal:     normal,
		noiseScale: d.noiseScale,
		evalMode:   d.evalMode,

		actionDims:  d.actionDims,
		lowerBounds: d.lowerBounds,
		upperBounds: d.upperBounds,

		seed: d.seed,
	}
	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// SelectAction runs the policy's network on the observation of t and
// returns the resulting action. In training mode, Gaussian exploration
// noise is added before the action is clipped to the environment's
// action bounds.
//
// SelectAction panics if the policy's batch size is not 1.
func (d *DeterministicMLP) SelectAction(t timestep.TimeStep) *mat.VecDense {
	if d.vm == nil {
		panic("selectAction: cannot select actions with a batch policy")
	}

	obs := make([]float64, t.Observation.Len())
	for i := range obs {
		obs[i] = t.Observation.AtVec(i)
	}
	if err := d.net.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectAction: could not set input: %v", err))
	}

	if err := d.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectAction: could not run policy network: %v",
			err))
	}
	d.vm.Reset()

	prediction := d.net.Output().Data().([]float64)
	action := make([]float64, d.actionDims)
	copy(action, prediction)

	if !d.evalMode && d.noiseScale > 0 {
		noise := d.normal.Rand(nil)
		for i := range action {
			action[i] += d.noiseScale * noise[i]
		}
	}

	for i := range action {
		action[i] = floatutils.Clip(action[i], d.lowerBounds.AtVec(i),
			d.upperBounds.AtVec(i))
	}

	return mat.NewVecDense(d.actionDims, action)
}

// Eval sets the policy to evaluation mode, disabling exploration noise
func (d *DeterministicMLP) Eval() {
	d.evalMode = true
}

// Train sets the policy to training mode, enabling exploration noise
func (d *DeterministicMLP) Train() {
	d.evalMode = false
}

// IsEval returns whether the policy is in evaluation mode
func (d *DeterministicMLP) IsEval() bool {
	return d.evalMode
}

// Close cleans up the policy's virtual machine
func (d *DeterministicMLP) Close() error {
	if d.vm != nil {
		return d.vm.Close()
	}
	return nil
}

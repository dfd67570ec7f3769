// Package network implements feedforward neural networks on Gorgonia
// computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet describes a feedforward neural network on a Gorgonia
// graph. A NeuralNet owns its input placeholder and output prediction
// nodes; callers drive it by setting the input, running a virtual
// machine over the graph, then reading the output value.
type NeuralNet interface {
	// Graph returns the computational graph that the network is on
	Graph() *G.ExprGraph

	// Clone clones the network to a new computational graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network to a new computational graph,
	// changing the input batch size
	CloneWithBatch(batch int) (NeuralNet, error)

	// CloneWithInputs clones the network onto graph, reading its input
	// from the given nodes instead of a fresh placeholder. Multiple
	// input nodes are concatenated along axis. The clone's input
	// cannot be set with SetInput; it is owned by whatever computes
	// the input nodes.
	CloneWithInputs(axis int, inputs []*G.Node,
		graph *G.ExprGraph) (NeuralNet, error)

	// BatchSize returns the number of rows in the network's input
	BatchSize() int

	// Features returns the number of input features per row
	Features() int

	// Outputs returns the number of values the network predicts per
	// input row
	Outputs() int

	// SetInput sets the value of the network's input placeholder
	SetInput([]float64) error

	// Set copies the learnable weights of another network of the same
	// architecture into the receiver. The copied tensors are owned by
	// the receiver and never alias the source's.
	Set(NeuralNet) error

	// Polyak sets the receiver's weights to an exponential smoothing
	// between its own weights and those of another network of the
	// same architecture: w ← polyak*w + (1-polyak)*w_source
	Polyak(source NeuralNet, polyak float64) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients for
	// solver binding
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after the
	// last virtual machine run
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's output
	Prediction() *G.Node
}

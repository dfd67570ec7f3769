package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a NeuralNet
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer

	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feedforward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
// that the fcLayer is on
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() == nil {
		return nil, fmt.Errorf("fwd: layer has no weights")
	}

	layerOut, err := G.Mul(x, f.Weights())
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	if f.Bias() != nil {
		layerOut, err = G.BroadcastAdd(layerOut, f.Bias(), nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias: %v", err)
		}
	}

	if f.act.IsNil() || f.act.IsIdentity() {
		return layerOut, nil
	}
	return f.act.fwd(layerOut)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

// Weights returns the weights of the fcLayer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// Bias returns the bias of the fcLayer
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Activation returns the Activation of the fcLayer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// addfcLayers adds sequential fully connected layers to the graph g,
// returning the layers in order. The layer at index i has
// hiddenSizes[i] units, a bias unit if biases[i], and activation
// activations[i]. Weights are initialized with init, biases with
// zeroes. Node names are prefixed and suffixed so that multiple
// networks can share a graph without name collisions.
func addfcLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation,
	prefix, suffix string) []Layer {
	layers := make([]Layer, 0, len(hiddenSizes))

	for i := range hiddenSizes {
		// Create the weights for the layer
		weightName := fmt.Sprintf("%vL%dW%v", prefix, i, suffix)
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(features, hiddenSizes[i]),
			G.WithName(weightName),
			G.WithInit(init),
		)

		// Create the bias unit for the layer
		var bias *G.Node
		if biases[i] {
			biasName := fmt.Sprintf("%vL%dB%v", prefix, i, suffix)
			bias = G.NewVector(
				g,
				tensor.Float64,
				G.WithShape(hiddenSizes[i]),
				G.WithName(biasName),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})
		features = hiddenSizes[i]
	}

	return layers
}

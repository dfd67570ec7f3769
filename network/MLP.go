package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layer perceptron with a single prediction
// head. The hidden layers given at construction are followed by a
// final linear layer producing the network's outputs.
type mlp struct {
	g      *G.ExprGraph
	layers []Layer

	input *G.Node

	// ownsInput records whether the input node is a placeholder
	// created by this network. Networks cloned onto the nodes of
	// another computation read their input from that computation, and
	// SetInput is then illegal.
	ownsInput bool

	numOutputs int
	numInputs  int
	batchSize  int

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewMLP creates and returns a new multi-layer perceptron on graph g
// taking batch rows of features inputs and predicting outputs values
// per row. The hidden layer at index i has hiddenSizes[i] units, a
// bias unit if biases[i], and activation activations[i]. A final
// linear layer with a bias and identity activation maps the last
// hidden layer to the outputs. Weights are initialized with init.
//
// Node names are decorated with prefix and suffix so that several
// networks may share one graph.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix, suffix string) (NeuralNet, error) {
	// Ensure we have one bias and activation per hidden layer
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newMLP: invalid number of biases"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(biases))
	}
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newMLP: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(activations))
	}
	if features <= 0 {
		return nil, fmt.Errorf("newMLP: features must be positive"+
			"\n\thave(%v)", features)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newMLP: batch must be positive"+
			"\n\thave(%v)", batch)
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newMLP: outputs must be positive"+
			"\n\thave(%v)", outputs)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(fmt.Sprintf("%vInput%v", prefix, suffix)),
		G.WithInit(G.Zeroes()),
	)

	// The final linear layer producing the prediction
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)

	layerBiases := make([]bool, len(biases), len(biases)+1)
	copy(layerBiases, biases)
	layerBiases = append(layerBiases, true)

	layerActivations := make([]*Activation, len(activations),
		len(activations)+1)
	copy(layerActivations, activations)
	layerActivations = append(layerActivations, Identity())

	layers := addfcLayers(g, features, sizes, layerBiases, init,
		layerActivations, prefix, suffix)

	net := &mlp{
		g:          g,
		layers:     layers,
		input:      input,
		ownsInput:  true,
		numOutputs: outputs,
		numInputs:  features,
		batchSize:  batch,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the number of rows in the mlp's input
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of input features per row
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of values predicted per input row
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// Clone clones the mlp to a new computational graph
func (e *mlp) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones the mlp to a new computational graph with a
// new input batch size
func (e *mlp) CloneWithBatch(batch int) (NeuralNet, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("cloneWithBatch: batch must be positive"+
			"\n\thave(%v)", batch)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batch, e.numInputs),
		G.WithName(e.input.Name()),
		G.WithInit(G.Zeroes()),
	)

	net, err := e.cloneWithInputsTo(-1, []*G.Node{input}, graph)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	net.ownsInput = true
	return net, nil
}

// CloneWithInputs clones the mlp onto graph, reading input from the
// given nodes rather than a fresh placeholder. Multiple input nodes
// are concatenated along axis. The clone's input is owned by whatever
// computes the input nodes, so SetInput is illegal on the clone.
func (e *mlp) CloneWithInputs(axis int, inputs []*G.Node,
	graph *G.ExprGraph) (NeuralNet, error) {
	net, err := e.cloneWithInputsTo(axis, inputs, graph)
	if err != nil {
		return nil, fmt.Errorf("cloneWithInputs: %v", err)
	}
	return net, nil
}

// cloneWithInputsTo clones the mlp's layers onto graph and wires their
// forward pass to read from inputs
func (e *mlp) cloneWithInputsTo(axis int, inputs []*G.Node,
	graph *G.ExprGraph) (*mlp, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("cloneWithInputsTo: no input nodes")
	}
	for _, in := range inputs {
		if in.Graph() != graph {
			return nil, fmt.Errorf("cloneWithInputsTo: input node %v is "+
				"not on the target graph", in.Name())
		}
	}

	var input *G.Node
	var err error
	if len(inputs) == 1 {
		input = inputs[0]
	} else {
		input, err = G.Concat(axis, inputs...)
		if err != nil {
			return nil, fmt.Errorf("cloneWithInputsTo: could not "+
				"concatenate input nodes: %v", err)
		}
	}

	if !input.IsMatrix() {
		return nil, fmt.Errorf("cloneWithInputsTo: input must be a matrix")
	}
	if features := input.Shape()[1]; features != e.numInputs {
		return nil, fmt.Errorf("cloneWithInputsTo: invalid number of "+
			"input features \n\twant(%v)\n\thave(%v)", e.numInputs, features)
	}

	layers := make([]Layer, len(e.layers))
	for i := range layers {
		layers[i] = e.layers[i].CloneTo(graph)
	}

	net := &mlp{
		g:          graph,
		layers:     layers,
		input:      input,
		ownsInput:  false,
		numOutputs: e.numOutputs,
		numInputs:  e.numInputs,
		batchSize:  input.Shape()[0],
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("cloneWithInputsTo: could not compute "+
			"forward pass: %v", err)
	}
	return net, nil
}

// SetInput sets the value of the mlp's input placeholder
func (e *mlp) SetInput(input []float64) error {
	if !e.ownsInput {
		return fmt.Errorf("setInput: input is computed by another " +
			"network and cannot be set")
	}
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.batchSize, e.numInputs),
	)
	return G.Let(e.input, inputTensor)
}

// Set copies the learnable weights of source into the mlp. The copied
// tensors are owned by the mlp and never alias source's.
func (e *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := e.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: inconsistent number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, node := range nodes {
		sourceWeights, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: learnable %v is not a dense tensor",
				sourceNodes[i].Name())
		}
		err := G.Let(node, sourceWeights.Clone().(*tensor.Dense))
		if err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v",
				node.Name(), err)
		}
	}
	return nil
}

// Polyak updates the mlp's weights as an exponential smoothing
// between its own weights and those of source:
//
//	w ← polyak*w + (1-polyak)*w_source
//
// A polyak of 0 copies source's weights outright.
func (e *mlp) Polyak(source NeuralNet, polyak float64) error {
	if polyak == 0.0 {
		return e.Set(source)
	}

	sourceNodes := source.Learnables()
	nodes := e.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: inconsistent number of learnables"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		weights, ok := nodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: learnable %v is not a dense tensor",
				nodes[i].Name())
		}
		sourceWeights, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("polyak: learnable %v is not a dense tensor",
				sourceNodes[i].Name())
		}

		scaledWeights, err := weights.MulScalar(polyak, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale weights: %v", err)
		}
		scaledSource, err := sourceWeights.MulScalar(1.0-polyak, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale source weights: %v",
				err)
		}

		newWeights, err := scaledWeights.Add(scaledSource)
		if err != nil {
			return fmt.Errorf("polyak: could not combine weights: %v", err)
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return fmt.Errorf("polyak: could not set learnable %v: %v",
				nodes[i].Name(), err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the mlp
func (e *mlp) Learnables() G.Nodes {
	if e.learnables == nil {
		e.learnables = make(G.Nodes, 0, 2*len(e.layers))
		for _, layer := range e.layers {
			e.learnables = append(e.learnables, layer.Weights())
			if bias := layer.Bias(); bias != nil {
				e.learnables = append(e.learnables, bias)
			}
		}
	}
	return e.learnables
}

// Model returns the learnable nodes of the mlp with their gradients
// for binding to a solver
func (e *mlp) Model() []G.ValueGrad {
	if e.model == nil {
		learnables := e.Learnables()
		e.model = make([]G.ValueGrad, 0, len(learnables))
		for _, learnable := range learnables {
			e.model = append(e.model, learnable)
		}
	}
	return e.model
}

// Output returns the value of the mlp's prediction after the last
// virtual machine run
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph storing the
// mlp's prediction
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// fwd adds the mlp's forward pass to its computational graph
func (e *mlp) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, layer := range e.layers {
		if pred, err = layer.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(pred, &e.predVal)
	return nil
}

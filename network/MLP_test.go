package network

import (
	"fmt"
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// snapshot returns a copy of the data backing a learnable node. The
// tensor package returns single-element values as a bare float64.
func snapshot(node *G.Node) []float64 {
	switch data := node.Value().Data().(type) {
	case float64:
		return []float64{data}
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out
	default:
		panic(fmt.Sprintf("snapshot: unknown data type %T", data))
	}
}

func TestMLPForward(t *testing.T) {
	const features, batch, outputs = 3, 4, 2

	g := G.NewGraph()
	net, err := NewMLP(features, batch, outputs, g, []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	if net.Features() != features {
		t.Errorf("features: got %v, want %v", net.Features(), features)
	}
	if net.BatchSize() != batch {
		t.Errorf("batchSize: got %v, want %v", net.BatchSize(), batch)
	}
	if net.Outputs() != outputs {
		t.Errorf("outputs: got %v, want %v", net.Outputs(), outputs)
	}

	// One hidden layer and the final linear layer, each with weights
	// and a bias
	if len(net.Learnables()) != 4 {
		t.Errorf("learnables: got %v, want 4", len(net.Learnables()))
	}

	input := make([]float64, features*batch)
	for i := range input {
		input[i] = float64(i) * 0.1
	}
	if err := net.SetInput(input); err != nil {
		t.Fatalf("setInput: %v", err)
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("runAll: %v", err)
	}
	vm.Reset()

	out := net.Output()
	if out == nil {
		t.Fatal("output: got nil after running the graph")
	}
	shape := out.Shape()
	if shape[0] != batch || shape[1] != outputs {
		t.Errorf("output shape: got %v, want (%v, %v)", shape, batch,
			outputs)
	}
	for i, v := range out.Data().([]float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("output: element %v is not finite: %v", i, v)
		}
	}
}

func TestMLPInvalidConstruction(t *testing.T) {
	g := G.NewGraph()

	_, err := NewMLP(3, 1, 1, g, []int{5, 5}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU(), ReLU()}, "", "")
	if err == nil {
		t.Error("newMLP: expected error with mismatched biases")
	}

	_, err = NewMLP(3, 1, 1, g, []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU(), ReLU()}, "", "")
	if err == nil {
		t.Error("newMLP: expected error with mismatched activations")
	}

	_, err = NewMLP(3, 0, 1, g, []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU()}, "", "")
	if err == nil {
		t.Error("newMLP: expected error with zero batch size")
	}
}

func TestMLPSetCopiesWeights(t *testing.T) {
	source, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3}, []bool{true},
		G.ValuesOf(4.0), []*Activation{TanH()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}
	dest, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3}, []bool{true},
		G.ValuesOf(-1.0), []*Activation{TanH()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	if err := dest.Set(source); err != nil {
		t.Fatalf("set: %v", err)
	}

	for i, node := range dest.Learnables() {
		want := snapshot(source.Learnables()[i])
		have := snapshot(node)
		for j := range want {
			if want[j] != have[j] {
				t.Errorf("set: learnable %v element %v: got %v, want %v",
					node.Name(), j, have[j], want[j])
			}
		}
	}

	// Mutating the source must not change the copy. The first
	// learnable is a weight matrix, so its raw backing data is
	// addressable.
	sourceData := source.Learnables()[0].Value().Data().([]float64)
	before := snapshot(dest.Learnables()[0])
	sourceData[0] = 123.0

	after := snapshot(dest.Learnables()[0])
	for j := range before {
		if before[j] != after[j] {
			t.Errorf("set: copy aliases source at element %v", j)
		}
	}
}

func TestMLPSetArchitectureMismatch(t *testing.T) {
	source, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3, 3},
		[]bool{true, true}, G.GlorotU(1.0),
		[]*Activation{TanH(), TanH()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}
	dest, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3}, []bool{true},
		G.GlorotU(1.0), []*Activation{TanH()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	if err := dest.Set(source); err == nil {
		t.Error("set: expected error with mismatched architectures")
	}
}

func TestMLPPolyak(t *testing.T) {
	polyaks := []float64{0.9, 0.5, 0.995}

	for _, polyak := range polyaks {
		target, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3},
			[]bool{true}, G.ValuesOf(2.0), []*Activation{ReLU()}, "", "")
		if err != nil {
			t.Fatalf("newMLP: %v", err)
		}
		source, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3},
			[]bool{true}, G.ValuesOf(-4.0), []*Activation{ReLU()}, "", "")
		if err != nil {
			t.Fatalf("newMLP: %v", err)
		}

		oldTarget := make([][]float64, len(target.Learnables()))
		for i, node := range target.Learnables() {
			oldTarget[i] = snapshot(node)
		}

		if err := target.Polyak(source, polyak); err != nil {
			t.Fatalf("polyak: %v", err)
		}

		for i, node := range target.Learnables() {
			sourceData := snapshot(source.Learnables()[i])
			have := snapshot(node)
			for j := range have {
				want := polyak*oldTarget[i][j] + (1-polyak)*sourceData[j]
				if have[j] != want {
					t.Errorf("polyak %v: learnable %v element %v: got %v, "+
						"want %v", polyak, node.Name(), j, have[j], want)
				}
			}
		}
	}
}

func TestMLPPolyakZeroCopies(t *testing.T) {
	target, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3}, []bool{true},
		G.ValuesOf(2.0), []*Activation{ReLU()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}
	source, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3}, []bool{true},
		G.ValuesOf(7.0), []*Activation{ReLU()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	if err := target.Polyak(source, 0.0); err != nil {
		t.Fatalf("polyak: %v", err)
	}

	for i, node := range target.Learnables() {
		want := snapshot(source.Learnables()[i])
		have := snapshot(node)
		for j := range want {
			if have[j] != want[j] {
				t.Errorf("polyak 0: learnable %v element %v: got %v, "+
					"want %v", node.Name(), j, have[j], want[j])
			}
		}
	}
}

func TestMLPCloneWithBatch(t *testing.T) {
	net, err := NewMLP(3, 32, 2, G.NewGraph(), []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU()}, "", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	clone, err := net.CloneWithBatch(1)
	if err != nil {
		t.Fatalf("cloneWithBatch: %v", err)
	}

	if clone.Graph() == net.Graph() {
		t.Error("cloneWithBatch: clone shares the source's graph")
	}
	if clone.BatchSize() != 1 {
		t.Errorf("cloneWithBatch: got batch %v, want 1", clone.BatchSize())
	}
	if clone.Features() != net.Features() {
		t.Errorf("cloneWithBatch: got features %v, want %v",
			clone.Features(), net.Features())
	}

	for i, node := range clone.Learnables() {
		want := snapshot(net.Learnables()[i])
		have := snapshot(node)
		for j := range want {
			if want[j] != have[j] {
				t.Errorf("cloneWithBatch: learnable %v element %v: got "+
					"%v, want %v", node.Name(), j, have[j], want[j])
			}
		}
	}

	if err := clone.SetInput(make([]float64, 3)); err != nil {
		t.Errorf("setInput: %v", err)
	}
}

// TestMLPCloneWithInputs checks that a network cloned onto externally
// computed input nodes predicts the same values as the source network
// fed the equivalent flattened input.
func TestMLPCloneWithInputs(t *testing.T) {
	const stateDims, actionDims, batch = 2, 1, 2

	net, err := NewMLP(stateDims+actionDims, batch, 1, G.NewGraph(),
		[]int{4}, []bool{true}, G.GlorotU(1.0), []*Activation{ReLU()},
		"Critic", "")
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}

	states := []float64{0.1, -0.2, 0.3, 0.4}
	actions := []float64{0.5, -0.6}

	// Run the source network on the concatenated (state, action) rows
	if err := net.SetInput([]float64{0.1, -0.2, 0.5, 0.3, 0.4, -0.6}); err != nil {
		t.Fatalf("setInput: %v", err)
	}
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("runAll: %v", err)
	}
	vm.Reset()
	want := make([]float64, batch)
	copy(want, net.Output().Data().([]float64))

	// Clone the network onto separate state and action input nodes
	graph := G.NewGraph()
	state := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batch, stateDims), G.WithName("state"),
		G.WithInit(G.Zeroes()))
	action := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batch, actionDims), G.WithName("action"),
		G.WithInit(G.Zeroes()))

	clone, err := net.CloneWithInputs(1, []*G.Node{state, action}, graph)
	if err != nil {
		t.Fatalf("cloneWithInputs: %v", err)
	}

	if err := clone.SetInput(make([]float64, 6)); err == nil {
		t.Error("setInput: expected error on a clone with external inputs")
	}

	err = G.Let(state, tensor.New(tensor.WithBacking(states),
		tensor.WithShape(batch, stateDims)))
	if err != nil {
		t.Fatalf("let: %v", err)
	}
	err = G.Let(action, tensor.New(tensor.WithBacking(actions),
		tensor.WithShape(batch, actionDims)))
	if err != nil {
		t.Fatalf("let: %v", err)
	}

	cloneVM := G.NewTapeMachine(graph)
	defer cloneVM.Close()
	if err := cloneVM.RunAll(); err != nil {
		t.Fatalf("runAll: %v", err)
	}
	cloneVM.Reset()

	have := clone.Output().Data().([]float64)
	for i := range want {
		if math.Abs(want[i]-have[i]) > 1e-12 {
			t.Errorf("cloneWithInputs: output %v: got %v, want %v", i,
				have[i], want[i])
		}
	}
}

func TestActivationJSON(t *testing.T) {
	activations := []*Activation{ReLU(), TanH(), Identity(), Nil()}

	for _, act := range activations {
		encoded, err := act.MarshalJSON()
		if err != nil {
			t.Fatalf("marshalJSON: %v", err)
		}

		decoded := new(Activation)
		if err := decoded.UnmarshalJSON(encoded); err != nil {
			t.Fatalf("unmarshalJSON: %v", err)
		}

		if decoded.String() != act.String() {
			t.Errorf("json: got %v, want %v", decoded.String(),
				act.String())
		}
		if decoded.IsNil() != act.IsNil() {
			t.Errorf("json: %v: IsNil mismatch after round trip",
				act.String())
		}
	}
}

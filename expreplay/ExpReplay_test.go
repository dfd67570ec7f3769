package expreplay

import (
	"testing"

	"github.com/samuelfneumann/goddpg/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	testFeatureSize = 2
	testActionSize  = 1
)

// testTransition returns a transition whose values are all derived
// from id so tests can recognize which transition was sampled
func testTransition(id float64, done bool) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(testFeatureSize, []float64{id, id + 0.5}),
		Action:    mat.NewVecDense(testActionSize, []float64{id * 10}),
		Reward:    id,
		NextState: mat.NewVecDense(testFeatureSize, []float64{id + 1, id + 1.5}),
		Done:      done,
	}
}

func newTestBuffer(t *testing.T, batchSize, capacity int) ExperienceReplayer {
	buffer, err := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        batchSize,
		MaxReplayCapacity: capacity,
		MinReplayCapacity: 1,
	}.Create(testFeatureSize, testActionSize, 14)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return buffer
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer := newTestBuffer(t, 2, 5)

	_, _, _, _, _, err := buffer.Sample()
	if err == nil {
		t.Fatal("sample: expected error on empty buffer")
	}
	if !IsEmptyBuffer(err) {
		t.Errorf("sample: expected empty buffer error, got %v", err)
	}
}

func TestSampleInsufficientSamples(t *testing.T) {
	buffer := newTestBuffer(t, 3, 5)

	for i := 0; i < 2; i++ {
		if err := buffer.Add(testTransition(float64(i), false)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	_, _, _, _, _, err := buffer.Sample()
	if err == nil {
		t.Fatal("sample: expected error with fewer samples than batch size")
	}
	if !IsInsufficientSamples(err) {
		t.Errorf("sample: expected insufficient samples error, got %v", err)
	}
	if IsEmptyBuffer(err) {
		t.Error("sample: insufficient samples misreported as empty")
	}
}

// TestSampleFullBatch checks that when the batch size equals the
// number of stored samples, every stored sample is returned exactly
// once, in insertion order.
func TestSampleFullBatch(t *testing.T) {
	const batchSize = 4
	buffer := newTestBuffer(t, batchSize, 8)

	for i := 0; i < batchSize; i++ {
		if err := buffer.Add(testTransition(float64(i), false)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	states, actions, rewards, dones, nextStates, err := buffer.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	if len(states) != batchSize*testFeatureSize {
		t.Fatalf("sample: states length %v, want %v", len(states),
			batchSize*testFeatureSize)
	}
	if len(actions) != batchSize*testActionSize {
		t.Fatalf("sample: actions length %v, want %v", len(actions),
			batchSize*testActionSize)
	}

	for i := 0; i < batchSize; i++ {
		id := float64(i)
		if states[i*testFeatureSize] != id {
			t.Errorf("sample: row %v state: got %v, want %v", i,
				states[i*testFeatureSize], id)
		}
		if actions[i] != id*10 {
			t.Errorf("sample: row %v action: got %v, want %v", i,
				actions[i], id*10)
		}
		if rewards[i] != id {
			t.Errorf("sample: row %v reward: got %v, want %v", i,
				rewards[i], id)
		}
		if dones[i] != 0.0 {
			t.Errorf("sample: row %v done: got %v, want 0", i, dones[i])
		}
		if nextStates[i*testFeatureSize] != id+1 {
			t.Errorf("sample: row %v next state: got %v, want %v", i,
				nextStates[i*testFeatureSize], id+1)
		}
	}
}

// TestFifoEviction checks that adding to a full buffer evicts the
// oldest transition.
func TestFifoEviction(t *testing.T) {
	const capacity = 3
	buffer := newTestBuffer(t, capacity, capacity)

	for i := 0; i < capacity+1; i++ {
		if err := buffer.Add(testTransition(float64(i), false)); err != nil {
			t.Fatalf("add %v: %v", i, err)
		}
	}

	if buffer.Capacity() != capacity {
		t.Fatalf("capacity: got %v, want %v", buffer.Capacity(), capacity)
	}

	// A full batch returns the survivors in insertion order, so the
	// oldest transition (id 0) must be gone and ids 1..3 remain
	states, _, rewards, _, _, err := buffer.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	for i := 0; i < capacity; i++ {
		want := float64(i + 1)
		if rewards[i] != want {
			t.Errorf("sample: row %v reward: got %v, want %v", i,
				rewards[i], want)
		}
		if states[i*testFeatureSize] != want {
			t.Errorf("sample: row %v state: got %v, want %v", i,
				states[i*testFeatureSize], want)
		}
	}
}

func TestSampleWithReplacementBounds(t *testing.T) {
	const stored = 5
	buffer := newTestBuffer(t, 3, 10)

	for i := 0; i < stored; i++ {
		if err := buffer.Add(testTransition(float64(i+1), false)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	// Sampled transitions must always be ones that were stored. All
	// stored ids are >= 1, so a zero state or reward would mean an
	// empty slot leaked into a batch.
	for trial := 0; trial < 50; trial++ {
		states, _, rewards, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		for i, r := range rewards {
			if r < 1 || r > stored {
				t.Fatalf("sample: reward %v out of stored range", r)
			}
			if states[i*testFeatureSize] != r {
				t.Fatalf("sample: row %v mixes transitions: state %v with "+
					"reward %v", i, states[i*testFeatureSize], r)
			}
		}
	}
}

func TestDoneStoredAsMask(t *testing.T) {
	buffer := newTestBuffer(t, 2, 2)

	if err := buffer.Add(testTransition(1, false)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := buffer.Add(testTransition(2, true)); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, _, rewards, dones, _, err := buffer.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	for i := range dones {
		var want float64
		if rewards[i] == 2 {
			want = 1.0
		}
		if dones[i] != want {
			t.Errorf("sample: transition %v done: got %v, want %v",
				rewards[i], dones[i], want)
		}
	}
}

func TestAddInvalidDimensions(t *testing.T) {
	buffer := newTestBuffer(t, 1, 2)

	badState := timestep.Transition{
		State:     mat.NewVecDense(3, nil),
		Action:    mat.NewVecDense(testActionSize, nil),
		NextState: mat.NewVecDense(testFeatureSize, nil),
	}
	if err := buffer.Add(badState); err == nil {
		t.Error("add: expected error with wrong state size")
	}

	badAction := timestep.Transition{
		State:     mat.NewVecDense(testFeatureSize, nil),
		Action:    mat.NewVecDense(2, nil),
		NextState: mat.NewVecDense(testFeatureSize, nil),
	}
	if err := buffer.Add(badAction); err == nil {
		t.Error("add: expected error with wrong action size")
	}

	if buffer.Capacity() != 0 {
		t.Errorf("add: rejected transitions were stored, capacity %v",
			buffer.Capacity())
	}
}

func BenchmarkAdd(b *testing.B) {
	buffer, err := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        32,
		MaxReplayCapacity: 10000,
		MinReplayCapacity: 1,
	}.Create(testFeatureSize, testActionSize, 14)
	if err != nil {
		b.Fatalf("create: %v", err)
	}

	transition := testTransition(1, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := buffer.Add(transition); err != nil {
			b.Fatalf("add: %v", err)
		}
	}
}

func BenchmarkSample(b *testing.B) {
	buffer, err := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        32,
		MaxReplayCapacity: 10000,
		MinReplayCapacity: 1,
	}.Create(testFeatureSize, testActionSize, 14)
	if err != nil {
		b.Fatalf("create: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if err := buffer.Add(testTransition(float64(i), false)); err != nil {
			b.Fatalf("add: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, _, _, err := buffer.Sample(); err != nil {
			b.Fatalf("sample: %v", err)
		}
	}
}

// TestNonPositiveRemoveSize checks that a remover which frees no
// slots is rejected at construction. Were such a buffer built, the
// first Add past capacity would have no empty slot to write into.
func TestNonPositiveRemoveSize(t *testing.T) {
	for _, removeSize := range []int{0, -1} {
		_, err := Config{
			RemoveMethod:      Fifo,
			SampleMethod:      Uniform,
			RemoveSize:        removeSize,
			SampleSize:        1,
			MaxReplayCapacity: 1,
			MinReplayCapacity: 1,
		}.Create(testFeatureSize, testActionSize, 14)
		if err == nil {
			t.Errorf("create: remove size %v accepted", removeSize)
		}
	}
}

func TestBatchLargerThanCapacity(t *testing.T) {
	_, err := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        10,
		MaxReplayCapacity: 5,
		MinReplayCapacity: 1,
	}.Create(testFeatureSize, testActionSize, 14)
	if err == nil {
		t.Error("create: expected error with batch size > capacity")
	}
}

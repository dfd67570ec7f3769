package expreplay

import (
	"math/rand"
)

// SelectorType describes a method of selecting indices from an
// experience replay buffer
type SelectorType string

const (
	Uniform SelectorType = "UniformSelector"
	Fifo    SelectorType = "FifoSelector"
)

// CreateSelector returns a new Selector of the given type which
// selects batchSize indices at a time
func CreateSelector(t SelectorType, batchSize int, seed int64) Selector {
	switch t {
	case Fifo:
		return NewFifoSelector(batchSize)
	default:
		return NewUniformSelector(batchSize, seed)
	}
}

// Selector implements functionality for choosing how data should be
// sampled and/or removed from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c *cache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int

	// registerAsRemover registers a Selector as a remover
	//
	// Some Selectors require different behaviour if they are removers,
	// so they should be notified if they become a remover to add this
	// additional behaviour
	registerAsRemover()
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly with replacement
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// registerAsRemover implements Selector interface
func (u *uniformSelector) registerAsRemover() {}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache) []int {
	// A batch needing every stored sample takes each exactly once
	if u.BatchSize() == c.Capacity() {
		return c.insertOrder(u.BatchSize())
	}

	from := c.sampleFrom()
	selected := make([]int, u.BatchSize())
	for i := 0; i < u.BatchSize(); i++ {
		selected[i] = from[u.rng.Intn(len(from))]
	}

	return selected
}

// fifoSelector is a Selector which selects data from an experience
// replay buffer as first-in-first-out.
type fifoSelector struct {
	samples int
	remover bool
}

// NewFifoSelector returns a new Selector which draws data from an
// experience replay buffer as FiFo.
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples, remover: false}
}

// registerAsRemover implements Selector interface
func (f *fifoSelector) registerAsRemover() {
	f.remover = true
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f *fifoSelector) choose(c *cache) []int {
	n := f.BatchSize()
	if capacity := c.Capacity(); n > capacity {
		n = capacity
	}
	selected := c.insertOrder(n)

	if f.remover {
		// In a FiFo remover, the indices at which data was first
		// added get freed first, so they leave the ordering of
		// inserted indices
		for i := 0; i < n; i++ {
			c.removeFront()
		}
	}

	return selected
}

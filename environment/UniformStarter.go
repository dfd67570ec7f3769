package environment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter implements the Starter interface, drawing starting
// states uniformly at random from within fixed per-dimension bounds
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter that draws starting
// states from within bounds. One interval is needed per state feature.
// NewUniformStarter returns an error if any interval has Min > Max.
func NewUniformStarter(bounds []r1.Interval, seed uint64) (UniformStarter,
	error) {
	for i, interval := range bounds {
		if interval.Min > interval.Max {
			return UniformStarter{}, fmt.Errorf("newUniformStarter: invalid "+
				"bounds at feature %d \n\twant(Min <= Max) \n\thave(%v > %v)",
				i, interval.Min, interval.Max)
		}
	}

	source := rand.NewSource(seed)
	dist := distmv.NewUniform(bounds, source)

	return UniformStarter{len(bounds), seed, dist}, nil
}

// Start samples and returns a starting state
func (u UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

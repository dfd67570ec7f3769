package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig implements a configuration of a Glorot uniform weight
// initializer with the given gain
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type returns the type of the weight initializer created using this
// config
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig implements a configuration of a Glorot normal weight
// initializer with the given gain
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type returns the type of the weight initializer created using this
// config
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}

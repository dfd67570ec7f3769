package initwfn

import G "gorgonia.org/gorgonia"

// HeUConfig implements a configuration of a He uniform weight
// initializer with the given gain
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

// Type returns the type of the weight initializer created using this
// config
func (h HeUConfig) Type() Type {
	return HeU
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (h HeUConfig) Create() G.InitWFn {
	return G.HeU(h.Gain)
}

// HeNConfig implements a configuration of a He normal weight
// initializer with the given gain
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

// Type returns the type of the weight initializer created using this
// config
func (h HeNConfig) Type() Type {
	return HeN
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (h HeNConfig) Create() G.InitWFn {
	return G.HeN(h.Gain)
}

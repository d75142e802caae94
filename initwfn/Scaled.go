package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// GlorotUConfig describes Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type implements the Config interface
func (g GlorotUConfig) Type() Type { return GlorotU }

// Create implements the Config interface
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }

// Validate implements the Config interface
func (g GlorotUConfig) Validate() error { return validateGain(g.Gain) }

// GlorotNConfig describes Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type implements the Config interface
func (g GlorotNConfig) Type() Type { return GlorotN }

// Create implements the Config interface
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }

// Validate implements the Config interface
func (g GlorotNConfig) Validate() error { return validateGain(g.Gain) }

// HeUConfig describes He uniform initialization, suited to the ReLU
// hidden layer of the forward dynamics model
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

// Type implements the Config interface
func (h HeUConfig) Type() Type { return HeU }

// Create implements the Config interface
func (h HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }

// Validate implements the Config interface
func (h HeUConfig) Validate() error { return validateGain(h.Gain) }

// HeNConfig describes He normal initialization
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

// Type implements the Config interface
func (h HeNConfig) Type() Type { return HeN }

// Create implements the Config interface
func (h HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }

// Validate implements the Config interface
func (h HeNConfig) Validate() error { return validateGain(h.Gain) }

func validateGain(gain float64) error {
	if gain <= 0 {
		return fmt.Errorf("gain must be positive, have(%v)", gain)
	}
	return nil
}

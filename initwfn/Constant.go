package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// ZeroesConfig initializes all weights to 0
type ZeroesConfig struct{}

// NewZeroes returns a new weight initializer setting all weights to 0
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type implements the Config interface
func (ZeroesConfig) Type() Type { return Zeroes }

// Create implements the Config interface
func (ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

// Validate implements the Config interface
func (ZeroesConfig) Validate() error { return nil }

// OnesConfig initializes all weights to 1
type OnesConfig struct{}

// NewOnes returns a new weight initializer setting all weights to 1
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

// Type implements the Config interface
func (OnesConfig) Type() Type { return Ones }

// Create implements the Config interface
func (OnesConfig) Create() G.InitWFn { return G.Ones() }

// Validate implements the Config interface
func (OnesConfig) Validate() error { return nil }

// ConstantConfig initializes all weights to Value. Output heads of the
// actor are commonly started from a small constant so that the initial
// policy is close to uniform.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new weight initializer setting all weights to
// value
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

// Type implements the Config interface
func (c ConstantConfig) Type() Type { return Constant }

// Create implements the Config interface
func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }

// Validate implements the Config interface
func (c ConstantConfig) Validate() error {
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("value must be finite, have(%v)", c.Value)
	}
	return nil
}

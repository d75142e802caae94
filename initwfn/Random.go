package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// UniformConfig draws weights uniformly from [Low, High)
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

// Type implements the Config interface
func (u UniformConfig) Type() Type { return Uniform }

// Create implements the Config interface
func (u UniformConfig) Create() G.InitWFn { return G.Uniform(u.Low, u.High) }

// Validate implements the Config interface
func (u UniformConfig) Validate() error {
	if u.Low >= u.High {
		return fmt.Errorf("low must be less than high, have(%v, %v)", u.Low,
			u.High)
	}
	return nil
}

// GaussianConfig draws weights from a normal distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new Gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stddev})
}

// Type implements the Config interface
func (g GaussianConfig) Type() Type { return Gaussian }

// Create implements the Config interface
func (g GaussianConfig) Create() G.InitWFn { return G.Gaussian(g.Mean, g.StdDev) }

// Validate implements the Config interface
func (g GaussianConfig) Validate() error {
	if g.StdDev < 0 {
		return fmt.Errorf("standard deviation must be non-negative, have(%v)",
			g.StdDev)
	}
	return nil
}

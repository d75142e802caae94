package icm

import "fmt"

// Config holds the hyperparameters of the ICM
type Config struct {
	// Scaling multiplies the forward prediction error to form the
	// intrinsic reward
	Scaling float64

	InverseIters int
	ForwardIters int
}

// DefaultConfig returns the default ICM hyperparameters
func DefaultConfig() Config {
	return Config{
		Scaling:      1.0,
		InverseIters: 80,
		ForwardIters: 80,
	}
}

// Validate checks a Config for validity
func (c Config) Validate() error {
	if c.Scaling < 0 {
		return fmt.Errorf("validate: scaling must be non-negative, have(%v)",
			c.Scaling)
	}
	if c.InverseIters < 1 || c.ForwardIters < 1 {
		return fmt.Errorf("validate: iterations must be positive, "+
			"have(inverse=%v, forward=%v)", c.InverseIters, c.ForwardIters)
	}
	return nil
}

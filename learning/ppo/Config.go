package ppo

import "fmt"

// Config holds the hyperparameters of PPO
type Config struct {
	// Clip is ɛ, the clip range of the probability ratio
	Clip float64

	// TargetKL is the target approximate KL divergence between the old
	// and new policies. Actor updates stop once the approximate KL of a
	// mini-batch exceeds 1.5 * TargetKL.
	TargetKL float64

	// Discount is ℽ and GAE is λ of GAE(λ)
	Discount float64
	GAE      float64

	ActorIters  int
	CriticIters int
}

// DefaultConfig returns the default PPO hyperparameters
func DefaultConfig() Config {
	return Config{
		Clip:        0.2,
		TargetKL:    0.01,
		Discount:    0.99,
		GAE:         0.97,
		ActorIters:  80,
		CriticIters: 80,
	}
}

// Validate checks a Config for validity
func (c Config) Validate() error {
	if c.Clip <= 0 {
		return fmt.Errorf("validate: clip must be positive, have(%v)", c.Clip)
	}
	if c.TargetKL <= 0 {
		return fmt.Errorf("validate: target KL must be positive, have(%v)",
			c.TargetKL)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], have(%v)",
			c.Discount)
	}
	if c.GAE < 0 || c.GAE > 1 {
		return fmt.Errorf("validate: λ must be in [0, 1], have(%v)", c.GAE)
	}
	if c.ActorIters < 1 || c.CriticIters < 1 {
		return fmt.Errorf("validate: iterations must be positive, "+
			"have(actor=%v, critic=%v)", c.ActorIters, c.CriticIters)
	}
	return nil
}

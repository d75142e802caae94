package agent

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/initwfn"
	"github.com/samuelfneumann/mineagent/learning/icm"
	"github.com/samuelfneumann/mineagent/learning/ppo"
	"github.com/samuelfneumann/mineagent/learning/td"
	"github.com/samuelfneumann/mineagent/solver"
)

// Config represents a configuration for creating an agent
type Config struct {
	Type Type

	// Capacity is the number of steps held in the trajectory store.
	// Curious agents update every step once the store is full.
	Capacity int
	Space    action.Space

	PPO ppo.Config
	ICM icm.Config
	TD  td.Config

	Network NetworkConfig

	// Solvers are cloned for each set of parameters they step, so
	// that stateful solvers never share statistics between models.
	// ActorCritic agents step both actor and critic with ActorSolver.
	ActorSolver   *solver.Solver
	CriticSolver  *solver.Solver
	ForwardSolver *solver.Solver
	InverseSolver *solver.Solver
}

// NetworkConfig describes the function approximators of an agent
type NetworkConfig struct {
	// ForwardHidden is the size of the hidden layer of the forward
	// dynamics model
	ForwardHidden int
	Init          *initwfn.InitWFn
}

// DefaultConfig returns the default configuration of a Curious agent
func DefaultConfig() Config {
	return Config{
		Type:     Curious,
		Capacity: 50,
		Space:    action.DefaultSpace(),
		PPO:      ppo.DefaultConfig(),
		ICM:      icm.DefaultConfig(),
		TD:       td.DefaultConfig(),
		Network: NetworkConfig{
			ForwardHidden: 512,
			Init:          must(initwfn.NewGlorotU(1.0)),
		},
		ActorSolver:   must(solver.NewDefaultAdam(3e-4, 1)),
		CriticSolver:  must(solver.NewDefaultAdam(1e-3, 1)),
		ForwardSolver: must(solver.NewDefaultAdam(1e-3, 1)),
		InverseSolver: must(solver.NewDefaultAdam(1e-3, 1)),
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if c.Type != Curious && c.Type != ActorCritic {
		return fmt.Errorf("validate: unknown agent type %q", c.Type)
	}
	if c.Capacity < 2 {
		return fmt.Errorf("validate: capacity must be at least 2, have(%v)",
			c.Capacity)
	}
	if err := c.Space.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.Network.Init == nil {
		return fmt.Errorf("validate: missing weight initializer")
	}
	if c.ActorSolver == nil {
		return fmt.Errorf("validate: missing actor solver")
	}

	switch c.Type {
	case Curious:
		if err := c.PPO.Validate(); err != nil {
			return fmt.Errorf("validate: ppo: %v", err)
		}
		if err := c.ICM.Validate(); err != nil {
			return fmt.Errorf("validate: icm: %v", err)
		}
		if c.Network.ForwardHidden < 1 {
			return fmt.Errorf("validate: forward hidden size must be "+
				"positive, have(%v)", c.Network.ForwardHidden)
		}
		if c.CriticSolver == nil || c.ForwardSolver == nil ||
			c.InverseSolver == nil {
			return fmt.Errorf("validate: missing solver")
		}

	case ActorCritic:
		if c.TD.Discount < 0 || c.TD.Discount > 1 {
			return fmt.Errorf("validate: td: discount must be in [0, 1], "+
				"have(%v)", c.TD.Discount)
		}
	}

	return nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

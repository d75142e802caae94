// Package environment outlines the interfaces and structs needed to
// implement environments which emit embeddings and accept hybrid
// actions
package environment

import (
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when episodes end
type Ender interface {
	// End returns whether the episode should end on t, in which case
	// t is modified to be the last step of the episode
	End(t *timestep.TimeStep) bool
}

// Environment implements a simulated environment which emits the
// embeddings of its observations
type Environment interface {
	Reset() (timestep.TimeStep, error) // Resets between episodes
	Step(a action.Vector) (timestep.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpace() action.Space
}

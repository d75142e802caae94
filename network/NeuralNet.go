// Package network implements the function approximators used by the
// agent: a policy over hybrid actions, a state-value critic, and the
// forward and inverse dynamics models used for curiosity.
//
// Parameters of each approximator are held outside of any
// computational graph. Each call to Fwd binds the current parameters
// into the graph of the input node and returns the bound parameter
// nodes so that they can be differentiated and stepped by a solver.
// After a solver step, Load copies the stepped values back into the
// parameters.
package network

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Mode denotes whether an approximator is being trained or evaluated
type Mode int

const (
	// Evaluation is the default mode, used when acting
	Evaluation Mode = iota

	// Training is used while an optimizer steps the parameters
	Training
)

// String implements the fmt.Stringer interface
func (m Mode) String() string {
	switch m {
	case Evaluation:
		return "evaluation"
	case Training:
		return "training"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Module is a differentiable function approximator
type Module interface {
	// SetMode sets the mode of the Module
	SetMode(Mode)

	// Mode returns the current mode of the Module
	Mode() Mode

	// Learnables returns the parameters of the Module, in the same
	// order as the parameter nodes returned by its forward pass
	Learnables() []*tensor.Dense
}

// Actor maps a batch of embeddings to a batch of action distributions
type Actor interface {
	Module
	Fwd(x *G.Node) (action.Nodes, G.Nodes, error)
}

// Critic maps a batch of embeddings to a (batch, 1) node of state
// values
type Critic interface {
	Module
	Fwd(x *G.Node) (*G.Node, G.Nodes, error)
}

// ForwardDynamics predicts the next embedding from a batch of
// embeddings and a (batch, action.Dims) batch of flat actions
type ForwardDynamics interface {
	Module
	Fwd(features, actions *G.Node) (*G.Node, G.Nodes, error)
}

// InverseDynamics predicts the distribution over actions that led
// from a batch of embeddings to a batch of next embeddings
type InverseDynamics interface {
	Module
	Fwd(features, next *G.Node) (action.Nodes, G.Nodes, error)
}

// modal implements the mode bookkeeping shared by all Modules
type modal struct {
	mode Mode
}

// SetMode sets the mode
func (m *modal) SetMode(mode Mode) {
	m.mode = mode
}

// Mode returns the current mode
func (m *modal) Mode() Mode {
	return m.mode
}

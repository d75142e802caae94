package network

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLPForwardDynamics predicts the next embedding from the concatenation
// of an embedding and a flat action using a multi-layered perceptron
type MLPForwardDynamics struct {
	modal
	features int
	net      *mlp
}

// NewForwardDynamics returns a forward dynamics model with a single
// ReLU hidden layer of the given size
func NewForwardDynamics(name string, features, hidden int,
	init G.InitWFn) (*MLPForwardDynamics, error) {
	net, err := newMLP(name, features+action.Dims, features, []int{hidden},
		[]bool{true}, []*Activation{ReLU()}, init)
	if err != nil {
		return nil, fmt.Errorf("newForwardDynamics: %v", err)
	}
	return &MLPForwardDynamics{features: features, net: net}, nil
}

// Fwd adds the forward pass of the model to the graph of features,
// which must have shape (batch, features). The actions node must have
// shape (batch, action.Dims).
func (m *MLPForwardDynamics) Fwd(features, actions *G.Node) (*G.Node,
	G.Nodes, error) {
	if features.Graph() != actions.Graph() {
		return nil, nil, fmt.Errorf("fwd: features and actions must share " +
			"the same graph")
	}
	x, err := G.Concat(1, features, actions)
	if err != nil {
		return nil, nil, fmt.Errorf("fwd: could not concatenate inputs: %v",
			err)
	}

	next, learnables, err := m.net.fwd(x)
	if err != nil {
		return nil, nil, fmt.Errorf("fwd: %v", err)
	}
	return next, learnables, nil
}

// Learnables returns the parameters of the model
func (m *MLPForwardDynamics) Learnables() []*tensor.Dense {
	return m.net.learnables()
}

// Features returns the dimension of the embeddings
func (m *MLPForwardDynamics) Features() int {
	return m.features
}

// LinearInverseDynamics predicts the action taken between two
// embeddings with a LinearAffector over their concatenation
type LinearInverseDynamics struct {
	modal
	features int
	affector *LinearAffector
}

// NewInverseDynamics returns a new inverse dynamics model over
// embeddings with the given number of features
func NewInverseDynamics(name string, features int, space action.Space,
	init G.InitWFn) (*LinearInverseDynamics, error) {
	affector, err := NewLinearAffector(name, 2*features, space, init)
	if err != nil {
		return nil, fmt.Errorf("newInverseDynamics: %v", err)
	}
	return &LinearInverseDynamics{features: features, affector: affector}, nil
}

// Fwd adds the forward pass of the model to the graph of features.
// Both features and next must have shape (batch, features).
func (l *LinearInverseDynamics) Fwd(features, next *G.Node) (action.Nodes,
	G.Nodes, error) {
	if features.Graph() != next.Graph() {
		return action.Nodes{}, nil, fmt.Errorf("fwd: features and next " +
			"features must share the same graph")
	}
	x, err := G.Concat(1, features, next)
	if err != nil {
		return action.Nodes{}, nil, fmt.Errorf("fwd: could not "+
			"concatenate inputs: %v", err)
	}

	return l.affector.Fwd(x)
}

// SetMode sets the mode of the model
func (l *LinearInverseDynamics) SetMode(mode Mode) {
	l.modal.SetMode(mode)
	l.affector.SetMode(mode)
}

// Learnables returns the parameters of the model
func (l *LinearInverseDynamics) Learnables() []*tensor.Dense {
	return l.affector.Learnables()
}

// Features returns the dimension of the embeddings
func (l *LinearInverseDynamics) Features() int {
	return l.features
}

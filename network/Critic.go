package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLPCritic is a state-value critic implemented as a multi-layered
// perceptron with a single output
type MLPCritic struct {
	modal
	net *mlp
}

// NewLinearCritic returns a critic which is linear in the embedding
func NewLinearCritic(name string, features int,
	init G.InitWFn) (*MLPCritic, error) {
	return NewMLPCritic(name, features, nil, nil, nil, init)
}

// NewMLPCritic returns a new critic with the given hidden layers.
//
// See newMLP for details on hiddenSizes, biases, and activations.
func NewMLPCritic(name string, features int, hiddenSizes []int,
	biases []bool, activations []*Activation,
	init G.InitWFn) (*MLPCritic, error) {
	net, err := newMLP(name, features, 1, hiddenSizes, biases, activations,
		init)
	if err != nil {
		return nil, fmt.Errorf("newMLPCritic: %v", err)
	}
	return &MLPCritic{net: net}, nil
}

// Fwd adds the forward pass of the critic to the graph of x, which
// must have shape (batch, features). The returned node has shape
// (batch, 1).
func (m *MLPCritic) Fwd(x *G.Node) (*G.Node, G.Nodes, error) {
	value, learnables, err := m.net.fwd(x)
	if err != nil {
		return nil, nil, fmt.Errorf("fwd: %v", err)
	}
	return value, learnables, nil
}

// Learnables returns the parameters of the critic
func (m *MLPCritic) Learnables() []*tensor.Dense {
	return m.net.learnables()
}

// Features returns the number of input features
func (m *MLPCritic) Features() int {
	return m.net.inputs()
}

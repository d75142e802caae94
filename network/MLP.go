package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron
type mlp struct {
	layers []*fcLayer
}

// newMLP returns a new mlp with len(hiddenSizes) + 1 layers. The final
// layer has outputs units, a bias, and no activation.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func newMLP(name string, features, outputs int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn) (*mlp, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if features < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features and outputs must be "+
			"positive, have(%v, %v)", features, outputs)
	}

	layers := make([]*fcLayer, 0, len(hiddenSizes)+1)
	in := features
	for i, size := range hiddenSizes {
		if size < 1 {
			return nil, fmt.Errorf("newMLP: hidden layer %v must have at "+
				"least one unit, have(%v)", i, size)
		}
		layers = append(layers, newFCLayer(fmt.Sprintf("%vL%d", name, i),
			in, size, biases[i], activations[i], init))
		in = size
	}
	layers = append(layers, newFCLayer(
		fmt.Sprintf("%vL%d", name, len(hiddenSizes)), in, outputs, true,
		Identity(), init,
	))

	return &mlp{layers: layers}, nil
}

// fwd adds the forward pass of the mlp to the graph of x
func (m *mlp) fwd(x *G.Node) (*G.Node, G.Nodes, error) {
	var learnables G.Nodes
	for _, layer := range m.layers {
		var layerLearnables G.Nodes
		var err error
		x, layerLearnables, err = layer.fwd(x)
		if err != nil {
			return nil, nil, err
		}
		learnables = append(learnables, layerLearnables...)
	}
	return x, learnables, nil
}

// learnables returns the parameters of the mlp in the order that fwd
// returns their nodes
func (m *mlp) learnables() []*tensor.Dense {
	var params []*tensor.Dense
	for _, layer := range m.layers {
		params = append(params, layer.learnables()...)
	}
	return params
}

func (m *mlp) inputs() int {
	return m.layers[0].inputs()
}

func (m *mlp) outputs() int {
	return m.layers[len(m.layers)-1].outputs()
}

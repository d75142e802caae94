package network

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/utils/op"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// stdOffset is added to the softplus of the predicted standard
// deviations so that they are strictly positive
const stdOffset = 1e-3

// LinearAffector is a linear policy over hybrid actions. Each
// categorical component is predicted by its own linear head followed
// by a softmax. The means of the region of interest are predicted
// linearly, and the standard deviations linearly followed by a
// softplus.
type LinearAffector struct {
	modal
	name     string
	features int
	space    action.Space

	heads [action.NumCategorical]*fcLayer
	means *fcLayer
	stds  *fcLayer
}

// NewLinearAffector returns a new LinearAffector over embeddings with
// the given number of features. The name prefixes the names of all
// nodes the LinearAffector adds to a graph, and so must be unique among
// the modules sharing a graph.
func NewLinearAffector(name string, features int, space action.Space,
	init G.InitWFn) (*LinearAffector, error) {
	if features < 1 {
		return nil, fmt.Errorf("newLinearAffector: features must be "+
			"positive, have(%v)", features)
	}
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("newLinearAffector: %v", err)
	}

	l := &LinearAffector{
		name:     name,
		features: features,
		space:    space,
	}
	for i, n := range space {
		l.heads[i] = newFCLayer(fmt.Sprintf("%vHead%d", name, i), features,
			n, true, Identity(), init)
	}
	l.means = newFCLayer(name+"Mean", features, action.NumContinuous, true,
		Identity(), init)
	l.stds = newFCLayer(name+"Std", features, action.NumContinuous, true,
		SoftPlus(), init)

	return l, nil
}

// Fwd adds the forward pass of the LinearAffector to the graph of x,
// which must have shape (batch, features).
func (l *LinearAffector) Fwd(x *G.Node) (action.Nodes, G.Nodes, error) {
	var dist action.Nodes
	var learnables G.Nodes

	for i, head := range l.heads {
		logits, nodes, err := head.fwd(x)
		if err != nil {
			return action.Nodes{}, nil, fmt.Errorf("fwd: %v", err)
		}
		dist.Categorical[i] = op.SoftMax(logits)
		learnables = append(learnables, nodes...)
	}

	mean, nodes, err := l.means.fwd(x)
	if err != nil {
		return action.Nodes{}, nil, fmt.Errorf("fwd: %v", err)
	}
	dist.Mean = mean
	learnables = append(learnables, nodes...)

	std, nodes, err := l.stds.fwd(x)
	if err != nil {
		return action.Nodes{}, nil, fmt.Errorf("fwd: %v", err)
	}
	dist.Std = G.Must(G.Add(std, G.NewConstant(stdOffset)))
	learnables = append(learnables, nodes...)

	return dist, learnables, nil
}

// Learnables returns the parameters of the LinearAffector
func (l *LinearAffector) Learnables() []*tensor.Dense {
	var params []*tensor.Dense
	for _, head := range l.heads {
		params = append(params, head.learnables()...)
	}
	params = append(params, l.means.learnables()...)
	return append(params, l.stds.learnables()...)
}

// Features returns the number of input features
func (l *LinearAffector) Features() int {
	return l.features
}

// Space returns the cardinalities of the categorical components
func (l *LinearAffector) Space() action.Space {
	return l.space
}

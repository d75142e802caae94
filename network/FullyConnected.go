package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network. Weights have shape (in, out) and the bias, if present, has
// shape (1, out).
type fcLayer struct {
	name    string
	weights *tensor.Dense
	bias    *tensor.Dense
	act     *Activation
}

// newFCLayer returns a new fcLayer whose weights are initialized with
// init and whose bias is initialized to zero.
func newFCLayer(name string, in, out int, bias bool, act *Activation,
	init G.InitWFn) *fcLayer {
	weights := tensor.New(
		tensor.WithShape(in, out),
		tensor.WithBacking(init(tensor.Float64, in, out)),
	)

	var b *tensor.Dense
	if bias {
		b = tensor.New(
			tensor.WithShape(1, out),
			tensor.WithBacking(make([]float64, out)),
		)
	}

	return &fcLayer{
		name:    name,
		weights: weights,
		bias:    b,
		act:     act,
	}
}

// fwd adds the forward pass of the fcLayer to the graph of x. The
// parameter nodes bound into the graph are returned with the output.
func (f *fcLayer) fwd(x *G.Node) (*G.Node, G.Nodes, error) {
	if !x.IsMatrix() {
		return nil, nil, fmt.Errorf("fwd: layer %v input must be a matrix, "+
			"have shape %v", f.name, x.Shape())
	}
	if cols := x.Shape()[1]; cols != f.inputs() {
		return nil, nil, fmt.Errorf("fwd: layer %v illegal number of input "+
			"features \n\twant(%v)\n\thave(%v)", f.name, f.inputs(), cols)
	}

	g := x.Graph()
	weights := bind(g, f.weights, f.name+"W")
	learnables := G.Nodes{weights}
	x = G.Must(G.Mul(x, weights))

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		bias := bind(g, f.bias, f.name+"B")
		learnables = append(learnables, bias)
		x = G.Must(G.BroadcastAdd(x, bias, nil, []byte{0}))
	}

	if f.act == nil || f.act.IsIdentity() {
		return x, learnables, nil
	}
	out, err := f.act.fwd(x)
	if err != nil {
		return nil, nil, fmt.Errorf("fwd: layer %v activation: %v", f.name,
			err)
	}
	return out, learnables, nil
}

// learnables returns the parameters of the layer in the order that
// fwd returns their nodes
func (f *fcLayer) learnables() []*tensor.Dense {
	if f.bias == nil {
		return []*tensor.Dense{f.weights}
	}
	return []*tensor.Dense{f.weights, f.bias}
}

func (f *fcLayer) inputs() int {
	return f.weights.Shape()[0]
}

func (f *fcLayer) outputs() int {
	return f.weights.Shape()[1]
}

// bind adds a matrix input node to g holding the value t
func bind(g *G.ExprGraph, t *tensor.Dense, name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(t.Shape()...),
		G.WithValue(t),
		G.WithName(name),
	)
}

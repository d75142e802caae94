package action

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/utils/op"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Nodes holds a batch of action distributions as nodes of a
// computational graph. Each categorical node has shape
// (batch, categories) and holds probabilities; Mean and Std have shape
// (batch, NumContinuous).
type Nodes struct {
	Categorical [NumCategorical]*G.Node
	Mean        *G.Node
	Std         *G.Node
}

// Graph returns the graph that the distribution nodes belong to
func (n Nodes) Graph() *G.ExprGraph {
	return n.Mean.Graph()
}

// BatchSize returns the number of distributions in the batch
func (n Nodes) BatchSize() int {
	return n.Mean.Shape()[0]
}

// validate checks that n is a consistent batch of batchSize
// distributions which all belong to the same graph.
func (n Nodes) validate(batchSize int) error {
	if n.Mean == nil || n.Std == nil {
		return fmt.Errorf("%w: missing gaussian parameters", ErrMalformed)
	}
	g := n.Graph()
	nodes := append(G.Nodes{n.Mean, n.Std}, n.Categorical[:]...)
	for i, node := range nodes {
		if node == nil {
			return fmt.Errorf("%w: missing node %v", ErrMalformed, i)
		}
		if node.Graph() != g {
			return fmt.Errorf("%w: node %v belongs to a different graph",
				ErrMalformed, node.Name())
		}
		shape := node.Shape()
		if len(shape) != 2 || shape[0] != batchSize {
			return fmt.Errorf("%w: node %v has shape %v, want batch size "+
				"%v", ErrMalformed, node.Name(), shape, batchSize)
		}
	}
	if c := n.Mean.Shape()[1]; c != NumContinuous {
		return fmt.Errorf("%w: mean has %v columns, want %v",
			ErrMalformed, c, NumContinuous)
	}
	return nil
}

// OneHot returns a (len(actions), classes) matrix whose row i holds a
// one-hot encoding of categorical component of actions[i].
func OneHot(actions []Vector, component, classes int) (*tensor.Dense,
	error) {
	if component < 0 || component >= NumCategorical {
		return nil, fmt.Errorf("oneHot: %w: no categorical component %v",
			ErrMalformed, component)
	}

	backing := make([]float64, len(actions)*classes)
	for i, a := range actions {
		index := a.Index(component)
		if a[component] != float64(index) || index < 0 || index >= classes {
			return nil, fmt.Errorf("oneHot: %w: action %v has index %v "+
				"for component %v with %v categories", ErrMalformed, i,
				a[component], component, classes)
		}
		backing[i*classes+index] = 1.0
	}

	return tensor.New(
		tensor.WithShape(len(actions), classes),
		tensor.WithBacking(backing),
	), nil
}

// ROI returns a (len(actions), NumContinuous) matrix holding the
// continuous coordinates of each action.
func ROI(actions []Vector) *tensor.Dense {
	backing := make([]float64, 0, len(actions)*NumContinuous)
	for _, a := range actions {
		backing = append(backing, a[NumCategorical:]...)
	}
	return tensor.New(
		tensor.WithShape(len(actions), NumContinuous),
		tensor.WithBacking(backing),
	)
}

// Matrix returns a (len(actions), Dims) matrix of flat actions
func Matrix(actions []Vector) *tensor.Dense {
	backing := make([]float64, 0, len(actions)*Dims)
	for _, a := range actions {
		backing = append(backing, a[:]...)
	}
	return tensor.New(
		tensor.WithShape(len(actions), Dims),
		tensor.WithBacking(backing),
	)
}

// JointLogProb adds to the graph of d the operations needed to compute
// the joint log probability of each action in actions under the
// corresponding distribution of the batch d. The returned node has
// shape (len(actions)) and is differentiable with respect to the
// parameters that produced d.
//
// The joint log probability is the sum of the log probability of each
// taken category and the Gaussian log density of the taken
// coordinates. Each categorical probability is gathered by multiplying
// with a one-hot mask of the taken index.
//
// JointLogProb should be called at most once for each graph.
func JointLogProb(d Nodes, actions []Vector) (*G.Node, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("jointLogProb: %w: no actions", ErrMalformed)
	}
	if err := d.validate(len(actions)); err != nil {
		return nil, fmt.Errorf("jointLogProb: %w", err)
	}
	g := d.Graph()
	batch := len(actions)

	var joint *G.Node
	for i, probs := range d.Categorical {
		classes := probs.Shape()[1]
		mask, err := OneHot(actions, i, classes)
		if err != nil {
			return nil, fmt.Errorf("jointLogProb: %w", err)
		}
		maskNode := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(batch, classes),
			G.WithValue(mask),
			G.WithName(fmt.Sprintf("actionMask%d", i)),
		)

		taken := G.Must(G.HadamardProd(probs, maskNode))
		taken = G.Must(G.Sum(taken, 1))
		logProb := G.Must(G.Log(taken))

		if joint == nil {
			joint = logProb
		} else {
			joint = G.Must(G.Add(joint, logProb))
		}
	}

	roi := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, NumContinuous),
		G.WithValue(ROI(actions)),
		G.WithName("actionROI"),
	)
	gaussian := op.GaussianLogPdf(d.Mean, d.Std, roi)
	gaussian = G.Must(G.Sum(gaussian, 1))

	return G.Add(joint, gaussian)
}

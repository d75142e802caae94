// Package icm implements the Intrinsic Curiosity Module of
// https://arxiv.org/abs/1705.05363. A forward dynamics model predicts
// the next embedding from an embedding and an action, and its
// prediction error is used as an intrinsic reward. An inverse dynamics
// model predicts the action taken between two successive embeddings.
package icm

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/buffer/batch"
	"github.com/samuelfneumann/mineagent/buffer/trajectory"
	"github.com/samuelfneumann/mineagent/network"
	"github.com/samuelfneumann/mineagent/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// varianceEps is the minimum variance used in the Gaussian negative
// log likelihood of the inverse dynamics loss
const varianceEps = 1e-6

// Sample is a finalized batch of T-1 transitions drawn from a
// trajectory of T steps
type Sample struct {
	Features [][]float64
	Next     [][]float64
	Actions  []action.Vector
}

// Len returns the number of rows in the Sample
func (s Sample) Len() int {
	return len(s.Features)
}

// Finalize freezes a trajectory into a Sample, pairing the embedding
// and action of step t with the embedding of step t+1.
func Finalize(t trajectory.Reader) (Sample, error) {
	n := t.Len()
	if n < 2 {
		return Sample{}, &trajectory.Error{
			Op: "finalize",
			Err: fmt.Errorf("%w: need at least 2 steps, have(%v)",
				trajectory.ErrTooShort, n),
		}
	}

	embeddings := t.Embeddings()
	return Sample{
		Features: embeddings[:n-1],
		Next:     embeddings[1:],
		Actions:  t.Actions()[:n-1],
	}, nil
}

// Stats summarizes a single call to Update
type Stats struct {
	Rows int

	InverseSteps int
	ForwardSteps int

	// InverseLoss and ForwardLoss are mean losses over all mini-batches
	InverseLoss float64
	ForwardLoss float64
}

// Scalars returns the Stats as named scalars for telemetry
func (s Stats) Scalars() map[string]float64 {
	return map[string]float64{
		"rows":          float64(s.Rows),
		"inverse_steps": float64(s.InverseSteps),
		"forward_steps": float64(s.ForwardSteps),
		"inverse_loss":  s.InverseLoss,
		"forward_loss":  s.ForwardLoss,
	}
}

// ICM computes intrinsic rewards and trains the dynamics models
type ICM struct {
	forward       network.ForwardDynamics
	inverse       network.InverseDynamics
	forwardSolver G.Solver
	inverseSolver G.Solver

	scaling      float64
	inverseIters int
	forwardIters int

	src    rand.Source
	logger zerolog.Logger
}

// Option configures optional behaviour of the ICM
type Option func(*ICM)

// WithLogger sets the logger used by the ICM
func WithLogger(logger zerolog.Logger) Option {
	return func(i *ICM) {
		i.logger = logger
	}
}

// New returns a new ICM. The seed determines the order of mini-batches.
func New(forward network.ForwardDynamics, inverse network.InverseDynamics,
	forwardSolver, inverseSolver G.Solver, c Config, seed uint64,
	opts ...Option) (*ICM, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if forward == nil || inverse == nil {
		return nil, fmt.Errorf("new: dynamics models must be non-nil")
	}
	if forwardSolver == nil || inverseSolver == nil {
		return nil, fmt.Errorf("new: solvers must be non-nil")
	}

	i := &ICM{
		forward:       forward,
		inverse:       inverse,
		forwardSolver: forwardSolver,
		inverseSolver: inverseSolver,
		scaling:       c.Scaling,
		inverseIters:  c.InverseIters,
		forwardIters:  c.ForwardIters,
		src:           rand.NewSource(seed),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With().Str("component", "icm").Logger()

	return i, nil
}

// IntrinsicReward returns the scaled mean squared error between the
// forward dynamics prediction for (embedding, a) and next. No
// gradients are computed and the dynamics models are not modified.
func (i *ICM) IntrinsicReward(embedding []float64, a action.Vector,
	next []float64) (float64, error) {
	predicted, err := network.PredictNext(i.forward, embedding, a)
	if err != nil {
		return 0, fmt.Errorf("intrinsicReward: %v", err)
	}
	if len(predicted) != len(next) {
		return 0, fmt.Errorf("intrinsicReward: illegal next embedding "+
			"length \n\twant(%v)\n\thave(%v)", len(predicted), len(next))
	}

	dist := floats.Distance(predicted, next, 2)
	return i.scaling * dist * dist / float64(len(next)), nil
}

// Update trains the inverse dynamics model and then the forward
// dynamics model on the transitions of a trajectory. Each model makes
// a single pass of mini-batched gradient steps.
func (i *ICM) Update(t trajectory.Reader) (Stats, error) {
	sample, err := Finalize(t)
	if err != nil {
		return Stats{}, fmt.Errorf("update: %w", err)
	}
	stats := Stats{Rows: sample.Len()}

	if err := i.updateInverse(sample, &stats); err != nil {
		return stats, fmt.Errorf("update: %w", err)
	}
	if err := i.updateForward(sample, &stats); err != nil {
		return stats, fmt.Errorf("update: %w", err)
	}

	i.logger.Debug().
		Int("rows", stats.Rows).
		Int("inverseSteps", stats.InverseSteps).
		Int("forwardSteps", stats.ForwardSteps).
		Float64("inverseLoss", stats.InverseLoss).
		Float64("forwardLoss", stats.ForwardLoss).
		Msg("update complete")

	return stats, nil
}

// updateInverse runs the inverse dynamics phase of an update
func (i *ICM) updateInverse(sample Sample, stats *Stats) error {
	i.inverse.SetMode(network.Training)
	defer i.inverse.SetMode(network.Evaluation)

	sampler, err := batch.New(sample.Len(), i.inverseIters, true, i.src)
	if err != nil {
		return fmt.Errorf("updateInverse: %v", err)
	}

	total := 0.0
	for {
		indices, ok := sampler.Next()
		if !ok {
			break
		}
		loss, err := i.inverseStep(sample, indices)
		if err != nil {
			return fmt.Errorf("updateInverse: %v", err)
		}
		stats.InverseSteps++
		total += loss
	}
	stats.InverseLoss = total / float64(stats.InverseSteps)
	return nil
}

// inverseStep takes a single solver step on the negative log
// likelihood of the taken actions under the inverse dynamics model
func (i *ICM) inverseStep(sample Sample, indices []int) (float64, error) {
	g := G.NewGraph()
	x, err := network.NewInput(g, "features", rows(sample.Features, indices))
	if err != nil {
		return 0, err
	}
	next, err := network.NewInput(g, "next", rows(sample.Next, indices))
	if err != nil {
		return 0, err
	}

	dist, learnables, err := i.inverse.Fwd(x, next)
	if err != nil {
		return 0, err
	}

	actions := make([]action.Vector, len(indices))
	for j, index := range indices {
		actions[j] = sample.Actions[index]
	}

	loss, err := inverseLoss(dist, actions)
	if err != nil {
		return 0, err
	}
	var lossVal G.Value
	G.Read(loss, &lossVal)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, fmt.Errorf("could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("could not run inverse dynamics graph: %v", err)
	}

	if err := i.inverseSolver.Step(G.NodesToValueGrads(learnables)); err != nil {
		return 0, fmt.Errorf("could not step inverse dynamics: %v", err)
	}
	if err := network.Load(i.inverse.Learnables(), learnables); err != nil {
		return 0, err
	}
	return scalar(lossVal), nil
}

// inverseLoss returns the sum of the mean negative log likelihood of
// each categorical component of the taken actions and the mean
// Gaussian negative log likelihood of each continuous coordinate, with
// the predicted variance clamped below by varianceEps. Constant terms
// of the Gaussian likelihood are omitted.
func inverseLoss(dist action.Nodes, actions []action.Vector) (*G.Node,
	error) {
	g := dist.Graph()
	batchSize := len(actions)

	var loss *G.Node
	for j, probs := range dist.Categorical {
		classes := probs.Shape()[1]
		mask, err := action.OneHot(actions, j, classes)
		if err != nil {
			return nil, err
		}
		maskNode := network.NewInputFromBacking(g,
			fmt.Sprintf("inverseMask%d", j), batchSize, classes,
			mask.Data().([]float64))

		taken := G.Must(G.Sum(G.Must(G.HadamardProd(probs, maskNode)), 1))
		nll := G.Must(G.Neg(G.Must(G.Mean(G.Must(G.Log(taken))))))

		if loss == nil {
			loss = nll
		} else {
			loss = G.Must(G.Add(loss, nll))
		}
	}

	roi := network.NewInputFromBacking(g, "inverseROI", batchSize,
		action.NumContinuous, action.ROI(actions).Data().([]float64))
	eps := G.NewScalar(g, G.Float64, G.WithValue(varianceEps),
		G.WithName("varianceEps"))
	variance := G.Must(op.Max(G.Must(G.Square(dist.Std)), eps))

	sqErr := G.Must(G.Square(G.Must(G.Sub(roi, dist.Mean))))
	gaussian := G.Must(G.Add(
		G.Must(G.Log(variance)),
		G.Must(G.HadamardDiv(sqErr, variance)),
	))

	// Mean over the batch of each coordinate, summed over coordinates
	scale := G.NewConstant(0.5 / float64(batchSize))
	gaussianNLL := G.Must(G.Mul(G.Must(G.Sum(gaussian)), scale))

	return G.Add(loss, gaussianNLL)
}

// updateForward runs the forward dynamics phase of an update
func (i *ICM) updateForward(sample Sample, stats *Stats) error {
	i.forward.SetMode(network.Training)
	defer i.forward.SetMode(network.Evaluation)

	sampler, err := batch.New(sample.Len(), i.forwardIters, true, i.src)
	if err != nil {
		return fmt.Errorf("updateForward: %v", err)
	}

	total := 0.0
	for {
		indices, ok := sampler.Next()
		if !ok {
			break
		}
		loss, err := i.forwardStep(sample, indices)
		if err != nil {
			return fmt.Errorf("updateForward: %v", err)
		}
		stats.ForwardSteps++
		total += loss
	}
	stats.ForwardLoss = total / float64(stats.ForwardSteps)
	return nil
}

// forwardStep takes a single solver step on the mean squared error of
// the forward dynamics prediction
func (i *ICM) forwardStep(sample Sample, indices []int) (float64, error) {
	g := G.NewGraph()
	x, err := network.NewInput(g, "features", rows(sample.Features, indices))
	if err != nil {
		return 0, err
	}
	next, err := network.NewInput(g, "next", rows(sample.Next, indices))
	if err != nil {
		return 0, err
	}

	actions := make([]action.Vector, len(indices))
	for j, index := range indices {
		actions[j] = sample.Actions[index]
	}
	acts := network.NewInputFromBacking(g, "actions", len(indices),
		action.Dims, action.Matrix(actions).Data().([]float64))

	predicted, learnables, err := i.forward.Fwd(x, acts)
	if err != nil {
		return 0, err
	}

	loss := op.MeanSquaredError(predicted, next)
	var lossVal G.Value
	G.Read(loss, &lossVal)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, fmt.Errorf("could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("could not run forward dynamics graph: %v", err)
	}

	if err := i.forwardSolver.Step(G.NodesToValueGrads(learnables)); err != nil {
		return 0, fmt.Errorf("could not step forward dynamics: %v", err)
	}
	if err := network.Load(i.forward.Learnables(), learnables); err != nil {
		return 0, err
	}
	return scalar(lossVal), nil
}

// rows returns the rows of data at the given indices
func rows(data [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, index := range indices {
		out[i] = data[index]
	}
	return out
}

// scalar returns the float64 held by a scalar Value
func scalar(v G.Value) float64 {
	switch data := v.Data().(type) {
	case float64:
		return data
	case []float64:
		return data[0]
	}
	return math.NaN()
}

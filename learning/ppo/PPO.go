// Package ppo implements the clipped-surrogate Proximal Policy
// Optimization update with approximate KL early stopping, following
// https://arxiv.org/abs/1707.06347 and
// https://github.com/openai/spinningup/tree/master/spinup/algos/pytorch/ppo
package ppo

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/buffer/batch"
	"github.com/samuelfneumann/mineagent/buffer/trajectory"
	"github.com/samuelfneumann/mineagent/network"
	"github.com/samuelfneumann/mineagent/utils/op"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Stats summarizes a single call to Update
type Stats struct {
	Rows int

	ActorSteps   int
	CriticSteps  int
	StoppedEarly bool

	// KL is the approximate KL divergence of the last actor mini-batch
	// evaluated, including the one that caused an early stop
	KL float64

	// ActorLoss and CriticLoss are the mean losses over the mini-batches
	// that were stepped
	ActorLoss  float64
	CriticLoss float64
}

// Scalars returns the Stats as named scalars for telemetry
func (s Stats) Scalars() map[string]float64 {
	stopped := 0.0
	if s.StoppedEarly {
		stopped = 1.0
	}
	return map[string]float64{
		"rows":          float64(s.Rows),
		"actor_steps":   float64(s.ActorSteps),
		"critic_steps":  float64(s.CriticSteps),
		"stopped_early": stopped,
		"kl":            s.KL,
		"actor_loss":    s.ActorLoss,
		"critic_loss":   s.CriticLoss,
	}
}

// PPO updates an actor and a critic from a trajectory. Each call to
// Update runs a single pass of mini-batched gradient steps for the
// actor, which may stop early, followed by a single pass for the
// critic.
type PPO struct {
	actor        network.Actor
	critic       network.Critic
	actorSolver  G.Solver
	criticSolver G.Solver

	clip     float64
	targetKL float64
	discount float64
	lambda   float64

	actorIters  int
	criticIters int

	src    rand.Source
	logger zerolog.Logger
}

// Option configures optional behaviour of PPO
type Option func(*PPO)

// WithLogger sets the logger used by PPO
func WithLogger(logger zerolog.Logger) Option {
	return func(p *PPO) {
		p.logger = logger
	}
}

// New returns a new PPO. The solvers must not be shared with any other
// parameters, since stateful solvers track statistics per parameter.
// The seed determines the order of mini-batches.
func New(actor network.Actor, critic network.Critic, actorSolver,
	criticSolver G.Solver, c Config, seed uint64, opts ...Option) (*PPO,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if actor == nil || critic == nil {
		return nil, fmt.Errorf("new: actor and critic must be non-nil")
	}
	if actorSolver == nil || criticSolver == nil {
		return nil, fmt.Errorf("new: solvers must be non-nil")
	}

	p := &PPO{
		actor:        actor,
		critic:       critic,
		actorSolver:  actorSolver,
		criticSolver: criticSolver,
		clip:         c.Clip,
		targetKL:     c.TargetKL,
		discount:     c.Discount,
		lambda:       c.GAE,
		actorIters:   c.ActorIters,
		criticIters:  c.CriticIters,
		src:          rand.NewSource(seed),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "ppo").Logger()

	return p, nil
}

// Update finalizes the trajectory and updates the actor then the
// critic. Old log probabilities, advantages, and returns are computed
// once and are not refreshed during the update.
//
// A trajectory with fewer than two steps results in an error wrapping
// ErrTrajectoryTooShort.
func (p *PPO) Update(t trajectory.Reader) (Stats, error) {
	sample, err := Finalize(t, p.discount, p.lambda)
	if err != nil {
		return Stats{}, fmt.Errorf("update: %w", err)
	}
	stats := Stats{Rows: sample.Len()}

	if err := p.updateActor(sample, &stats); err != nil {
		return stats, fmt.Errorf("update: %w", err)
	}
	if err := p.updateCritic(sample, &stats); err != nil {
		return stats, fmt.Errorf("update: %w", err)
	}

	p.logger.Debug().
		Int("rows", stats.Rows).
		Int("actorSteps", stats.ActorSteps).
		Int("criticSteps", stats.CriticSteps).
		Bool("stoppedEarly", stats.StoppedEarly).
		Float64("kl", stats.KL).
		Float64("actorLoss", stats.ActorLoss).
		Float64("criticLoss", stats.CriticLoss).
		Msg("update complete")

	return stats, nil
}

// updateActor runs the actor phase of an update
func (p *PPO) updateActor(sample Sample, stats *Stats) error {
	p.actor.SetMode(network.Training)
	defer p.actor.SetMode(network.Evaluation)

	sampler, err := batch.New(sample.Len(), p.actorIters, true, p.src)
	if err != nil {
		return fmt.Errorf("updateActor: %v", err)
	}

	totalLoss := 0.0
	for {
		indices, ok := sampler.Next()
		if !ok {
			break
		}

		loss, kl, stepped, err := p.actorStep(sample, indices)
		if err != nil {
			return fmt.Errorf("updateActor: %v", err)
		}
		stats.KL = kl
		if !stepped {
			stats.StoppedEarly = true
			p.logger.Info().
				Int("step", stats.ActorSteps).
				Float64("kl", kl).
				Float64("targetKL", p.targetKL).
				Msg("early stopping at step due to reaching max KL")
			break
		}
		stats.ActorSteps++
		totalLoss += loss
	}

	if stats.ActorSteps > 0 {
		stats.ActorLoss = totalLoss / float64(stats.ActorSteps)
	}
	return nil
}

// actorStep computes the clipped surrogate loss on a mini-batch and,
// if the approximate KL divergence is within bounds, takes a single
// solver step. The returned boolean reports whether a step was taken.
func (p *PPO) actorStep(sample Sample, indices []int) (float64, float64,
	bool, error) {
	g := G.NewGraph()
	x, err := network.NewInput(g, "features", rows(sample.Features,
		indices))
	if err != nil {
		return 0, 0, false, err
	}

	dist, learnables, err := p.actor.Fwd(x)
	if err != nil {
		return 0, 0, false, err
	}

	actions := make([]action.Vector, len(indices))
	oldLogProbs := make([]float64, len(indices))
	advantages := make([]float64, len(indices))
	for i, index := range indices {
		actions[i] = sample.Actions[index]
		oldLogProbs[i] = sample.LogProbs[index].Sum()
		advantages[i] = sample.Advantages[index]
	}

	logProb, err := action.JointLogProb(dist, actions)
	if err != nil {
		return 0, 0, false, err
	}
	oldLogProb := vector(g, "oldLogProb", oldLogProbs)
	advantage := vector(g, "advantage", advantages)

	// Clipped surrogate objective
	ratio := G.Must(G.Exp(G.Must(G.Sub(logProb, oldLogProb))))
	clippedRatio := G.Must(op.Clip(ratio, 1-p.clip, 1+p.clip))
	surrogate := G.Must(G.HadamardProd(ratio, advantage))
	clippedSurrogate := G.Must(G.HadamardProd(clippedRatio, advantage))
	loss := G.Must(op.Min(surrogate, clippedSurrogate))
	loss = G.Must(G.Neg(G.Must(G.Mean(loss))))

	// Approximate KL divergence between the old and new policies
	kl := G.Must(G.Mean(G.Must(G.Sub(oldLogProb, logProb))))

	var lossVal, klVal G.Value
	G.Read(loss, &lossVal)
	G.Read(kl, &klVal)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, 0, false, fmt.Errorf("could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, 0, false, fmt.Errorf("could not run actor graph: %v", err)
	}

	klValue := scalar(klVal)
	if klValue > 1.5*p.targetKL {
		return 0, klValue, false, nil
	}

	if err := p.actorSolver.Step(G.NodesToValueGrads(learnables)); err != nil {
		return 0, 0, false, fmt.Errorf("could not step actor: %v", err)
	}
	if err := network.Load(p.actor.Learnables(), learnables); err != nil {
		return 0, 0, false, err
	}
	return scalar(lossVal), klValue, true, nil
}

// updateCritic runs the critic phase of an update
func (p *PPO) updateCritic(sample Sample, stats *Stats) error {
	p.critic.SetMode(network.Training)
	defer p.critic.SetMode(network.Evaluation)

	sampler, err := batch.New(sample.Len(), p.criticIters, true, p.src)
	if err != nil {
		return fmt.Errorf("updateCritic: %v", err)
	}

	totalLoss := 0.0
	for {
		indices, ok := sampler.Next()
		if !ok {
			break
		}

		loss, err := p.criticStep(sample, indices)
		if err != nil {
			return fmt.Errorf("updateCritic: %v", err)
		}
		stats.CriticSteps++
		totalLoss += loss
	}

	if stats.CriticSteps > 0 {
		stats.CriticLoss = totalLoss / float64(stats.CriticSteps)
	}
	return nil
}

// criticStep takes a single solver step on the mean squared error
// between the critic's predictions and the returns of a mini-batch
func (p *PPO) criticStep(sample Sample, indices []int) (float64, error) {
	g := G.NewGraph()
	x, err := network.NewInput(g, "features", rows(sample.Features,
		indices))
	if err != nil {
		return 0, err
	}

	value, learnables, err := p.critic.Fwd(x)
	if err != nil {
		return 0, err
	}

	returns := make([]float64, len(indices))
	for i, index := range indices {
		returns[i] = sample.Returns[index]
	}
	target := network.NewInputFromBacking(g, "returns", len(indices), 1,
		returns)

	loss := op.MeanSquaredError(value, target)
	var lossVal G.Value
	G.Read(loss, &lossVal)

	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, fmt.Errorf("could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("could not run critic graph: %v", err)
	}

	if err := p.criticSolver.Step(G.NodesToValueGrads(learnables)); err != nil {
		return 0, fmt.Errorf("could not step critic: %v", err)
	}
	if err := network.Load(p.critic.Learnables(), learnables); err != nil {
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

// vector adds a vector input node holding data to g
func vector(g *G.ExprGraph, name string, data []float64) *G.Node {
	return G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(len(data)),
		G.WithValue(tensor.New(
			tensor.WithShape(len(data)),
			tensor.WithBacking(data),
		)),
		G.WithName(name),
	)
}

// scalar returns the float64 held by a scalar Value
func scalar(v G.Value) float64 {
	switch data := v.Data().(type) {
	case float64:
		return data
	case []float64:
		return data[0]
	}
	panic(fmt.Sprintf("scalar: illegal data type %T", v.Data()))
}

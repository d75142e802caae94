package agent

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/buffer/trajectory"
	"github.com/samuelfneumann/mineagent/learning/icm"
	"github.com/samuelfneumann/mineagent/learning/ppo"
	"github.com/samuelfneumann/mineagent/monitoring"
	"github.com/samuelfneumann/mineagent/network"
	"golang.org/x/exp/rand"
)

// CuriousAgent learns with PPO from the sum of extrinsic and intrinsic
// rewards. The intrinsic reward of a step is the prediction error of
// the ICM forward dynamics model on the transition that led to it.
//
// Each step is appended to a trajectory store. Once the store is full,
// every step triggers a PPO update followed by an ICM update over the
// whole store, so that consecutive updates share all but one step.
type CuriousAgent struct {
	actor   *network.LinearAffector
	critic  *network.MLPCritic
	forward *network.MLPForwardDynamics
	inverse *network.LinearInverseDynamics

	store *trajectory.Store
	ppo   *ppo.PPO
	icm   *icm.ICM

	features int
	src      rand.Source

	prevEmbedding []float64
	prevAction    action.Vector
	hasPrev       bool

	steps   int
	updates int

	publisher monitoring.Publisher
	logger    zerolog.Logger
}

// NewCurious returns a new CuriousAgent acting on embeddings with the
// given number of features
func NewCurious(c Config, features int, seed uint64,
	opts ...Option) (*CuriousAgent, error) {
	if c.Type != Curious {
		return nil, fmt.Errorf("newCurious: invalid agent type %q", c.Type)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}
	o := newOptions(opts)
	init := c.Network.Init.InitWFn()

	actor, err := network.NewLinearAffector("actor", features, c.Space, init)
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}
	critic, err := network.NewLinearCritic("critic", features, init)
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}
	forward, err := network.NewForwardDynamics("forward", features,
		c.Network.ForwardHidden, init)
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}
	inverse, err := network.NewInverseDynamics("inverse", features, c.Space,
		init)
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}

	store, err := trajectory.New(c.Capacity, features)
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}

	actorSolver, err := c.ActorSolver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCurious: actor solver: %v", err)
	}
	criticSolver, err := c.CriticSolver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCurious: critic solver: %v", err)
	}
	forwardSolver, err := c.ForwardSolver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCurious: forward solver: %v", err)
	}
	inverseSolver, err := c.InverseSolver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCurious: inverse solver: %v", err)
	}

	logger := o.logger.With().Str("agent", string(Curious)).Logger()
	p, err := ppo.New(actor, critic, actorSolver, criticSolver, c.PPO,
		seed+1, ppo.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}
	i, err := icm.New(forward, inverse, forwardSolver, inverseSolver, c.ICM,
		seed+2, icm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("newCurious: %v", err)
	}

	logger.Info().
		Int("features", features).
		Int("capacity", c.Capacity).
		Int("actorParams", network.NumParams(actor)).
		Int("forwardParams", network.NumParams(forward)).
		Msg("created agent")

	return &CuriousAgent{
		actor:     actor,
		critic:    critic,
		forward:   forward,
		inverse:   inverse,
		store:     store,
		ppo:       p,
		icm:       i,
		features:  features,
		src:       rand.NewSource(seed),
		publisher: o.publisher,
		logger:    logger,
	}, nil
}

// Act implements the Agent interface.
//
// The reward is stored along with the current embedding, so that the
// reward recorded at step t is the reward for the action taken at step
// t-1. The intrinsic reward is computed before any update of the
// forward dynamics model in the same step.
func (c *CuriousAgent) Act(embedding []float64,
	reward float64) (action.Vector, error) {
	if len(embedding) != c.features {
		return action.Vector{}, fmt.Errorf("act: expected %v features, "+
			"have(%v)", c.features, len(embedding))
	}

	dist, err := network.PredictDistribution(c.actor, embedding)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}
	value, err := network.PredictValue(c.critic, embedding)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}
	a, logProb, err := action.Sample(dist, c.src)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}

	intrinsic := 0.0
	if c.hasPrev {
		intrinsic, err = c.icm.IntrinsicReward(c.prevEmbedding, c.prevAction,
			embedding)
		if err != nil {
			return action.Vector{}, fmt.Errorf("act: %v", err)
		}
	}

	err = c.store.Store(embedding, a, reward, intrinsic, value, logProb)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}

	if c.store.Full() {
		if err := c.update(); err != nil {
			return action.Vector{}, fmt.Errorf("act: %v", err)
		}
	}

	c.prevEmbedding = append(c.prevEmbedding[:0], embedding...)
	c.prevAction = a
	c.hasPrev = true

	c.publisher.Publish(&monitoring.Action{
		Step:            c.steps,
		Embedding:       append([]float64(nil), embedding...),
		Distribution:    dist,
		Action:          a,
		LogProb:         logProb,
		Value:           value,
		IntrinsicReward: intrinsic,
	})
	c.steps++

	return a, nil
}

// update runs a PPO update followed by an ICM update on the store
func (c *CuriousAgent) update() error {
	ppoStats, err := c.ppo.Update(c.store)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	icmStats, err := c.icm.Update(c.store)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	c.updates++

	c.logger.Debug().
		Int("step", c.steps).
		Int("update", c.updates).
		Float64("kl", ppoStats.KL).
		Bool("stoppedEarly", ppoStats.StoppedEarly).
		Float64("actorLoss", ppoStats.ActorLoss).
		Float64("criticLoss", ppoStats.CriticLoss).
		Float64("inverseLoss", icmStats.InverseLoss).
		Float64("forwardLoss", icmStats.ForwardLoss).
		Msg("updated")

	c.publisher.Publish(&monitoring.Update{
		Step:    c.steps,
		Learner: "ppo",
		Scalars: ppoStats.Scalars(),
	})
	c.publisher.Publish(&monitoring.Update{
		Step:    c.steps,
		Learner: "icm",
		Scalars: icmStats.Scalars(),
	})
	return nil
}

// Reset implements the Agent interface. The trajectory store is kept,
// only the transition used for the next intrinsic reward is forgotten.
func (c *CuriousAgent) Reset() {
	c.hasPrev = false
}

// Updates returns the number of updates performed so far
func (c *CuriousAgent) Updates() int {
	return c.updates
}

// Store returns a read-only view of the trajectory store
func (c *CuriousAgent) Store() trajectory.Reader {
	return c.store
}

// Package td implements the one-step temporal difference actor-critic
// loss, as described in Sutton & Barto's "Reinforcement Learning: An
// Introduction" (2018), Chapter 13.5.
package td

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/network"
	G "gorgonia.org/gorgonia"
)

// Config holds the hyperparameters of the TD actor-critic
type Config struct {
	Discount float64
}

// DefaultConfig returns the default TD actor-critic hyperparameters
func DefaultConfig() Config {
	return Config{Discount: 0.99}
}

// ActorCritic computes one-step temporal difference actor-critic
// losses for a single transition
type ActorCritic struct {
	critic   network.Critic
	discount float64
}

// New returns a new ActorCritic using critic to bootstrap
func New(critic network.Critic, c Config) (*ActorCritic, error) {
	if c.Discount < 0 || c.Discount > 1 {
		return nil, fmt.Errorf("new: discount must be in [0, 1], have(%v)",
			c.Discount)
	}
	if critic == nil {
		return nil, fmt.Errorf("new: critic must be non-nil")
	}
	return &ActorCritic{critic: critic, discount: c.Discount}, nil
}

// TDError returns the temporal difference error
//
//	δ = r + ℽ v(s') - v(s)
//
// computed without gradients.
func (a *ActorCritic) TDError(embedding []float64, reward float64,
	next []float64) (float64, error) {
	value, err := network.PredictValue(a.critic, embedding)
	if err != nil {
		return 0, fmt.Errorf("tdError: %v", err)
	}
	nextValue, err := network.PredictValue(a.critic, next)
	if err != nil {
		return 0, fmt.Errorf("tdError: %v", err)
	}
	return reward + a.discount*nextValue - value, nil
}

// Loss returns the sum of the actor loss -ℽ^t δ log π(a|s) and the
// critic loss ½ (r + ℽ v(s') - v(s))², where t is the current step of
// the episode.
//
// The value node must hold the single prediction v(s) and logProb the
// joint log probability of the single action taken in s. The value of
// next is computed without gradients, and the actor loss treats the TD
// error delta as a constant.
func (a *ActorCritic) Loss(value, logProb *G.Node, reward float64,
	next []float64, delta float64, step int) (*G.Node, error) {
	if value.Shape().TotalSize() != 1 {
		return nil, fmt.Errorf("loss: value must hold a single element, "+
			"have shape %v", value.Shape())
	}
	if logProb.Shape().TotalSize() != 1 {
		return nil, fmt.Errorf("loss: log probability must hold a single "+
			"element, have shape %v", logProb.Shape())
	}
	nextValue, err := network.PredictValue(a.critic, next)
	if err != nil {
		return nil, fmt.Errorf("loss: %v", err)
	}

	target := G.NewConstant(reward + a.discount*nextValue)
	criticDelta := G.Must(G.Sub(target, G.Must(G.Sum(value))))
	criticLoss := G.Must(G.Mul(G.NewConstant(0.5),
		G.Must(G.Square(criticDelta))))

	scale := G.NewConstant(-math.Pow(a.discount, float64(step)) * delta)
	actorLoss := G.Must(G.Mul(scale, G.Must(G.Sum(logProb))))

	return G.Add(actorLoss, criticLoss)
}

// Update takes a single gradient step of both actor and critic on the
// transition (embedding, taken, reward, next) at the given step of an
// episode. The returned value is the loss before the step.
func (a *ActorCritic) Update(actor network.Actor, solver G.Solver,
	embedding []float64, taken action.Vector, reward float64,
	next []float64, step int) (float64, error) {
	g := G.NewGraph()
	x, err := network.NewInput(g, "embedding", [][]float64{embedding})
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	dist, actorLearnables, err := actor.Fwd(x)
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	value, criticLearnables, err := a.critic.Fwd(x)
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	logProb, err := action.JointLogProb(dist, []action.Vector{taken})
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	delta, err := a.TDError(embedding, reward, next)
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	loss, err := a.Loss(value, logProb, reward, next, delta, step)
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	var lossVal G.Value
	G.Read(loss, &lossVal)

	learnables := append(actorLearnables, criticLearnables...)
	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, fmt.Errorf("update: could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	if err := solver.Step(G.NodesToValueGrads(learnables)); err != nil {
		return 0, fmt.Errorf("update: could not step: %v", err)
	}
	err = network.Load(actor.Learnables(), learnables[:len(actorLearnables)])
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	err = network.Load(a.critic.Learnables(),
		learnables[len(actorLearnables):])
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	return lossVal.Data().(float64), nil
}

package agent

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/learning/td"
	"github.com/samuelfneumann/mineagent/monitoring"
	"github.com/samuelfneumann/mineagent/network"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
)

// ActorCriticAgent learns online with one-step TD actor-critic updates,
// taking a single gradient step of both actor and critic per
// transition. It does not use intrinsic rewards.
type ActorCriticAgent struct {
	actor   *network.LinearAffector
	critic  *network.MLPCritic
	learner *td.ActorCritic
	solver  G.Solver

	features int
	src      rand.Source

	prevEmbedding []float64
	prevAction    action.Vector
	hasPrev       bool

	// episodeStep is the number of updates since the last Reset
	episodeStep int
	steps       int

	publisher monitoring.Publisher
	logger    zerolog.Logger
}

// NewActorCritic returns a new ActorCriticAgent acting on embeddings
// with the given number of features
func NewActorCritic(c Config, features int, seed uint64,
	opts ...Option) (*ActorCriticAgent, error) {
	if c.Type != ActorCritic {
		return nil, fmt.Errorf("newActorCritic: invalid agent type %q",
			c.Type)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newActorCritic: %v", err)
	}
	o := newOptions(opts)
	init := c.Network.Init.InitWFn()

	actor, err := network.NewLinearAffector("actor", features, c.Space, init)
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: %v", err)
	}
	critic, err := network.NewLinearCritic("critic", features, init)
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: %v", err)
	}
	learner, err := td.New(critic, c.TD)
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: %v", err)
	}
	solver, err := c.ActorSolver.Clone()
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: %v", err)
	}

	return &ActorCriticAgent{
		actor:     actor,
		critic:    critic,
		learner:   learner,
		solver:    solver,
		features:  features,
		src:       rand.NewSource(seed),
		publisher: o.publisher,
		logger:    o.logger.With().Str("agent", string(ActorCritic)).Logger(),
	}, nil
}

// Act implements the Agent interface. The previous transition is
// learned from before the next action is selected.
func (a *ActorCriticAgent) Act(embedding []float64,
	reward float64) (action.Vector, error) {
	if len(embedding) != a.features {
		return action.Vector{}, fmt.Errorf("act: expected %v features, "+
			"have(%v)", a.features, len(embedding))
	}

	if a.hasPrev {
		loss, err := a.learner.Update(a.actor, a.solver, a.prevEmbedding,
			a.prevAction, reward, embedding, a.episodeStep)
		if err != nil {
			return action.Vector{}, fmt.Errorf("act: %v", err)
		}
		a.episodeStep++
		a.logger.Debug().Int("step", a.steps).Float64("loss", loss).
			Msg("updated")
		a.publisher.Publish(&monitoring.Update{
			Step:    a.steps,
			Learner: "td",
			Scalars: map[string]float64{"loss": loss},
		})
	}

	dist, err := network.PredictDistribution(a.actor, embedding)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}
	value, err := network.PredictValue(a.critic, embedding)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}
	selected, logProb, err := action.Sample(dist, a.src)
	if err != nil {
		return action.Vector{}, fmt.Errorf("act: %v", err)
	}

	a.prevEmbedding = append(a.prevEmbedding[:0], embedding...)
	a.prevAction = selected
	a.hasPrev = true

	a.publisher.Publish(&monitoring.Action{
		Step:         a.steps,
		Embedding:    append([]float64(nil), embedding...),
		Distribution: dist,
		Action:       selected,
		LogProb:      logProb,
		Value:        value,
	})
	a.steps++

	return selected, nil
}

// Reset implements the Agent interface
func (a *ActorCriticAgent) Reset() {
	a.hasPrev = false
	a.episodeStep = 0
}

// Package agent implements agents which select hybrid actions from
// embeddings and learn online.
package agent

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/monitoring"
)

// Agent selects actions from embeddings and learns from the rewards it
// receives
type Agent interface {
	// Act receives the embedding of the current observation along with
	// the reward for the previous action, learns if needed, and
	// returns the next action
	Act(embedding []float64, reward float64) (action.Vector, error)

	// Reset forgets the previous step, and should be called between
	// episodes
	Reset()
}

// Type represents a type of Agent
type Type string

const (
	// Curious agents learn with PPO from extrinsic and intrinsic
	// rewards, and learn the dynamics models of the ICM
	Curious Type = "PPO-ICM"

	// ActorCritic agents learn online with one-step TD updates
	ActorCritic Type = "TD-ActorCritic"
)

// New returns a new Agent of the type described by c, acting on
// embeddings with the given number of features
func New(c Config, features int, seed uint64, opts ...Option) (Agent, error) {
	switch c.Type {
	case Curious:
		return NewCurious(c, features, seed, opts...)
	case ActorCritic:
		return NewActorCritic(c, features, seed, opts...)
	}
	return nil, fmt.Errorf("new: unknown agent type %q", c.Type)
}

// options holds the optional collaborators of an agent
type options struct {
	logger    zerolog.Logger
	publisher monitoring.Publisher
}

// Option configures optional behaviour of an Agent
type Option func(*options)

// WithLogger sets the logger used by an Agent and its learners
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPublisher sets the Publisher an Agent publishes its events to
func WithPublisher(p monitoring.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    zerolog.Nop(),
		publisher: monitoring.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.publisher == nil {
		o.publisher = monitoring.Nop{}
	}
	return o
}

// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/agent"
	env "github.com/samuelfneumann/mineagent/environment"
	"github.com/samuelfneumann/mineagent/experiment/tracker"
	"github.com/samuelfneumann/mineagent/monitoring"
	ts "github.com/samuelfneumann/mineagent/timestep"
)

// Online is an experiment that runs an agent online only. No offline
// evaluation is performed.
//
// On each step the agent receives the embedding of the current
// observation together with the reward for its previous action. The
// agent also observes the last step of each episode, but the action it
// returns there is not taken.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps     int
	currentSteps int
	totalReturn  float64
	trackers     []tracker.Tracker

	publisher monitoring.Publisher
	logger    zerolog.Logger
}

// Option configures optional behaviour of an Online experiment
type Option func(*Online)

// WithLogger sets the logger used by the experiment
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Online) {
		o.logger = logger
	}
}

// WithPublisher sets the Publisher the experiment publishes its events
// to
func WithPublisher(p monitoring.Publisher) Option {
	return func(o *Online) {
		o.publisher = p
	}
}

// WithTrackers registers Trackers with the experiment
func WithTrackers(t ...tracker.Tracker) Option {
	return func(o *Online) {
		o.trackers = append(o.trackers, t...)
	}
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many environment steps the experiment is run for.
func NewOnline(e env.Environment, a agent.Agent, steps int,
	opts ...Option) (*Online, error) {
	if steps < 1 {
		return nil, fmt.Errorf("newOnline: steps must be positive, have(%v)",
			steps)
	}
	o := &Online{
		Environment: e,
		Agent:       a,
		maxSteps:    steps,
		publisher:   monitoring.Nop{},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("component", "experiment").Logger()
	return o, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment, returning whether
// the maximum number of steps has been reached
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}
	o.Agent.Reset()
	o.publisher.Publish(&monitoring.EnvReset{
		Observation: step.Embedding(),
	})
	if err := o.track(step); err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}

	for {
		embedding := step.Embedding()
		action, err := o.Agent.Act(embedding, step.Reward)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		if step.Last() || o.currentSteps >= o.maxSteps {
			break
		}

		var done bool
		step, done, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		o.currentSteps++
		o.totalReturn += step.Reward

		o.publisher.Publish(&monitoring.EnvStep{
			Step:        o.currentSteps,
			Observation: embedding,
			Action:      action,
			Next:        step.Embedding(),
			Reward:      step.Reward,
		})
		if err := o.track(step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		if done && !step.Last() {
			step.StepType = ts.Last
		}
	}

	o.logger.Debug().Int("steps", o.currentSteps).Int("episodeSteps",
		step.Number).Msg("episode ended")

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	o.publisher.Publish(&monitoring.Start{})
	o.logger.Info().Int("maxSteps", o.maxSteps).Msg("starting run")

	for ended := false; !ended; {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}

	o.publisher.Publish(&monitoring.Stop{
		TotalReturn: o.totalReturn,
		Steps:       o.currentSteps,
	})
	o.logger.Info().Int("steps", o.currentSteps).
		Float64("totalReturn", o.totalReturn).Msg("run finished")
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Steps returns the number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// TotalReturn returns the sum of all rewards received so far
func (o *Online) TotalReturn() float64 {
	return o.totalReturn
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) error {
	for _, tr := range o.trackers {
		if err := tr.Track(t); err != nil {
			return err
		}
	}
	return nil
}

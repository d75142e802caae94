// Package monitoring implements the telemetry events published while an
// agent runs, and the Bus that delivers them to subscribers.
package monitoring

import (
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/mineagent/action"
)

// Kind identifies the type of an Event
type Kind int

const (
	StartKind Kind = iota
	StopKind
	EnvStepKind
	EnvResetKind
	ActionKind
	UpdateKind
)

// String implements the fmt.Stringer interface
func (k Kind) String() string {
	switch k {
	case StartKind:
		return "Start"
	case StopKind:
		return "Stop"
	case EnvStepKind:
		return "EnvStep"
	case EnvResetKind:
		return "EnvReset"
	case ActionKind:
		return "Action"
	case UpdateKind:
		return "Update"
	}
	return "Unknown"
}

// Event is a single telemetry record. Events are published by pointer
// so that a Bus can stamp the Meta of an Event that has none.
type Event interface {
	Kind() Kind
	meta() *Meta
}

// Meta holds the data common to all events
type Meta struct {
	// Run identifies the run that produced the event
	Run uuid.UUID

	// Time is the time the event occurred
	Time time.Time
}

func (m *Meta) meta() *Meta {
	return m
}

// MetaOf returns the Meta of an Event
func MetaOf(e Event) Meta {
	return *e.meta()
}

// Start marks the start of a run
type Start struct {
	Meta
}

// Kind implements the Event interface
func (*Start) Kind() Kind { return StartKind }

// Stop marks the end of a run
type Stop struct {
	Meta
	TotalReturn float64
	Steps       int
}

// Kind implements the Event interface
func (*Stop) Kind() Kind { return StopKind }

// EnvStep is published after an action has been taken in the
// environment
type EnvStep struct {
	Meta
	Step        int
	Observation []float64
	Action      action.Vector
	Next        []float64
	Reward      float64
}

// Kind implements the Event interface
func (*EnvStep) Kind() Kind { return EnvStepKind }

// EnvReset is published after the environment has been reset
type EnvReset struct {
	Meta
	Observation []float64
}

// Kind implements the Event interface
func (*EnvReset) Kind() Kind { return EnvResetKind }

// Action is published by the agent each time it selects an action
type Action struct {
	Meta
	Step            int
	Embedding       []float64
	Distribution    action.Distribution
	Action          action.Vector
	LogProb         action.Vector
	Value           float64
	IntrinsicReward float64
}

// Kind implements the Event interface
func (*Action) Kind() Kind { return ActionKind }

// ROI returns the region of interest of the selected action
func (a *Action) ROI() [action.NumContinuous]float64 {
	return a.Action.ROI()
}

// Update is published after a learner has updated its models
type Update struct {
	Meta
	Step int

	// Learner names the algorithm that was updated, e.g. "ppo"
	Learner string
	Scalars map[string]float64
}

// Kind implements the Event interface
func (*Update) Kind() Kind { return UpdateKind }

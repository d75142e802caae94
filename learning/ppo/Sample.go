package ppo

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/buffer/gae"
	"github.com/samuelfneumann/mineagent/buffer/trajectory"
	"gonum.org/v1/gonum/floats"
)

// ErrTrajectoryTooShort is returned when an update is requested on a
// trajectory with fewer than two steps
var ErrTrajectoryTooShort = trajectory.ErrTooShort

// Sample is a finalized batch of T-1 transitions drawn from a
// trajectory of T steps. Row t pairs the embedding, action, and log
// probability of step t with the return and advantage computed from
// the rewards received after taking that action.
type Sample struct {
	Features   [][]float64
	Actions    []action.Vector
	LogProbs   []action.Vector
	Returns    []float64
	Advantages []float64
}

// Len returns the number of rows in the Sample
func (s Sample) Len() int {
	return len(s.Features)
}

// Finalize freezes the contents of a trajectory into a Sample.
//
// The reward stored at step t is the reward for the action at step
// t-1, so the Sample pairs steps [0, T-1) with the combined extrinsic
// and intrinsic rewards of steps [1, T). The reward stored at step 0
// is never used. All T value estimates are used, the last one
// bootstrapping the final transition.
func Finalize(t trajectory.Reader, gamma, lambda float64) (Sample, error) {
	n := t.Len()
	if n < 2 {
		return Sample{}, &trajectory.Error{
			Op: "finalize",
			Err: fmt.Errorf("%w: need at least 2 steps, have(%v)",
				ErrTrajectoryTooShort, n),
		}
	}

	rewards := t.Rewards()[1:]
	floats.Add(rewards, t.IntrinsicRewards()[1:])

	returns, advantages, err := gae.Estimate(t.Values(), rewards, gamma,
		lambda)
	if err != nil {
		return Sample{}, fmt.Errorf("finalize: %v", err)
	}

	return Sample{
		Features:   t.Embeddings()[:n-1],
		Actions:    t.Actions()[:n-1],
		LogProbs:   t.LogProbs()[:n-1],
		Returns:    returns,
		Advantages: advantages,
	}, nil
}

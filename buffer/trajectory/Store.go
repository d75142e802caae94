// Package trajectory implements a bounded store of the most recent
// steps taken by an agent.
package trajectory

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
)

// Store holds the most recent Capacity() steps of a trajectory as
// aligned parallel sequences. Each step holds:
//
//   - the embedding of the observation at that step
//   - the action taken from that embedding
//   - the reward received for the previous action
//   - the intrinsic reward of the previous transition
//   - the critic's value estimate of the embedding
//   - the per-component log probability of the action when sampled
//
// Once full, storing a step evicts the oldest one. The Store is never
// cleared partially and accessors return steps ordered from oldest to
// newest. The underlying caches are pre-sized when the Store is
// created so that storing a step performs no allocation.
type Store struct {
	featureSize int
	maxCapacity int

	embeddingCache []float64
	actionCache    []action.Vector
	logProbCache   []action.Vector
	rewardCache    []float64
	intrinsicCache []float64
	valueCache     []float64

	currentInUsePos int
	isFull          bool
}

// New returns a new Store holding at most capacity steps, each with an
// embedding of featureSize dimensions.
func New(capacity, featureSize int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be positive, have(%v)",
			capacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be positive, "+
			"have(%v)", featureSize)
	}

	return &Store{
		featureSize:    featureSize,
		maxCapacity:    capacity,
		embeddingCache: make([]float64, capacity*featureSize),
		actionCache:    make([]action.Vector, capacity),
		logProbCache:   make([]action.Vector, capacity),
		rewardCache:    make([]float64, capacity),
		intrinsicCache: make([]float64, capacity),
		valueCache:     make([]float64, capacity),
	}, nil
}

// String returns the string representation of the Store
func (s *Store) String() string {
	return fmt.Sprintf("Store(len=%v, capacity=%v, features=%v)", s.Len(),
		s.Capacity(), s.FeatureSize())
}

// Store appends a step to the trajectory, evicting the oldest step if
// the Store is at capacity.
func (s *Store) Store(embedding []float64, a action.Vector, reward,
	intrinsicReward, value float64, logProb action.Vector) error {
	if len(embedding) != s.featureSize {
		return &Error{
			Op: "store",
			Err: fmt.Errorf("%w: illegal embedding length "+
				"\n\twant(%v)\n\thave(%v)", ErrShape, s.featureSize,
				len(embedding)),
		}
	}

	pos := s.currentInUsePos
	start := pos * s.featureSize
	copy(s.embeddingCache[start:start+s.featureSize], embedding)
	s.actionCache[pos] = a
	s.logProbCache[pos] = logProb
	s.rewardCache[pos] = reward
	s.intrinsicCache[pos] = intrinsicReward
	s.valueCache[pos] = value

	s.currentInUsePos++
	if s.currentInUsePos >= s.maxCapacity {
		s.currentInUsePos = 0
		s.isFull = true
	}
	return nil
}

// Len returns the number of steps currently held
func (s *Store) Len() int {
	if s.isFull {
		return s.maxCapacity
	}
	return s.currentInUsePos
}

// Capacity returns the maximum number of steps held at once
func (s *Store) Capacity() int {
	return s.maxCapacity
}

// FeatureSize returns the dimension of stored embeddings
func (s *Store) FeatureSize() int {
	return s.featureSize
}

// Full returns whether the Store holds Capacity() steps
func (s *Store) Full() bool {
	return s.isFull
}

// insertOrder returns the slots of the held steps ordered from oldest
// to newest
func (s *Store) insertOrder() []int {
	order := make([]int, s.Len())
	if !s.isFull {
		for i := range order {
			order[i] = i
		}
		return order
	}

	for i := range order {
		order[i] = (s.currentInUsePos + i) % s.maxCapacity
	}
	return order
}

// Embeddings returns a copy of the held embeddings, oldest first
func (s *Store) Embeddings() [][]float64 {
	order := s.insertOrder()
	out := make([][]float64, len(order))
	for i, slot := range order {
		start := slot * s.featureSize
		out[i] = append([]float64(nil),
			s.embeddingCache[start:start+s.featureSize]...)
	}
	return out
}

// Actions returns a copy of the held actions, oldest first
func (s *Store) Actions() []action.Vector {
	return gatherVectors(s.actionCache, s.insertOrder())
}

// LogProbs returns a copy of the held per-component log
// probabilities, oldest first
func (s *Store) LogProbs() []action.Vector {
	return gatherVectors(s.logProbCache, s.insertOrder())
}

// Rewards returns a copy of the held rewards, oldest first
func (s *Store) Rewards() []float64 {
	return gather(s.rewardCache, s.insertOrder())
}

// IntrinsicRewards returns a copy of the held intrinsic rewards,
// oldest first
func (s *Store) IntrinsicRewards() []float64 {
	return gather(s.intrinsicCache, s.insertOrder())
}

// Values returns a copy of the held value estimates, oldest first
func (s *Store) Values() []float64 {
	return gather(s.valueCache, s.insertOrder())
}

func gather(cache []float64, order []int) []float64 {
	out := make([]float64, len(order))
	for i, slot := range order {
		out[i] = cache[slot]
	}
	return out
}

func gatherVectors(cache []action.Vector, order []int) []action.Vector {
	out := make([]action.Vector, len(order))
	for i, slot := range order {
		out[i] = cache[slot]
	}
	return out
}

// Reader provides read-only, oldest-first access to a trajectory
type Reader interface {
	Len() int
	Embeddings() [][]float64
	Actions() []action.Vector
	LogProbs() []action.Vector
	Rewards() []float64
	IntrinsicRewards() []float64
	Values() []float64
}

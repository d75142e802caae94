// Package action implements the hybrid action representation used by
// the agent: a tuple of independent categorical components together
// with a diagonal Gaussian over region-of-interest coordinates.
//
// A flat action Vector stores the categorical choices as reals in its
// first NumCategorical entries and the continuous coordinates in the
// remaining NumContinuous entries. Log-probabilities are stored in the
// same layout, one entry per component.
package action

import (
	"errors"
	"fmt"
	"math"
)

const (
	// NumCategorical is the number of independent categorical components
	NumCategorical = 8

	// NumContinuous is the dimension of the Gaussian component
	NumContinuous = 2

	// Dims is the length of a flat action vector
	Dims = NumCategorical + NumContinuous
)

// ErrMalformed is returned when an action vector or distribution does
// not have the shape required by the action representation.
var ErrMalformed = errors.New("malformed action")

// Vector is a flat hybrid action, or the per-component log probability
// of such an action.
//
// Indices [0, NumCategorical) hold categorical choices:
//
//	0: longitudinal movement
//	1: lateral movement
//	2: vertical movement
//	3: pitch
//	4: yaw
//	5: functional action
//	6: item to craft
//	7: inventory slot
//
// Indices [NumCategorical, Dims) hold the (x, y) region of interest.
type Vector [Dims]float64

// FromSlice converts a slice into a Vector. An error is returned if
// the slice does not have exactly Dims components.
func FromSlice(s []float64) (Vector, error) {
	var v Vector
	if len(s) != Dims {
		return v, fmt.Errorf("fromSlice: %w: invalid number of components "+
			"\n\twant(%v)\n\thave(%v)", ErrMalformed, Dims, len(s))
	}
	copy(v[:], s)
	return v, nil
}

// Index returns the categorical choice of component i
func (v Vector) Index(i int) int {
	return int(v[i])
}

// ROI returns the continuous region-of-interest coordinates
func (v Vector) ROI() [NumContinuous]float64 {
	var roi [NumContinuous]float64
	copy(roi[:], v[NumCategorical:])
	return roi
}

// Sum returns the sum of all components. For a log-probability Vector
// this is the joint log-probability of the full composite action.
func (v Vector) Sum() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum
}

// Slice returns the Vector as a newly allocated slice
func (v Vector) Slice() []float64 {
	s := make([]float64, Dims)
	copy(s, v[:])
	return s
}

// validIndices checks that each categorical component of v is an
// integral index within the cardinality given by space.
func (v Vector) validIndices(space Space) error {
	for i := 0; i < NumCategorical; i++ {
		if v[i] != math.Trunc(v[i]) || v[i] < 0 || int(v[i]) >= space[i] {
			return fmt.Errorf("%w: component %v has index %v outside "+
				"[0, %v)", ErrMalformed, i, v[i], space[i])
		}
	}
	for i := NumCategorical; i < Dims; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return fmt.Errorf("%w: component %v is not finite",
				ErrMalformed, i)
		}
	}
	return nil
}

// Space describes the cardinality of each categorical component
type Space [NumCategorical]int

// DefaultSpace returns the cardinalities of the MineDojo action space
func DefaultSpace() Space {
	return Space{3, 3, 4, 25, 25, 8, 244, 36}
}

// Validate returns an error if any component has fewer than one
// category.
func (s Space) Validate() error {
	for i, n := range s {
		if n < 1 {
			return fmt.Errorf("validate: component %v must have at least "+
				"one category, have(%v)", i, n)
		}
	}
	return nil
}

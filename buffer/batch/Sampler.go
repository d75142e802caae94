// Package batch implements iteration over mini-batches of a finite
// dataset.
package batch

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/utils/intutils"
	"golang.org/x/exp/rand"
)

// Sampler lazily produces the row indices of successive mini-batches
// of a dataset with a fixed number of rows. A full pass over the
// dataset yields Len() batches: each holds BatchSize() rows except
// possibly the last, which holds the remaining rows when the dataset
// size is not divisible by the batch size.
//
// If shuffling is enabled, the rows are permuted at the start of each
// pass. A Sampler is restartable through Reset.
type Sampler struct {
	rows      int
	batchSize int
	shuffle   bool
	rng       *rand.Rand

	order   []int
	nextPos int
}

// New returns a new Sampler over rows rows. The batch size is
// rows / iterations, with a minimum of 1, so that a single pass makes
// roughly iterations gradient steps. If shuffle is true, rows are
// permuted using src.
func New(rows, iterations int, shuffle bool, src rand.Source) (*Sampler,
	error) {
	if rows < 1 {
		return nil, fmt.Errorf("new: must have at least one row, have(%v)",
			rows)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("new: iterations must be positive, "+
			"have(%v)", iterations)
	}
	if shuffle && src == nil {
		return nil, fmt.Errorf("new: shuffling requires a source")
	}

	var rng *rand.Rand
	if shuffle {
		rng = rand.New(src)
	}

	s := &Sampler{
		rows:      rows,
		batchSize: intutils.Max(rows/iterations, 1),
		shuffle:   shuffle,
		rng:       rng,
		order:     make([]int, rows),
	}
	s.Reset()
	return s, nil
}

// Reset restarts the pass over the dataset, permuting the rows again
// if the Sampler shuffles.
func (s *Sampler) Reset() {
	for i := range s.order {
		s.order[i] = i
	}
	if s.shuffle {
		s.rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
	s.nextPos = 0
}

// Next returns the indices of the next mini-batch. The boolean return
// value is false once the pass over the dataset is exhausted.
func (s *Sampler) Next() ([]int, bool) {
	if s.nextPos >= s.rows {
		return nil, false
	}

	end := intutils.Min(s.nextPos+s.batchSize, s.rows)
	indices := make([]int, end-s.nextPos)
	copy(indices, s.order[s.nextPos:end])
	s.nextPos = end

	return indices, true
}

// BatchSize returns the number of rows in each full mini-batch
func (s *Sampler) BatchSize() int {
	return s.batchSize
}

// Len returns the number of mini-batches in a full pass
func (s *Sampler) Len() int {
	return (s.rows + s.batchSize - 1) / s.batchSize
}

// Rows returns the number of rows in the dataset
func (s *Sampler) Rows() int {
	return s.rows
}

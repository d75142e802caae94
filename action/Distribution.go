package action

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// probTolerance is the tolerance allowed when checking that a
// categorical distribution sums to 1.
const probTolerance = 1e-6

// Distribution holds a single evaluated set of action distributions, as
// produced by a policy for one embedding.
type Distribution struct {
	// Categorical[i] holds the probabilities of each category of
	// component i. Each must sum to 1.
	Categorical [NumCategorical][]float64

	// Mean and Std parameterize independent Gaussians over the region
	// of interest coordinates. Std must be strictly positive.
	Mean [NumContinuous]float64
	Std  [NumContinuous]float64
}

// Space returns the cardinality of each categorical component
func (d Distribution) Space() Space {
	var s Space
	for i := range d.Categorical {
		s[i] = len(d.Categorical[i])
	}
	return s
}

// Validate returns an error if the Distribution cannot be sampled from
// or scored.
func (d Distribution) Validate() error {
	for i, probs := range d.Categorical {
		if len(probs) == 0 {
			return fmt.Errorf("validate: %w: categorical component %v is "+
				"empty", ErrMalformed, i)
		}
		for _, p := range probs {
			if p < 0 || math.IsNaN(p) {
				return fmt.Errorf("validate: %w: categorical component %v "+
					"has invalid probability %v", ErrMalformed, i, p)
			}
		}
		if sum := floats.Sum(probs); math.Abs(sum-1) > probTolerance {
			return fmt.Errorf("validate: %w: categorical component %v "+
				"sums to %v", ErrMalformed, i, sum)
		}
	}
	for i := range d.Std {
		if !(d.Std[i] > 0) || math.IsInf(d.Std[i], 0) {
			return fmt.Errorf("validate: %w: standard deviation %v must "+
				"be positive, have(%v)", ErrMalformed, i, d.Std[i])
		}
		if math.IsNaN(d.Mean[i]) || math.IsInf(d.Mean[i], 0) {
			return fmt.Errorf("validate: %w: mean %v is not finite",
				ErrMalformed, i)
		}
	}
	return nil
}

// Sample draws an action from d and returns the action together with
// the log probability of each of its components.
//
// Each categorical component is drawn by multinomial sampling. The
// continuous coordinates are drawn with the reparameterization
// action := μ + σ * ɛ where ɛ ~ N(0, 1).
func Sample(d Distribution, src rand.Source) (Vector, Vector, error) {
	var act, logProb Vector
	if err := d.Validate(); err != nil {
		return act, logProb, fmt.Errorf("sample: %w", err)
	}

	for i, probs := range d.Categorical {
		index := int(distuv.NewCategorical(probs, src).Rand())
		act[i] = float64(index)
		logProb[i] = math.Log(probs[index])
	}

	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	for i := 0; i < NumContinuous; i++ {
		eps := noise.Rand()
		act[NumCategorical+i] = d.Mean[i] + d.Std[i]*eps
		logProb[NumCategorical+i] = gaussianLogPdf(act[NumCategorical+i],
			d.Mean[i], d.Std[i])
	}

	return act, logProb, nil
}

// LogProb returns the log probability of each component of the action
// a under the distributions d.
func LogProb(d Distribution, a Vector) (Vector, error) {
	var logProb Vector
	if err := d.Validate(); err != nil {
		return logProb, fmt.Errorf("logProb: %w", err)
	}
	if err := a.validIndices(d.Space()); err != nil {
		return logProb, fmt.Errorf("logProb: %w", err)
	}

	for i, probs := range d.Categorical {
		logProb[i] = math.Log(probs[a.Index(i)])
	}
	for i := 0; i < NumContinuous; i++ {
		logProb[NumCategorical+i] = gaussianLogPdf(a[NumCategorical+i],
			d.Mean[i], d.Std[i])
	}
	return logProb, nil
}

// gaussianLogPdf returns the log density of x under N(mean, std²)
func gaussianLogPdf(x, mean, std float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: std}.LogProb(x)
}

// Package gae implements generalized advantage estimation over a
// finite stream of rewards and state values.
package gae

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimate computes generalized advantage estimates, GAE(λ), following
// https://arxiv.org/abs/1506.02438, together with discounted returns.
//
// Given T-1 rewards and T state values (the final value bootstraps the
// last transition), the temporal difference errors are:
//
//	δ[t] = r[t] + ℽ v[t+1] - v[t]
//
// Advantages are the discounted cumulative sum of δ with discount ℽλ
// and returns are the discounted cumulative sum of the rewards with
// discount ℽ. Both returned slices have the same length as rewards.
// Advantages are not normalized.
func Estimate(values, rewards []float64, gamma, lambda float64) (returns,
	advantages []float64, err error) {
	if len(values) != len(rewards)+1 {
		return nil, nil, fmt.Errorf("estimate: there must be exactly one "+
			"more value than reward \n\twant(%v)\n\thave(%v)",
			len(rewards)+1, len(values))
	}
	if len(rewards) == 0 {
		return []float64{}, []float64{}, nil
	}

	stateVals := mat.NewVecDense(len(rewards), values[:len(values)-1])
	nextStateVals := mat.NewVecDense(len(rewards), values[1:])
	rews := mat.NewVecDense(len(rewards), rewards)

	deltas := mat.NewVecDense(stateVals.Len(), nil)
	deltas.AddScaledVec(rews, gamma, nextStateVals)
	deltas.SubVec(deltas, stateVals)

	advantages = DiscountCumSum(deltas.RawVector().Data, gamma*lambda)
	returns = DiscountCumSum(rewards, gamma)

	return returns, advantages, nil
}

// DiscountCumSum computes and returns the discounted cumulative sum
// of all elements of a vector. Given a vector x = [x0 x1 x2 ... xN]
// and discount d, this function computes and returns:
//
//	[
//		x0 + d x1 + d^2 x2 + ... + d^N xN
//		x1 + d x2 + ... + d^(N-1) xN
//		...
//		xN
//	]
//
// The sum is computed with the reverse recurrence y[N] = x[N],
// y[t] = x[t] + d y[t+1], so the result is exact for any discount,
// including 0 and 1.
func DiscountCumSum(x []float64, d float64) []float64 {
	cumSums := make([]float64, len(x))
	if len(x) == 0 {
		return cumSums
	}

	last := len(x) - 1
	cumSums[last] = x[last]
	for t := last - 1; t >= 0; t-- {
		cumSums[t] = x[t] + d*cumSums[t+1]
	}
	return cumSums
}

// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/G.ld on GitHub
package op

import (
	"math"

	G "gorgonia.org/gorgonia"
)

// Clip clips the value of a node so that each element lies in
// [min, max]. Gradients flow only through elements that were not
// clipped.
func Clip(value *G.Node, min, max float64) (retVal *G.Node, err error) {
	minNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(min),
		G.WithName("clip_min"),
	)
	maxNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(max),
		G.WithName("clip_max"),
	)

	// Check if its the min value
	minMask, err := G.Lt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	minVal, err := G.HadamardProd(minNode, minMask)
	if err != nil {
		return nil, err
	}

	// Check if its the given value. Both bounds are inclusive so that
	// a value sitting exactly on a bound is kept.
	isMaskGte, err := G.Gte(value, minNode, true)
	if err != nil {
		return nil, err
	}
	isMaskLte, err := G.Lte(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	isMask, err := G.HadamardProd(isMaskGte, isMaskLte)
	if err != nil {
		return nil, err
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, err
	}

	// Check if its the max value
	maxMask, err := G.Gt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	maxVal, err := G.HadamardProd(maxNode, maxMask)
	if err != nil {
		return nil, err
	}
	return G.ReduceAdd(G.Nodes{minVal, isVal, maxVal})
}

// Min returns the min value between the nodes. If values are equal
// the first value is returned
func Min(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// Max value between the nodes. If values are equal the first value is
// returned. Either node may be a scalar.
func Max(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Gte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Gt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// SoftMax normalises the rows of a batch of logits (batch x classes)
// into probability distributions. The log-sum-exp is computed stably
// so that large logits do not overflow.
func SoftMax(logits *G.Node) *G.Node {
	lse := LogSumExp(logits, 1)
	logProbs := G.Must(G.BroadcastSub(logits, lse, nil, []byte{1}))
	return G.Must(G.Exp(logProbs))
}

// GaussianLogPdf calculates the element-wise log density of actions
// under independent Gaussian distributions with mean mean and standard
// deviation std.
//
// All arguments should be two-dimensional and of the same size m x n.
// Rows index the batch and columns index independent action
// dimensions. The returned node has the same m x n shape; summing
// along axis 1 gives the log density of a diagonal Gaussian.
func GaussianLogPdf(mean, std, actions *G.Node) *G.Node {
	graph := mean.Graph()
	if graph != std.Graph() || graph != actions.Graph() {
		panic("gaussianLogPdf: all nodes must share the same graph")
	}

	negativeHalf := G.NewConstant(-0.5)
	logSqrt2Pi := G.NewConstant(0.5 * math.Log(2*math.Pi))

	exponent := G.Must(G.Sub(actions, mean))
	exponent = G.Must(G.HadamardDiv(exponent, std))
	exponent = G.Must(G.Square(exponent))
	exponent = G.Must(G.HadamardProd(negativeHalf, exponent))

	logStd := G.Must(G.Log(std))
	logProb := G.Must(G.Sub(exponent, logStd))

	return G.Must(G.Sub(logProb, logSqrt2Pi))
}

// MeanSquaredError returns a scalar node holding the mean over all
// elements of (prediction - target)².
func MeanSquaredError(prediction, target *G.Node) *G.Node {
	diff := G.Must(G.Sub(prediction, target))
	return G.Must(G.Mean(G.Must(G.Square(diff))))
}

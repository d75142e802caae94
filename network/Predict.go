package network

import (
	"fmt"

	"github.com/samuelfneumann/mineagent/action"
	G "gorgonia.org/gorgonia"
)

// PredictDistribution computes the action distribution of an Actor for
// a single embedding. No gradients are computed.
func PredictDistribution(a Actor, embedding []float64) (action.Distribution,
	error) {
	g := G.NewGraph()
	x, err := NewInput(g, "embedding", [][]float64{embedding})
	if err != nil {
		return action.Distribution{}, fmt.Errorf("predictDistribution: %v",
			err)
	}

	dist, _, err := a.Fwd(x)
	if err != nil {
		return action.Distribution{}, fmt.Errorf("predictDistribution: %v",
			err)
	}

	var catVals [action.NumCategorical]G.Value
	for i := range dist.Categorical {
		G.Read(dist.Categorical[i], &catVals[i])
	}
	var meanVal, stdVal G.Value
	G.Read(dist.Mean, &meanVal)
	G.Read(dist.Std, &stdVal)

	if err := run(g); err != nil {
		return action.Distribution{}, fmt.Errorf("predictDistribution: %v",
			err)
	}

	var out action.Distribution
	for i := range catVals {
		out.Categorical[i] = copyData(catVals[i])
	}
	copy(out.Mean[:], copyData(meanVal))
	copy(out.Std[:], copyData(stdVal))

	return out, nil
}

// PredictValue computes the state value of an embedding. No gradients
// are computed.
func PredictValue(c Critic, embedding []float64) (float64, error) {
	g := G.NewGraph()
	x, err := NewInput(g, "embedding", [][]float64{embedding})
	if err != nil {
		return 0, fmt.Errorf("predictValue: %v", err)
	}

	value, _, err := c.Fwd(x)
	if err != nil {
		return 0, fmt.Errorf("predictValue: %v", err)
	}
	var valueVal G.Value
	G.Read(value, &valueVal)

	if err := run(g); err != nil {
		return 0, fmt.Errorf("predictValue: %v", err)
	}
	return copyData(valueVal)[0], nil
}

// PredictNext predicts the embedding following an embedding and an
// action. No gradients are computed.
func PredictNext(f ForwardDynamics, embedding []float64,
	a action.Vector) ([]float64, error) {
	g := G.NewGraph()
	x, err := NewInput(g, "embedding", [][]float64{embedding})
	if err != nil {
		return nil, fmt.Errorf("predictNext: %v", err)
	}
	act := NewInputFromBacking(g, "action", 1, action.Dims, a.Slice())

	next, _, err := f.Fwd(x, act)
	if err != nil {
		return nil, fmt.Errorf("predictNext: %v", err)
	}
	var nextVal G.Value
	G.Read(next, &nextVal)

	if err := run(g); err != nil {
		return nil, fmt.Errorf("predictNext: %v", err)
	}
	return copyData(nextVal), nil
}

// run executes a forward pass over g without computing gradients
func run(g *G.ExprGraph) error {
	vm := G.NewTapeMachine(g)
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return fmt.Errorf("could not run forward pass: %v", err)
	}
	return nil
}

// copyData returns a copy of the float64 data held by v
func copyData(v G.Value) []float64 {
	switch data := v.Data().(type) {
	case float64:
		return []float64{data}
	case []float64:
		return append([]float64(nil), data...)
	}
	panic(fmt.Sprintf("copyData: illegal data type %T", v.Data()))
}

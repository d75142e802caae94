package network_test

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/network"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const features = 4

func embedding() []float64 {
	return []float64{0.5, -1.0, 0.25, 2.0}
}

func TestPredictDistribution(t *testing.T) {
	space := action.Space{3, 3, 4, 5, 5, 2, 7, 3}
	actor, err := network.NewLinearAffector("actor", features, space,
		G.GlorotU(1.0))
	if err != nil {
		t.Fatal(err)
	}

	dist, err := network.PredictDistribution(actor, embedding())
	if err != nil {
		t.Fatal(err)
	}
	if err := dist.Validate(); err != nil {
		t.Errorf("predictDistribution: invalid distribution: %v", err)
	}
	if dist.Space() != space {
		t.Errorf("predictDistribution: space \n\twant(%v)\n\thave(%v)", space,
			dist.Space())
	}
	for i, std := range dist.Std {
		if std < 1e-3 {
			t.Errorf("predictDistribution: std %v below offset: %v", i, std)
		}
	}
}

func TestZeroAffectorIsUniform(t *testing.T) {
	space := action.Space{2, 4, 4, 5, 5, 2, 7, 3}
	actor, err := network.NewLinearAffector("actor", features, space,
		G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}

	dist, err := network.PredictDistribution(actor, embedding())
	if err != nil {
		t.Fatal(err)
	}
	for i, probs := range dist.Categorical {
		for _, p := range probs {
			if !scalar.EqualWithinAbs(p, 1/float64(space[i]), 1e-12) {
				t.Errorf("predictDistribution: component %v not uniform: %v",
					i, probs)
				break
			}
		}
	}
}

func TestPredictValue(t *testing.T) {
	critic, err := network.NewLinearCritic("critic", features, G.Ones())
	if err != nil {
		t.Fatal(err)
	}

	value, err := network.PredictValue(critic, embedding())
	if err != nil {
		t.Fatal(err)
	}
	want := floats.Sum(embedding())
	if !scalar.EqualWithinAbs(value, want, 1e-12) {
		t.Errorf("predictValue: \n\twant(%v)\n\thave(%v)", want, value)
	}

	if _, err := network.PredictValue(critic, []float64{1}); err == nil {
		t.Error("predictValue: expected error for illegal embedding size")
	}
}

func TestPredictNext(t *testing.T) {
	dynamics, err := network.NewForwardDynamics("forward", features, 8,
		G.GlorotU(1.0))
	if err != nil {
		t.Fatal(err)
	}

	next, err := network.PredictNext(dynamics, embedding(), action.Vector{})
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != features {
		t.Errorf("predictNext: \n\twant(%v features)\n\thave(%v)", features,
			len(next))
	}
}

func TestInverseDynamicsBatch(t *testing.T) {
	space := action.DefaultSpace()
	inverse, err := network.NewInverseDynamics("inverse", features, space,
		G.GlorotU(1.0))
	if err != nil {
		t.Fatal(err)
	}

	g := G.NewGraph()
	x, err := network.NewInput(g, "features", [][]float64{embedding(),
		embedding(), embedding()})
	if err != nil {
		t.Fatal(err)
	}
	next, err := network.NewInput(g, "next", [][]float64{embedding(),
		embedding(), embedding()})
	if err != nil {
		t.Fatal(err)
	}

	dist, learnables, err := inverse.Fwd(x, next)
	if err != nil {
		t.Fatal(err)
	}
	if len(learnables) != len(inverse.Learnables()) {
		t.Errorf("fwd: learnables \n\twant(%v)\n\thave(%v)",
			len(inverse.Learnables()), len(learnables))
	}
	for i, probs := range dist.Categorical {
		want := tensor.Shape{3, space[i]}
		if !probs.Shape().Eq(want) {
			t.Errorf("fwd: component %v shape \n\twant(%v)\n\thave(%v)", i,
				want, probs.Shape())
		}
	}

	inverse.SetMode(network.Training)
	if inverse.Mode() != network.Training {
		t.Errorf("setMode: \n\twant(%v)\n\thave(%v)", network.Training,
			inverse.Mode())
	}
}

func TestLoad(t *testing.T) {
	params := []*tensor.Dense{
		tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float64{1,
			2})),
	}

	g := G.NewGraph()
	stepped := network.NewInputFromBacking(g, "stepped", 1, 2,
		[]float64{3, 4})
	if err := network.Load(params, G.Nodes{stepped}); err != nil {
		t.Fatal(err)
	}
	if have := params[0].Data().([]float64); !floats.Equal(have,
		[]float64{3, 4}) {
		t.Errorf("load: \n\twant([3 4])\n\thave(%v)", have)
	}

	if err := network.Load(params, nil); err == nil {
		t.Error("load: expected error for mismatched number of nodes")
	}
}

func TestActivationText(t *testing.T) {
	var acts []*network.Activation
	if err := json.Unmarshal([]byte(`["relu", "tanh", "identity"]`),
		&acts); err != nil {
		t.Fatal(err)
	}
	want := []string{"relu", "tanh", "identity"}
	for i := range acts {
		if acts[i].String() != want[i] {
			t.Errorf("unmarshalText: \n\twant(%v)\n\thave(%v)", want[i],
				acts[i])
		}
	}

	var act network.Activation
	if err := json.Unmarshal([]byte(`"sigmoid"`), &act); err == nil {
		t.Error("unmarshalText: expected error for unknown activation")
	}
}

package td_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/learning/td"
	"github.com/samuelfneumann/mineagent/network"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	G "gorgonia.org/gorgonia"
)

func TestLoss(t *testing.T) {
	critic, err := network.NewLinearCritic("critic", 2, G.Ones())
	if err != nil {
		t.Fatal(err)
	}
	ac, err := td.New(critic, td.Config{Discount: 0.5})
	if err != nil {
		t.Fatal(err)
	}

	g := G.NewGraph()
	value := G.NewMatrix(g, G.Float64, G.WithShape(1, 1),
		G.WithInit(G.ValuesOf(2.0)), G.WithName("value"))
	logProb := G.NewVector(g, G.Float64, G.WithShape(1),
		G.WithInit(G.ValuesOf(-3.0)), G.WithName("logProb"))

	// v(s') = 1 + 3 = 4, δ = 1 + 0.5 * 4 - 2 = 1
	loss, err := ac.Loss(value, logProb, 1.0, []float64{1, 3}, 1.0, 2)
	if err != nil {
		t.Fatal(err)
	}
	var lossVal G.Value
	G.Read(loss, &lossVal)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	// actor: -(0.5²) * 1 * -3 = 0.75, critic: 0.5 * 1² = 0.5
	want := 1.25
	if have := lossVal.Data().(float64); !scalar.EqualWithinAbs(have, want,
		1e-12) {
		t.Errorf("loss: \n\twant(%v)\n\thave(%v)", want, have)
	}
}

func TestUpdate(t *testing.T) {
	critic, err := network.NewLinearCritic("critic", 2, G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	actor, err := network.NewLinearAffector("actor", 2,
		action.DefaultSpace(), G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	ac, err := td.New(critic, td.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	var taken action.Vector
	taken[6] = 10
	loss, err := ac.Update(actor, G.NewVanillaSolver(G.WithLearnRate(0.1)),
		[]float64{1, 1}, taken, 1.0, []float64{0, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}

	// With all parameters zero, δ = 1 and the critic loss is 0.5
	std := math.Log1p(1) + 1e-3
	logProb := -math.Log(2*math.Pi) - 2*math.Log(std)
	for _, n := range action.DefaultSpace() {
		logProb -= math.Log(float64(n))
	}
	want := -logProb + 0.5
	if !scalar.EqualWithinAbsOrRel(loss, want, 1e-9, 1e-9) {
		t.Errorf("update: loss \n\twant(%v)\n\thave(%v)", want, loss)
	}

	// A positive TD error increases the value of the embedding
	weights := critic.Learnables()[0].Data().([]float64)
	if !floats.EqualApprox(weights, []float64{0.1, 0.1}, 1e-12) {
		t.Errorf("update: critic weights \n\twant([0.1 0.1])\n\thave(%v)",
			weights)
	}
	bias := critic.Learnables()[1].Data().([]float64)
	if !floats.EqualApprox(bias, []float64{0.1}, 1e-12) {
		t.Errorf("update: critic bias \n\twant([0.1])\n\thave(%v)", bias)
	}

	delta, err := ac.TDError([]float64{1, 1}, 1.0, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	// v(s) = 0.3, v(s') = 0.1
	if want := 1 + 0.99*0.1 - 0.3; !scalar.EqualWithinAbs(delta, want,
		1e-12) {
		t.Errorf("tdError: \n\twant(%v)\n\thave(%v)", want, delta)
	}
}

func TestNewInvalid(t *testing.T) {
	critic, err := network.NewLinearCritic("critic", 2, G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := td.New(critic, td.Config{Discount: 1.5}); err == nil {
		t.Error("new: expected error for discount above 1")
	}
}

package action_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/mineagent/action"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats/scalar"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const tolerance = 1e-9

// uniform returns a Distribution with uniform categorical components of
// the given cardinalities and Gaussians with the given parameters.
func uniform(space action.Space, mean, std [2]float64) action.Distribution {
	var d action.Distribution
	for i, n := range space {
		probs := make([]float64, n)
		for j := range probs {
			probs[j] = 1.0 / float64(n)
		}
		d.Categorical[i] = probs
	}
	d.Mean = mean
	d.Std = std
	return d
}

func TestSampleLogProbRoundTrip(t *testing.T) {
	space := action.Space{3, 3, 4, 5, 5, 8, 6, 2}
	d := uniform(space, [2]float64{0.5, -1}, [2]float64{0.3, 2})

	// Skew one component so that log-probabilities differ per category
	d.Categorical[2] = []float64{0.1, 0.2, 0.3, 0.4}

	src := rand.NewSource(42)
	for i := 0; i < 50; i++ {
		act, sampled, err := action.Sample(d, src)
		if err != nil {
			t.Fatalf("sample: %v", err)
		}

		for j := 0; j < action.NumCategorical; j++ {
			if act.Index(j) < 0 || act.Index(j) >= space[j] {
				t.Errorf("sample: component %v index out of range "+
					"\n\twant([0, %v))\n\thave(%v)", j, space[j], act[j])
			}
		}

		scored, err := action.LogProb(d, act)
		if err != nil {
			t.Fatalf("logProb: %v", err)
		}
		for j := range scored {
			if !scalar.EqualWithinAbsOrRel(scored[j], sampled[j], tolerance,
				tolerance) {
				t.Errorf("logProb: component %v \n\twant(%v)\n\thave(%v)",
					j, sampled[j], scored[j])
			}
		}
	}
}

func TestSampleDegenerate(t *testing.T) {
	space := action.Space{1, 1, 1, 1, 1, 1, 1, 1}
	d := uniform(space, [2]float64{}, [2]float64{1, 1})

	act, logProb, err := action.Sample(d, rand.NewSource(1))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for i := 0; i < action.NumCategorical; i++ {
		if act[i] != 0 {
			t.Errorf("sample: degenerate component %v \n\twant(0)\n\thave(%v)",
				i, act[i])
		}
		if logProb[i] != 0 {
			t.Errorf("sample: degenerate log probability %v "+
				"\n\twant(0)\n\thave(%v)", i, logProb[i])
		}
	}
}

func TestLogProbGaussian(t *testing.T) {
	space := action.Space{2, 2, 2, 2, 2, 2, 2, 2}
	d := uniform(space, [2]float64{1, -2}, [2]float64{0.5, 3})

	var act action.Vector
	act[action.NumCategorical] = 1
	act[action.NumCategorical+1] = 1

	logProb, err := action.LogProb(d, act)
	if err != nil {
		t.Fatal(err)
	}

	wantX := -0.5*math.Log(2*math.Pi) - math.Log(0.5)
	wantY := -0.5*math.Pow(3.0/3.0, 2) - 0.5*math.Log(2*math.Pi) - math.Log(3)
	if !scalar.EqualWithinAbsOrRel(logProb[action.NumCategorical], wantX,
		tolerance, tolerance) {
		t.Errorf("logProb: x coordinate \n\twant(%v)\n\thave(%v)", wantX,
			logProb[action.NumCategorical])
	}
	if !scalar.EqualWithinAbsOrRel(logProb[action.NumCategorical+1], wantY,
		tolerance, tolerance) {
		t.Errorf("logProb: y coordinate \n\twant(%v)\n\thave(%v)", wantY,
			logProb[action.NumCategorical+1])
	}
	for i := 0; i < action.NumCategorical; i++ {
		if !scalar.EqualWithinAbsOrRel(logProb[i], math.Log(0.5), tolerance,
			tolerance) {
			t.Errorf("logProb: component %v \n\twant(%v)\n\thave(%v)", i,
				math.Log(0.5), logProb[i])
		}
	}
}

func TestMalformed(t *testing.T) {
	space := action.Space{2, 2, 2, 2, 2, 2, 2, 2}
	d := uniform(space, [2]float64{}, [2]float64{1, 1})

	outOfRange := action.Vector{}
	outOfRange[3] = 2

	fractional := action.Vector{}
	fractional[0] = 0.5

	nonFinite := action.Vector{}
	nonFinite[action.NumCategorical] = math.Inf(1)

	for _, a := range []action.Vector{outOfRange, fractional, nonFinite} {
		if _, err := action.LogProb(d, a); !errors.Is(err, action.ErrMalformed) {
			t.Errorf("logProb: expected malformed action error for %v, "+
				"have(%v)", a, err)
		}
	}

	badStd := d
	badStd.Std = [2]float64{0, 1}
	if _, _, err := action.Sample(badStd, rand.NewSource(1)); !errors.Is(err,
		action.ErrMalformed) {
		t.Errorf("sample: expected error for zero standard deviation, "+
			"have(%v)", err)
	}

	badProbs := d
	badProbs.Categorical[0] = []float64{0.9, 0.9}
	if _, _, err := action.Sample(badProbs, rand.NewSource(1)); !errors.Is(err,
		action.ErrMalformed) {
		t.Errorf("sample: expected error for unnormalized probabilities, "+
			"have(%v)", err)
	}

	if _, err := action.FromSlice(make([]float64, action.Dims-1)); !errors.Is(
		err, action.ErrMalformed) {
		t.Errorf("fromSlice: expected error for wrong length, have(%v)", err)
	}
}

func TestOneHot(t *testing.T) {
	acts := make([]action.Vector, 3)
	acts[0][1] = 2
	acts[1][1] = 0
	acts[2][1] = 1

	mask, err := action.OneHot(acts, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{
		0, 0, 1,
		1, 0, 0,
		0, 1, 0,
	}
	have := mask.Data().([]float64)
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("oneHot: \n\twant(%v)\n\thave(%v)", want, have)
		}
	}

	if _, err := action.OneHot(acts, 1, 2); !errors.Is(err,
		action.ErrMalformed) {
		t.Errorf("oneHot: expected error for index out of range, have(%v)",
			err)
	}
}

// TestJointLogProb checks that the graph computation of the joint log
// probability matches the sum of sampled per-component log
// probabilities.
func TestJointLogProb(t *testing.T) {
	space := action.Space{3, 2, 4, 5, 2, 3, 6, 2}
	dists := []action.Distribution{
		uniform(space, [2]float64{0.1, 0.2}, [2]float64{1.0, 0.5}),
		uniform(space, [2]float64{-1, 3}, [2]float64{0.2, 2.0}),
	}
	dists[1].Categorical[0] = []float64{0.7, 0.2, 0.1}

	src := rand.NewSource(7)
	acts := make([]action.Vector, len(dists))
	want := make([]float64, len(dists))
	for i, d := range dists {
		a, logProb, err := action.Sample(d, src)
		if err != nil {
			t.Fatal(err)
		}
		acts[i] = a
		want[i] = logProb.Sum()
	}

	g := G.NewGraph()
	var nodes action.Nodes
	for i := 0; i < action.NumCategorical; i++ {
		backing := make([]float64, 0, len(dists)*space[i])
		for _, d := range dists {
			backing = append(backing, d.Categorical[i]...)
		}
		nodes.Categorical[i] = G.NewMatrix(g, tensor.Float64,
			G.WithShape(len(dists), space[i]),
			G.WithValue(tensor.New(tensor.WithShape(len(dists), space[i]),
				tensor.WithBacking(backing))),
			G.WithName("probs"+string(rune('A'+i))),
		)
	}
	var mean, std []float64
	for _, d := range dists {
		mean = append(mean, d.Mean[:]...)
		std = append(std, d.Std[:]...)
	}
	nodes.Mean = G.NewMatrix(g, tensor.Float64, G.WithShape(len(dists), 2),
		G.WithValue(tensor.New(tensor.WithShape(len(dists), 2),
			tensor.WithBacking(mean))), G.WithName("mean"))
	nodes.Std = G.NewMatrix(g, tensor.Float64, G.WithShape(len(dists), 2),
		G.WithValue(tensor.New(tensor.WithShape(len(dists), 2),
			tensor.WithBacking(std))), G.WithName("std"))

	joint, err := action.JointLogProb(nodes, acts)
	if err != nil {
		t.Fatal(err)
	}
	var jointVal G.Value
	G.Read(joint, &jointVal)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	have := jointVal.Data().([]float64)
	for i := range want {
		if !scalar.EqualWithinAbsOrRel(have[i], want[i], 1e-6, 1e-6) {
			t.Errorf("jointLogProb: row %v \n\twant(%v)\n\thave(%v)", i,
				want[i], have[i])
		}
	}
}

package gae_test

import (
	"testing"

	"github.com/samuelfneumann/mineagent/buffer/gae"
	"gonum.org/v1/gonum/floats"
)

const tolerance = 1e-12

func TestDiscountCumSum(t *testing.T) {
	tests := []struct {
		x        []float64
		discount float64
		want     []float64
	}{
		{[]float64{1, 2, 3, 4}, 1.0, []float64{10, 9, 7, 4}},
		{[]float64{1, 2, 3, 4}, 0.5, []float64{3.25, 4.5, 5, 4}},
		{[]float64{1, 2, 3, 4}, 0.0, []float64{1, 2, 3, 4}},
		{[]float64{5}, 0.9, []float64{5}},
		{[]float64{}, 0.9, []float64{}},
	}

	for _, test := range tests {
		have := gae.DiscountCumSum(test.x, test.discount)
		if len(have) != len(test.want) || !floats.EqualApprox(have,
			test.want, tolerance) {
			t.Errorf("discountCumSum(%v, %v): \n\twant(%v)\n\thave(%v)",
				test.x, test.discount, test.want, have)
		}
	}
}

func TestEstimate(t *testing.T) {
	values := []float64{1, 2, 3}
	rewards := []float64{1, 1}
	gamma, lambda := 0.5, 0.5

	returns, advantages, err := gae.Estimate(values, rewards, gamma, lambda)
	if err != nil {
		t.Fatal(err)
	}

	// δ = [1 + 0.5*2 - 1, 1 + 0.5*3 - 2] = [1, 0.5]
	wantAdv := []float64{1 + 0.25*0.5, 0.5}
	wantRet := []float64{1.5, 1}
	if !floats.EqualApprox(advantages, wantAdv, tolerance) {
		t.Errorf("estimate: advantages \n\twant(%v)\n\thave(%v)", wantAdv,
			advantages)
	}
	if !floats.EqualApprox(returns, wantRet, tolerance) {
		t.Errorf("estimate: returns \n\twant(%v)\n\thave(%v)", wantRet,
			returns)
	}

	// Inputs must not be modified
	if !floats.Equal(values, []float64{1, 2, 3}) {
		t.Errorf("estimate: values modified: %v", values)
	}
}

func TestEstimateLengthMismatch(t *testing.T) {
	if _, _, err := gae.Estimate([]float64{1, 2}, []float64{1, 2}, 0.9,
		0.9); err == nil {
		t.Error("estimate: expected error when values and rewards have " +
			"the same length")
	}
}

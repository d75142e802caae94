package solver_test

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/mineagent/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestUnmarshalJSON(t *testing.T) {
	data := []byte(`{"Type": "Vanilla", "Config": {"StepSize": 0.25,
		"Batch": 1, "Clip": 0}}`)

	var s solver.Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Type != solver.Vanilla {
		t.Errorf("unmarshal: type \n\twant(%v)\n\thave(%v)", solver.Vanilla,
			s.Type)
	}
	config, ok := s.Config.(solver.VanillaConfig)
	if !ok || config.StepSize != 0.25 {
		t.Errorf("unmarshal: config \n\twant(0.25)\n\thave(%v)", s.Config)
	}

	// w = 2, loss = w², w ← 2 - 0.25 * 4
	g := G.NewGraph()
	w := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1), G.WithName("w"),
		G.WithValue(tensor.New(tensor.WithShape(1, 1),
			tensor.WithBacking([]float64{2}))))
	loss := G.Must(G.Sum(G.Must(G.Square(w))))
	if _, err := G.Grad(loss, w); err != nil {
		t.Fatal(err)
	}
	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(G.NodesToValueGrads(G.Nodes{w})); err != nil {
		t.Fatal(err)
	}
	if have := w.Value().Data().([]float64)[0]; have != 1 {
		t.Errorf("step: \n\twant(1)\n\thave(%v)", have)
	}
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	for _, data := range []string{
		`{"Config": {"StepSize": 0.1}}`,
		`{"Type": "SGDR", "Config": {}}`,
		`{"Type": "Adam", "Config": {"StepSize": "fast"}}`,
		`[]`,
	} {
		var s solver.Solver
		if err := json.Unmarshal([]byte(data), &s); err == nil {
			t.Errorf("unmarshal: %v: expected error", data)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := solver.NewRMSProp(0.01, 1e-6, 0.001, 0.9, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var decoded solver.Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != solver.RMSProp || decoded.Config != s.Config {
		t.Errorf("roundTrip: \n\twant(%v %v)\n\thave(%v %v)", s.Type,
			s.Config, decoded.Type, decoded.Config)
	}
	if decoded.Solver == nil {
		t.Error("roundTrip: gorgonia solver not created")
	}
}

func TestClone(t *testing.T) {
	s, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		t.Fatal(err)
	}
	clone, err := s.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if clone.Type != s.Type || clone.Config != s.Config {
		t.Errorf("clone: \n\twant(%v %v)\n\thave(%v %v)", s.Type, s.Config,
			clone.Type, clone.Config)
	}
	if clone.Solver == s.Solver {
		t.Error("clone: gorgonia solver is shared")
	}

	if _, err := (&solver.Solver{}).Clone(); err == nil {
		t.Error("clone: expected error without a configuration")
	}
}

func TestNewRMSPropEta(t *testing.T) {
	if _, err := solver.NewRMSProp(0.01, 1e-8, 0.1, 0.9, 1, -1); err == nil {
		t.Error("newRMSProp: expected error for unsupported η")
	}
}

func TestValidate(t *testing.T) {
	for _, c := range []struct {
		name string
		new  func() (*solver.Solver, error)
	}{
		{"zero step", func() (*solver.Solver, error) {
			return solver.NewVanilla(0, 1, 0)
		}},
		{"zero batch", func() (*solver.Solver, error) {
			return solver.NewDefaultAdam(1e-3, 0)
		}},
		{"beta", func() (*solver.Solver, error) {
			return solver.NewAdam(1e-3, 1e-8, 1, 0.999, 1, 0)
		}},
		{"rho", func() (*solver.Solver, error) {
			return solver.NewRMSProp(1e-3, 1e-8, 0.001, 1.5, 1, 0)
		}},
	} {
		if _, err := c.new(); err == nil {
			t.Errorf("validate: %v: expected error", c.name)
		}
	}

	data := []byte(`{"Type": "Adam", "Config": {"StepSize": -1, "Batch": 1}}`)
	var s solver.Solver
	if err := json.Unmarshal(data, &s); err == nil {
		t.Error("unmarshal: expected error for negative step size")
	}
}

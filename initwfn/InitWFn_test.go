package initwfn_test

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/mineagent/initwfn"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

func TestUnmarshalJSON(t *testing.T) {
	var init initwfn.InitWFn
	data := []byte(`{"Type": "Constant", "Config": {"Value": 0.5}}`)
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatal(err)
	}
	if init.Type != initwfn.Constant {
		t.Errorf("unmarshal: type \n\twant(%v)\n\thave(%v)", initwfn.Constant,
			init.Type)
	}

	values := init.InitWFn()(G.Float64, 2, 3).([]float64)
	want := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	if !floats.Equal(values, want) {
		t.Errorf("initWFn: \n\twant(%v)\n\thave(%v)", want, values)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	constructors := []func() (*initwfn.InitWFn, error){
		func() (*initwfn.InitWFn, error) { return initwfn.NewGlorotU(1.0) },
		func() (*initwfn.InitWFn, error) { return initwfn.NewHeN(2.0) },
		func() (*initwfn.InitWFn, error) { return initwfn.NewZeroes() },
		func() (*initwfn.InitWFn, error) { return initwfn.NewUniform(-1, 1) },
		func() (*initwfn.InitWFn, error) { return initwfn.NewGaussian(0, 0.1) },
	}
	for _, create := range constructors {
		init, err := create()
		if err != nil {
			t.Fatal(err)
		}
		data, err := json.Marshal(init)
		if err != nil {
			t.Fatal(err)
		}

		var decoded initwfn.InitWFn
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Type != init.Type || decoded.Config != init.Config {
			t.Errorf("roundTrip: \n\twant(%v)\n\thave(%v)", init, &decoded)
		}
		if decoded.InitWFn() == nil {
			t.Errorf("roundTrip: %v: InitWFn not created", init.Type)
		}
	}
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	for _, data := range []string{
		`{"Config": {}}`,
		`{"Type": "Orthogonal", "Config": {}}`,
		`{"Type": "GlorotU", "Config": {"Gain": 0}}`,
		`{"Type": "Uniform", "Config": {"Low": 1, "High": -1}}`,
	} {
		var init initwfn.InitWFn
		if err := json.Unmarshal([]byte(data), &init); err == nil {
			t.Errorf("unmarshal: %v: expected error", data)
		}
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := initwfn.NewHeU(-1); err == nil {
		t.Error("newHeU: expected error for negative gain")
	}
	if _, err := initwfn.NewGaussian(0, -0.1); err == nil {
		t.Error("newGaussian: expected error for negative standard deviation")
	}
}

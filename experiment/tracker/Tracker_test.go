package tracker_test

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/mineagent/experiment/tracker"
	ts "github.com/samuelfneumann/mineagent/timestep"
	"gonum.org/v1/gonum/floats"
)

func episode(rewards []float64) []ts.TimeStep {
	steps := make([]ts.TimeStep, len(rewards))
	for i, r := range rewards {
		t := ts.Mid
		if i == 0 {
			t = ts.First
		} else if i == len(rewards)-1 {
			t = ts.Last
		}
		steps[i] = ts.New(t, r, 1, nil, i)
	}
	return steps
}

func TestReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.bin")
	r := tracker.NewReturn(path)
	lengths := tracker.NewEpisodeLength(filepath.Join(t.TempDir(),
		"lengths.bin"))

	var steps []ts.TimeStep
	steps = append(steps, episode([]float64{0, 1, 2})...)
	steps = append(steps, episode([]float64{0, -1, 4, 0.5})...)

	// An unfinished episode is discarded
	steps = append(steps, episode([]float64{0, 10, 10})[:2]...)
	steps = append(steps, episode([]float64{0, 2})...)

	for _, step := range steps {
		for _, tr := range []tracker.Tracker{r, lengths} {
			if err := tr.Track(step); err != nil {
				t.Fatal(err)
			}
		}
	}

	want := []float64{3, 3.5, 2}
	if !floats.Equal(r.Returns(), want) {
		t.Errorf("track: \n\twant(%v)\n\thave(%v)", want, r.Returns())
	}
	if want := []float64{2, 3, 1}; !floats.Equal(lengths.Lengths(), want) {
		t.Errorf("track: lengths \n\twant(%v)\n\thave(%v)", want,
			lengths.Lengths())
	}

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := tracker.LoadData(path)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(loaded, want) {
		t.Errorf("loadData: \n\twant(%v)\n\thave(%v)", want, loaded)
	}
}

func TestReturnNotSequential(t *testing.T) {
	r := tracker.NewReturn("")
	if err := r.Track(ts.New(ts.First, 0, 1, nil, 0)); err != nil {
		t.Fatal(err)
	}
	if err := r.Track(ts.New(ts.Mid, 0, 1, nil, 2)); err == nil {
		t.Error("track: expected error for non-sequential timesteps")
	}
}

func TestLoadDataMissing(t *testing.T) {
	_, err := tracker.LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Error("loadData: expected error for missing file")
	}
}

package experiment_test

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/mineagent/action"
	"github.com/samuelfneumann/mineagent/agent"
	"github.com/samuelfneumann/mineagent/environment/gaze"
	"github.com/samuelfneumann/mineagent/experiment"
	"github.com/samuelfneumann/mineagent/experiment/tracker"
	"github.com/samuelfneumann/mineagent/monitoring"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestOnlineRun(t *testing.T) {
	const features = 3
	space := action.Space{2, 2, 2, 2, 2, 2, 2, 2}

	envConfig := gaze.DefaultConfig(features, [2]int{20, 20})
	envConfig.EpisodeSteps = 4
	env, err := gaze.New(envConfig, space, 1)
	if err != nil {
		t.Fatal(err)
	}

	c := agent.DefaultConfig()
	c.Capacity = 4
	c.Space = space
	c.PPO.ActorIters, c.PPO.CriticIters = 1, 1
	c.ICM.InverseIters, c.ICM.ForwardIters = 1, 1
	c.Network.ForwardHidden = 4

	bus := monitoring.NewBus()
	counts := make(map[monitoring.Kind]int)
	var rewards []float64
	var stop *monitoring.Stop
	for _, k := range []monitoring.Kind{
		monitoring.StartKind, monitoring.StopKind, monitoring.EnvStepKind,
		monitoring.EnvResetKind, monitoring.ActionKind, monitoring.UpdateKind,
	} {
		bus.Subscribe(k, func(e monitoring.Event) {
			counts[e.Kind()]++
			switch e := e.(type) {
			case *monitoring.EnvStep:
				rewards = append(rewards, e.Reward)
			case *monitoring.Stop:
				stop = e
			}
		})
	}

	a, err := agent.New(c, features, 1, agent.WithPublisher(bus))
	if err != nil {
		t.Fatal(err)
	}
	returns := tracker.NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(t.TempDir(),
		"lengths.bin"))

	exp, err := experiment.NewOnline(env, a, 10,
		experiment.WithPublisher(bus), experiment.WithTrackers(returns),
	)
	if err != nil {
		t.Fatal(err)
	}
	exp.Register(lengths)

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	// Episodes of 4, 4, and 2 steps. The agent also acts on the last
	// observation of each episode.
	want := map[monitoring.Kind]int{
		monitoring.StartKind:    1,
		monitoring.StopKind:     1,
		monitoring.EnvStepKind:  10,
		monitoring.EnvResetKind: 3,
		monitoring.ActionKind:   13,
		monitoring.UpdateKind:   2 * (13 - 3),
	}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("run: %v events \n\twant(%v)\n\thave(%v)", k, n, counts[k])
		}
	}

	if exp.Steps() != 10 {
		t.Errorf("run: steps \n\twant(10)\n\thave(%v)", exp.Steps())
	}
	total := floats.Sum(rewards)
	if stop == nil || !scalar.EqualWithinAbs(stop.TotalReturn, total, 1e-9) ||
		stop.Steps != 10 {
		t.Errorf("run: stop \n\twant(%v, 10)\n\thave(%+v)", total, stop)
	}
	if !scalar.EqualWithinAbs(exp.TotalReturn(), total, 1e-9) {
		t.Errorf("run: total return \n\twant(%v)\n\thave(%v)", total,
			exp.TotalReturn())
	}

	if want := []float64{4, 4}; !floats.Equal(lengths.Lengths(), want) {
		t.Errorf("run: lengths \n\twant(%v)\n\thave(%v)", want,
			lengths.Lengths())
	}
	finished := floats.Sum(rewards[:8])
	if r := returns.Returns(); len(r) != 2 ||
		!scalar.EqualWithinAbs(r[0]+r[1], finished, 1e-9) {
		t.Errorf("run: returns \n\twant(sum %v)\n\thave(%v)", finished, r)
	}
	if err := exp.Save(); err != nil {
		t.Fatal(err)
	}
}

func TestNewOnlineInvalid(t *testing.T) {
	if _, err := experiment.NewOnline(nil, nil, 0); err == nil {
		t.Error("newOnline: expected error for zero steps")
	}
}

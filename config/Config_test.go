package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/mineagent/agent"
	"github.com/samuelfneumann/mineagent/config"
	"github.com/samuelfneumann/mineagent/solver"
)

func TestDefaultValid(t *testing.T) {
	if err := config.Default().Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	c := config.Default()
	c.Engine.Seed = 1<<60 + 1
	c.Agent.Type = agent.ActorCritic
	c.Agent.PPO.Clip = 0.3
	c.Monitoring.SQLite = nil
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Engine.Seed != c.Engine.Seed {
		t.Errorf("load: seed \n\twant(%v)\n\thave(%v)", c.Engine.Seed,
			loaded.Engine.Seed)
	}
	if loaded.Agent.Type != agent.ActorCritic {
		t.Errorf("load: type \n\twant(%v)\n\thave(%v)", agent.ActorCritic,
			loaded.Agent.Type)
	}
	if loaded.Agent.PPO.Clip != 0.3 {
		t.Errorf("load: clip \n\twant(0.3)\n\thave(%v)", loaded.Agent.PPO.Clip)
	}
	if loaded.Monitoring.SQLite != nil {
		t.Errorf("load: sqlite \n\twant(nil)\n\thave(%v)",
			loaded.Monitoring.SQLite)
	}
	if loaded.Agent.ActorSolver.Type != solver.Adam {
		t.Errorf("load: solver \n\twant(%v)\n\thave(%v)", solver.Adam,
			loaded.Agent.ActorSolver.Type)
	}
	if loaded.Agent.ActorSolver.Solver == nil {
		t.Error("load: solver was not created")
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"Engine": {"MaxSteps": 20}, "Agent": {"Capacity": 8}}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := config.Default()
	if c.Engine.MaxSteps != 20 || c.Agent.Capacity != 8 {
		t.Errorf("load: \n\twant(20, 8)\n\thave(%v, %v)", c.Engine.MaxSteps,
			c.Agent.Capacity)
	}
	if c.Engine.Features != def.Engine.Features ||
		c.Agent.PPO != def.Agent.PPO {
		t.Error("load: missing fields should keep their defaults")
	}
}

func TestLoadUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"Engine": {"Steps": 20}}`),
		0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("load: expected error for unknown field")
	}
}

func TestOverride(t *testing.T) {
	c := config.Default()
	err := config.Override(&c, []string{
		"engine.max_steps=5",
		"Engine.MaxSteps=7",
		"agent.ppo.clip=0.1",
		"Agent.Type=TD-ActorCritic",
		"Agent.Space=[2,2,2,2,2,2,2,2]",
		"Agent.ActorSolver.Config.StepSize=0.5",
		"Monitoring.SQLite=null",
		"Monitoring.Enabled=false",
		"Engine.Seed=18446744073709551615",
	})
	if err == nil {
		t.Fatal("override: expected error for snake case key")
	}

	c = config.Default()
	err = config.Override(&c, []string{
		"Engine.MaxSteps=7",
		"agent.ppo.clip=0.1",
		"Agent.Type=TD-ActorCritic",
		"Agent.Space=[2,2,2,2,2,2,2,2]",
		"Agent.ActorSolver.Config.StepSize=0.5",
		"Monitoring.SQLite=null",
		"Monitoring.Enabled=false",
		"Engine.Seed=18446744073709551615",
	})
	if err != nil {
		t.Fatal(err)
	}

	if c.Engine.MaxSteps != 7 {
		t.Errorf("override: max steps \n\twant(7)\n\thave(%v)",
			c.Engine.MaxSteps)
	}
	if c.Agent.PPO.Clip != 0.1 {
		t.Errorf("override: clip \n\twant(0.1)\n\thave(%v)", c.Agent.PPO.Clip)
	}
	if c.Agent.Type != agent.ActorCritic {
		t.Errorf("override: type \n\twant(%v)\n\thave(%v)", agent.ActorCritic,
			c.Agent.Type)
	}
	for i, n := range c.Agent.Space {
		if n != 2 {
			t.Errorf("override: space[%v] \n\twant(2)\n\thave(%v)", i, n)
		}
	}
	adam, ok := c.Agent.ActorSolver.Config.(solver.AdamConfig)
	if !ok || adam.StepSize != 0.5 {
		t.Errorf("override: solver \n\twant(0.5)\n\thave(%v)",
			c.Agent.ActorSolver.Config)
	}
	if c.Monitoring.SQLite != nil || c.Monitoring.Enabled {
		t.Errorf("override: monitoring \n\twant({false <nil>})\n\thave(%v)",
			c.Monitoring)
	}
	if c.Engine.Seed != 18446744073709551615 {
		t.Errorf("override: seed \n\twant(%v)\n\thave(%v)",
			uint64(18446744073709551615), c.Engine.Seed)
	}
}

func TestOverrideInvalid(t *testing.T) {
	for _, pair := range []string{
		"Engine.MaxSteps",
		"Engine.Missing=1",
		"Engine.MaxSteps=ten",
		"Engine.MaxSteps.Value=1",
		"Agent.PPO=0.1",
		"Monitoring.Enabled=1",
	} {
		c := config.Default()
		if err := config.Override(&c, []string{pair}); err == nil {
			t.Errorf("override: %v: expected error", pair)
		}
		if c.Engine.MaxSteps != config.Default().Engine.MaxSteps {
			t.Errorf("override: %v: config modified on error", pair)
		}
	}
}

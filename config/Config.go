// Package config implements the JSON configuration of a full run: the
// engine driving the environment, the agent, and monitoring.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/mineagent/agent"
)

// Config describes a full run
type Config struct {
	Engine     EngineConfig
	Agent      agent.Config
	Monitoring MonitoringConfig
}

// EngineConfig describes the loop driving the environment
type EngineConfig struct {
	// ImageSize is the height and width of the rendered images, which
	// bound the region of interest
	ImageSize [2]int

	// Features is the size of the embeddings the agent receives
	Features int

	// MaxSteps is the total number of environment steps before the
	// run ends
	MaxSteps int

	// EpisodeSteps is the maximum number of steps per episode, 0 for
	// no limit
	EpisodeSteps int

	Seed uint64
}

// MonitoringConfig describes which telemetry is recorded
type MonitoringConfig struct {
	// Enabled is the master switch of all monitoring
	Enabled bool

	// SQLite records scalar telemetry to a database when non-nil
	SQLite *SQLiteConfig
}

// SQLiteConfig describes the SQLite telemetry sink
type SQLiteConfig struct {
	Path string
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Engine: EngineConfig{
			ImageSize:    [2]int{160, 256},
			Features:     64,
			MaxSteps:     10_000,
			EpisodeSteps: 0,
			Seed:         0,
		},
		Agent: agent.DefaultConfig(),
		Monitoring: MonitoringConfig{
			Enabled: true,
			SQLite:  &SQLiteConfig{Path: "runs.db"},
		},
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if c.Engine.ImageSize[0] < 1 || c.Engine.ImageSize[1] < 1 {
		return fmt.Errorf("validate: image size must be positive, have(%v)",
			c.Engine.ImageSize)
	}
	if c.Engine.Features < 1 {
		return fmt.Errorf("validate: features must be positive, have(%v)",
			c.Engine.Features)
	}
	if c.Engine.MaxSteps < 1 {
		return fmt.Errorf("validate: max steps must be positive, have(%v)",
			c.Engine.MaxSteps)
	}
	if c.Engine.EpisodeSteps < 0 {
		return fmt.Errorf("validate: episode steps must be non-negative, "+
			"have(%v)", c.Engine.EpisodeSteps)
	}
	if c.Monitoring.SQLite != nil && c.Monitoring.SQLite.Path == "" {
		return fmt.Errorf("validate: missing sqlite path")
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %v", err)
	}
	return nil
}

// Load reads the configuration at path. Fields missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %v", path,
			err)
	}
	return c, nil
}

// Save writes the configuration to path
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

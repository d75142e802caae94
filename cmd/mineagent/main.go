// Command mineagent runs an agent on a synthetic embedding environment
// and records its telemetry
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/agent"
	"github.com/samuelfneumann/mineagent/config"
	"github.com/samuelfneumann/mineagent/environment/gaze"
	"github.com/samuelfneumann/mineagent/experiment"
	"github.com/samuelfneumann/mineagent/experiment/tracker"
	"github.com/samuelfneumann/mineagent/monitoring"
	"github.com/samuelfneumann/mineagent/monitoring/sqlitesink"
)

// overrides collects repeated key=value flags
type overrides []string

func (o *overrides) String() string {
	return strings.Join(*o, " ")
}

func (o *overrides) Set(value string) error {
	*o = append(*o, value)
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration "+
		"file, defaults are used if empty")
	returnsPath := flag.String("returns", "", "path to save episodic "+
		"returns to, not saved if empty")
	dump := flag.Bool("dump", false, "print the configuration and exit")
	verbose := flag.Bool("v", false, "log at debug level")
	var set overrides
	flag.Var(&set, "set", "key=value override of the configuration, "+
		"nested fields are separated by '.' (repeatable)")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()

	if err := run(*configPath, set, *returnsPath, *dump, logger); err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

func run(configPath string, set []string, returnsPath string, dump bool,
	logger zerolog.Logger) error {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if err := config.Override(&c, set); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "\t")
		return enc.Encode(c)
	}

	bus := monitoring.NewBus()
	if !c.Monitoring.Enabled {
		bus.Disable()
	}
	logger = logger.With().Str("run", bus.Run().String()).Logger()

	if c.Monitoring.Enabled && c.Monitoring.SQLite != nil {
		sink, err := sqlitesink.Open(c.Monitoring.SQLite.Path,
			sqlitesink.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Err(); err != nil {
				logger.Warn().Err(err).Msg("telemetry incomplete")
			}
			sink.Close()
		}()
		sink.Attach(bus)
		logger.Info().Str("path", c.Monitoring.SQLite.Path).
			Msg("recording telemetry")
	}

	envConfig := gaze.DefaultConfig(c.Engine.Features, c.Engine.ImageSize)
	envConfig.EpisodeSteps = c.Engine.EpisodeSteps
	env, err := gaze.New(envConfig, c.Agent.Space, c.Engine.Seed)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	a, err := agent.New(c.Agent, c.Engine.Features, c.Engine.Seed,
		agent.WithLogger(logger), agent.WithPublisher(bus))
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithPublisher(bus),
	}
	if returnsPath != "" {
		opts = append(opts, experiment.WithTrackers(
			tracker.NewReturn(returnsPath)))
	}
	exp, err := experiment.NewOnline(env, a, c.Engine.MaxSteps, opts...)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	if err := exp.Run(); err != nil {
		return err
	}
	return exp.Save()
}

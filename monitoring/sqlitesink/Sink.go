// Package sqlitesink implements a monitoring subscriber which records
// runs and scalar series to a SQLite database.
package sqlitesink

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mineagent/monitoring"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		stopped_at TEXT,
		total_return REAL,
		steps INTEGER
	);

	CREATE TABLE IF NOT EXISTS scalars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		step INTEGER NOT NULL,
		value REAL NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scalars_run_tag ON scalars(run_id, tag, step);
`

// Scalar is a single point of a scalar series
type Scalar struct {
	Step  int
	Value float64
	Time  time.Time
}

// Sink records events to a SQLite database. Since event handlers
// cannot return errors, the first failed write is kept and returned by
// Err, and every failure is logged.
type Sink struct {
	mu     sync.Mutex
	db     *sql.DB
	steps  map[string]int
	err    error
	logger zerolog.Logger
}

// Option configures optional behaviour of a Sink
type Option func(*Sink)

// WithLogger sets the logger used by the Sink
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// Open opens, creating if needed, the database at path and returns a
// Sink which writes to it
func Open(path string, opts ...Option) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: could not open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("open: could not initialize schema: %w", err)
	}

	s := &Sink{
		db:     db,
		steps:  make(map[string]int),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "sqlitesink").Logger()

	return s, nil
}

// Attach subscribes the Sink to all events it records
func (s *Sink) Attach(b *monitoring.Bus) {
	for _, k := range []monitoring.Kind{
		monitoring.StartKind,
		monitoring.StopKind,
		monitoring.EnvStepKind,
		monitoring.ActionKind,
		monitoring.UpdateKind,
	} {
		b.Subscribe(k, s.Handle)
	}
}

// Handle records a single event
func (s *Sink) Handle(e monitoring.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := monitoring.MetaOf(e)
	var err error
	switch e := e.(type) {
	case *monitoring.Start:
		_, err = s.db.Exec(
			`INSERT OR REPLACE INTO runs (run_id, started_at) VALUES (?, ?)`,
			meta.Run.String(), formatTime(meta.Time))

	case *monitoring.Stop:
		_, err = s.db.Exec(`UPDATE runs SET stopped_at = ?, total_return = ?,
			steps = ? WHERE run_id = ?`, formatTime(meta.Time),
			e.TotalReturn, e.Steps, meta.Run.String())

	case *monitoring.EnvStep:
		err = s.scalar(meta, "EnvStep/reward", e.Reward)

	case *monitoring.Action:
		err = s.scalar(meta, "Action/value", e.Value)
		if err == nil {
			err = s.scalar(meta, "Action/intrinsic_reward", e.IntrinsicReward)
		}
		if err == nil {
			err = s.scalar(meta, "Action/logp_action", e.LogProb.Sum())
		}

	case *monitoring.Update:
		keys := make([]string, 0, len(e.Scalars))
		for key := range e.Scalars {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			tag := fmt.Sprintf("Update/%v/%v", e.Learner, key)
			if err = s.scalar(meta, tag, e.Scalars[key]); err != nil {
				break
			}
		}
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("event", e.Kind().String()).
			Msg("could not record event")
		if s.err == nil {
			s.err = fmt.Errorf("handle: %v: %w", e.Kind(), err)
		}
	}
}

// scalar appends value to the series tag at the next step of that
// series
func (s *Sink) scalar(meta monitoring.Meta, tag string, value float64) error {
	step := s.steps[tag]
	_, err := s.db.Exec(`INSERT INTO scalars (run_id, tag, step, value,
		recorded_at) VALUES (?, ?, ?, ?, ?)`, meta.Run.String(), tag, step,
		value, formatTime(meta.Time))
	if err != nil {
		return err
	}
	s.steps[tag] = step + 1
	return nil
}

// Scalars returns the series tag recorded for run, ordered by step
func (s *Sink) Scalars(run uuid.UUID, tag string) ([]Scalar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT step, value, recorded_at FROM scalars
		WHERE run_id = ? AND tag = ? ORDER BY step`, run.String(), tag)
	if err != nil {
		return nil, fmt.Errorf("scalars: %w", err)
	}
	defer rows.Close()

	var series []Scalar
	for rows.Next() {
		var point Scalar
		var recorded string
		if err := rows.Scan(&point.Step, &point.Value, &recorded); err != nil {
			return nil, fmt.Errorf("scalars: %w", err)
		}
		point.Time, err = time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("scalars: %w", err)
		}
		series = append(series, point)
	}
	return series, rows.Err()
}

// Tags returns the tags of all series recorded for run
func (s *Sink) Tags(run uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT DISTINCT tag FROM scalars WHERE
		run_id = ? ORDER BY tag`, run.String())
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Run returns the total return and number of steps recorded for a
// run. The returned bool is false if the run has not stopped.
func (s *Sink) Run(run uuid.UUID) (float64, int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ret sql.NullFloat64
	var steps sql.NullInt64
	err := s.db.QueryRow(`SELECT total_return, steps FROM runs WHERE
		run_id = ?`, run.String()).Scan(&ret, &steps)
	if err != nil {
		return 0, 0, false, fmt.Errorf("run: %w", err)
	}
	if !ret.Valid {
		return 0, 0, false, nil
	}
	return ret.Float64, int(steps.Int64), true, nil
}

// Err returns the first error encountered while recording events
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close closes the database
func (s *Sink) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

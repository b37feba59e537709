// Package runlog keeps a SQLite history of pipeline runs.
package runlog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one row of run history.
type Entry struct {
	ID          string     `json:"id" yaml:"id"`
	Pipeline    string     `json:"pipeline" yaml:"pipeline"`
	Status      Status     `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Rows        int64      `json:"rows" yaml:"rows"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (e Entry) Duration() time.Duration {
	if e.CompletedAt == nil {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Filter narrows List results.
type Filter struct {
	Pipeline string
	Status   Status
	Limit    int
}

// Store reads and writes the runs table.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Open opens (creating if needed) the SQLite database at path and applies the
// schema. A nil clock uses real time.
func Open(ctx context.Context, path string, clock clockwork.Clock) (*Store, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "runlog: create directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}

	s := &Store{db: db, clock: clock}
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	pipeline     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	rows         INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return eris.Wrap(err, "runlog: migrate")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) now() string {
	return s.clock.Now().UTC().Format(timeLayout)
}

// Start records the beginning of a run and returns its ID.
func (s *Store) Start(ctx context.Context, pipeline string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, status, started_at) VALUES (?, ?, ?, ?)`,
		id, pipeline, string(StatusRunning), s.now(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start %s", pipeline)
	}
	return id, nil
}

// Complete marks a run as finished and records how many rows it produced.
func (s *Store) Complete(ctx context.Context, id string, rows int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, rows = ? WHERE id = ?`,
		string(StatusComplete), s.now(), rows, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete %s", id)
	}
	return checkRowsAffected(res, id)
}

// Fail marks a run as failed with an error message.
func (s *Store) Fail(ctx context.Context, id string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(StatusFailed), s.now(), msg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail %s", id)
	}
	return checkRowsAffected(res, id)
}

// Get returns a single run.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline, status, started_at, completed_at, rows, error FROM runs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("runlog: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: get %s", id)
	}
	return e, nil
}

// List returns runs ordered by most recent first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, pipeline, status, started_at, completed_at, rows, error FROM runs WHERE 1=1`
	var args []any
	if f.Pipeline != "" {
		query += ` AND pipeline = ?`
		args = append(args, f.Pipeline)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e           Entry
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	if err := sc.Scan(&e.ID, &e.Pipeline, &status, &startedAt, &completedAt, &e.Rows, &errMsg); err != nil {
		return nil, err
	}
	e.Status = Status(status)

	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: parse started_at %q", startedAt)
	}
	e.StartedAt = t
	if completedAt.Valid {
		t, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return nil, eris.Wrapf(err, "runlog: parse completed_at %q", completedAt.String)
		}
		e.CompletedAt = &t
	}
	e.Error = errMsg.String
	return &e, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "runlog: rows affected")
	}
	if n == 0 {
		return eris.Errorf("runlog: run %s not found", id)
	}
	return nil
}

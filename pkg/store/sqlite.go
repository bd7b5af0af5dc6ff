package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/matzehuels/reefrank/pkg/pipeline"
)

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    domain      TEXT NOT NULL,
    scenario    TEXT NOT NULL DEFAULT '',
    algorithm   TEXT NOT NULL,
    jobs        INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    created_at  TEXT NOT NULL,
    body        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and creates the
// schema. Use ":memory:" for a throwaway store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One connection: SQLite has a single writer and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *pipeline.Result) error {
	body, err := encode(res)
	if err != nil {
		return err
	}
	sum := summarize(res)
	const q = `
		INSERT INTO runs (id, domain, scenario, algorithm, jobs, failed, duration_ns, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain, scenario = excluded.scenario, algorithm = excluded.algorithm,
			jobs = excluded.jobs, failed = excluded.failed, duration_ns = excluded.duration_ns,
			created_at = excluded.created_at, body = excluded.body`
	_, err = s.db.ExecContext(ctx, q, sum.ID, sum.Domain, sum.Scenario, sum.Algorithm,
		sum.Jobs, sum.Failed, int64(sum.Duration), sum.CreatedAt.Format(timeLayout), body)
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", sum.ID, err)
	}
	return nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*pipeline.Result, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM runs WHERE id = ?", id).Scan(&body)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run %s: %w", id, err)
	}
	return decode(id, body)
}

// ListRuns implements Store.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	const q = `
		SELECT id, domain, scenario, algorithm, jobs, failed, duration_ns, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			dur     int64
			created string
		)
		if err := rows.Scan(&r.ID, &r.Domain, &r.Scenario, &r.Algorithm, &r.Jobs, &r.Failed, &dur, &created); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.Duration = time.Duration(dur)
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("store: run %s: parse created_at: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: delete run %s: %w", id, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package store persists ranking runs.
//
// A run is saved as its JSON-encoded [pipeline.Result] plus a few indexed
// summary columns, so listing runs never decodes the rank arrays. Two
// backends implement [Store]:
//   - [SQLiteStore]: a local database file for CLI use (pure-Go driver)
//   - [MongoStore]: a shared collection for server deployments
//
// [Open] picks the backend from a driver name, as configured by
// store.driver and store.dsn.
//
// [pipeline.Result]: github.com/matzehuels/reefrank/pkg/pipeline#Result
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/pipeline"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID        string        `json:"id" bson:"_id"`
	Domain    string        `json:"domain" bson:"domain"`
	Scenario  string        `json:"scenario" bson:"scenario"`
	Algorithm string        `json:"algorithm" bson:"algorithm"`
	Jobs      int           `json:"jobs" bson:"jobs"`
	Failed    int           `json:"failed" bson:"failed"`
	Duration  time.Duration `json:"duration" bson:"duration"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// Store saves and retrieves runs. Implementations must be safe for
// concurrent use.
type Store interface {
	// SaveRun stores res under res.RunID, replacing any previous run with
	// the same ID.
	SaveRun(ctx context.Context, res *pipeline.Result) error

	// GetRun returns the run with the given ID, or a RUN_NOT_FOUND error.
	GetRun(ctx context.Context, id string) (*pipeline.Result, error)

	// ListRuns returns up to limit runs, newest first. A limit <= 0 means
	// no limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// DeleteRun removes a run. Deleting a missing run is not an error.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}

// Open connects to the store selected by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(ctx, dsn)
	case DriverMongo:
		return NewMongoStore(ctx, dsn)
	default:
		return nil, errors.Config("unknown store driver %q (want %s or %s)", driver, DriverSQLite, DriverMongo)
	}
}

func summarize(res *pipeline.Result) RunSummary {
	s := RunSummary{
		ID:        res.RunID,
		Domain:    res.Domain,
		Algorithm: res.Algorithm,
		Jobs:      res.Stats.Jobs,
		Failed:    res.Stats.Failed,
		Duration:  res.Stats.Duration,
		CreatedAt: res.CreatedAt.UTC(),
	}
	if res.Scenario != nil {
		s.Scenario = res.Scenario.Name
	}
	return s
}

func encode(res *pipeline.Result) ([]byte, error) {
	if res == nil || res.RunID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "run has no id")
	}
	return json.Marshal(res)
}

func decode(id string, body []byte) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode run %s", id)
	}
	return &res, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
}

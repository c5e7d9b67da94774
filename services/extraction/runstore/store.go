// Package runstore persists one summary row per (run, target) so
// multi-day extraction operations can be audited after the fact.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"civicsearch-backend/lib/configuration"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens the run history database: a local sqlite file by default,
// or a remote libsql instance when a url is configured.
func OpenDB(config configuration.RunDatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	if config.Url != "" {
		dsn := config.Url
		if config.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", config.Url, config.AuthToken)
		}
		db, err = sql.Open("libsql", dsn)
	} else {
		db, err = sql.Open("sqlite", config.File)
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(Schema)
	if err != nil {
		return nil, fmt.Errorf("apply run store schema: %w", err)
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Row is one target's outcome within one run.
type Row struct {
	RunId          string
	TargetId       string
	State          string
	UnitsCompleted int
	UnitsAborted   int
	RecordsWritten int
	RecordsTotal   int
	StartedAt      time.Time
	FinishedAt     time.Time
	Error          string
}

func (s Store) Record(ctx context.Context, row Row) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO extraction_runs
			(run_id, target_id, state, units_completed, units_aborted,
			 records_written, records_total, started_at, finished_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunId,
		row.TargetId,
		row.State,
		row.UnitsCompleted,
		row.UnitsAborted,
		row.RecordsWritten,
		row.RecordsTotal,
		row.StartedAt.Unix(),
		row.FinishedAt.Unix(),
		row.Error,
	)
	return err
}

// History returns a target's run rows, most recent first.
func (s Store) History(ctx context.Context, targetId string) ([]Row, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, target_id, state, units_completed, units_aborted,
			records_written, records_total, started_at, finished_at, error
		 FROM extraction_runs
		 WHERE target_id = ?
		 ORDER BY finished_at DESC`,
		targetId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var started, finished int64
		err := rows.Scan(
			&r.RunId,
			&r.TargetId,
			&r.State,
			&r.UnitsCompleted,
			&r.UnitsAborted,
			&r.RecordsWritten,
			&r.RecordsTotal,
			&started,
			&finished,
			&r.Error,
		)
		if err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

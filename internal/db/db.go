// Package db provides PostgreSQL storage for application records.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-applier/internal/store"
	"github.com/jonathan/job-applier/internal/types"
)

const schema = `CREATE TABLE IF NOT EXISTS applications (
	id           UUID PRIMARY KEY,
	job_id       TEXT NOT NULL,
	board        TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	answered     INTEGER NOT NULL DEFAULT 0,
	skipped      TEXT[] NOT NULL DEFAULT '{}',
	cover_letter BOOLEAN NOT NULL DEFAULT FALSE,
	evidence     TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS applications_job ON applications (board, job_id, created_at DESC);`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ store.Recorder = (*DB)(nil)

// Connect establishes a connection pool and makes sure the applications
// table exists.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create applications table: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Record inserts an application record.
func (db *DB) Record(ctx context.Context, rec store.Record) error {
	rec.Stamp()
	skipped := rec.Skipped
	if skipped == nil {
		skipped = []string{}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO applications
		 (id, job_id, board, url, title, company, outcome, detail, answered, skipped, cover_letter, evidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.JobID, rec.Board, rec.URL, rec.Title, rec.Company,
		rec.Outcome.String(), rec.Detail, rec.Answered, skipped, rec.CoverLetter, rec.Evidence,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome for job %s: %w", rec.JobID, err)
	}
	return nil
}

// LastOutcome returns the newest outcome for a job on a board.
func (db *DB) LastOutcome(ctx context.Context, board, jobID string) (types.ApplicationOutcome, bool, error) {
	var code string
	err := db.pool.QueryRow(ctx,
		`SELECT outcome FROM applications WHERE board = $1 AND job_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		board, jobID,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.OutcomeError, false, nil
		}
		return types.OutcomeError, false, fmt.Errorf("failed to get outcome for job %s: %w", jobID, err)
	}
	outcome, err := types.ParseOutcome(code)
	if err != nil {
		return types.OutcomeError, false, err
	}
	return outcome, true, nil
}

// Recent returns up to limit records, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]store.Record, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, board, url, title, company, outcome, detail, answered, skipped, cover_letter, evidence, created_at
		 FROM applications ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var (
			rec  store.Record
			code string
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Board, &rec.URL, &rec.Title, &rec.Company,
			&code, &rec.Detail, &rec.Answered, &rec.Skipped, &rec.CoverLetter, &rec.Evidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		if rec.Outcome, err = types.ParseOutcome(code); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

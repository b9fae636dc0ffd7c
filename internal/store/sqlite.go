package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/job-applier/internal/types"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS applications (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	board        TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	answered     INTEGER NOT NULL DEFAULT 0,
	skipped      TEXT NOT NULL DEFAULT '[]',
	cover_letter INTEGER NOT NULL DEFAULT 0,
	evidence     TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_job ON applications (board, job_id, created_at);`

// SQLiteStore keeps application records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating applications table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts rec.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	rec.Stamp()
	skipped, err := json.Marshal(nonNil(rec.Skipped))
	if err != nil {
		return fmt.Errorf("encoding skipped questions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications
		 (id, job_id, board, url, title, company, outcome, detail, answered, skipped, cover_letter, evidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.JobID, rec.Board, rec.URL, rec.Title, rec.Company,
		rec.Outcome.String(), rec.Detail, rec.Answered, string(skipped), rec.CoverLetter, rec.Evidence,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording outcome for job %s: %w", rec.JobID, err)
	}
	return nil
}

// LastOutcome returns the newest outcome for a job.
func (s *SQLiteStore) LastOutcome(ctx context.Context, board, jobID string) (types.ApplicationOutcome, bool, error) {
	var code string
	err := s.db.QueryRowContext(ctx,
		`SELECT outcome FROM applications WHERE board = ? AND job_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		board, jobID,
	).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return types.OutcomeError, false, nil
	}
	if err != nil {
		return types.OutcomeError, false, fmt.Errorf("reading outcome for job %s: %w", jobID, err)
	}
	outcome, err := types.ParseOutcome(code)
	if err != nil {
		return types.OutcomeError, false, err
	}
	return outcome, true, nil
}

// Recent returns the newest records.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, board, url, title, company, outcome, detail, answered, skipped, cover_letter, evidence, created_at
		 FROM applications ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec             Record
			id, code, skips string
		)
		if err := rows.Scan(&id, &rec.JobID, &rec.Board, &rec.URL, &rec.Title, &rec.Company,
			&code, &rec.Detail, &rec.Answered, &skips, &rec.CoverLetter, &rec.Evidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid application id %q: %w", id, err)
		}
		if rec.Outcome, err = types.ParseOutcome(code); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(skips), &rec.Skipped); err != nil {
			return nil, fmt.Errorf("decoding skipped questions: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Package store records application outcomes against job records.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-applier/internal/types"
)

// Record is one application attempt.
type Record struct {
	ID          uuid.UUID                `json:"id"`
	JobID       string                   `json:"job_id"`
	Board       string                   `json:"board"`
	URL         string                   `json:"url,omitempty"`
	Title       string                   `json:"title,omitempty"`
	Company     string                   `json:"company,omitempty"`
	Outcome     types.ApplicationOutcome `json:"outcome"`
	Detail      string                   `json:"detail,omitempty"`
	Answered    int                      `json:"answered"`
	Skipped     []string                 `json:"skipped,omitempty"`
	CoverLetter bool                     `json:"cover_letter"`
	Evidence    string                   `json:"evidence,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Recorder persists application outcomes.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	// LastOutcome returns the most recent outcome for a job on a board.
	LastOutcome(ctx context.Context, board, jobID string) (types.ApplicationOutcome, bool, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Stamp fills the id and timestamp of a record about to be written.
func (rec *Record) Stamp() {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

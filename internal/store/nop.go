package store

import (
	"context"

	"github.com/jonathan/job-applier/internal/types"
)

// NopStore discards records and never reports a previous outcome.
type NopStore struct{}

func (NopStore) Record(context.Context, Record) error { return nil }

func (NopStore) LastOutcome(context.Context, string, string) (types.ApplicationOutcome, bool, error) {
	return types.OutcomeError, false, nil
}

func (NopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }

func (NopStore) Close() error { return nil }

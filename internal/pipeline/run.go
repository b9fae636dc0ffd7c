// Package pipeline runs batches of job applications: jobs are grouped by
// board, each board gets one browser session, and boards run concurrently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/evidence"
	"github.com/jonathan/job-applier/internal/store"
	"github.com/jonathan/job-applier/internal/types"
	"github.com/jonathan/job-applier/internal/wizard"
)

// DefaultConcurrency is the number of boards processed at once.
const DefaultConcurrency = 2

// ProgressEvent represents a progress update during a batch run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Board    string `json:"board,omitempty"`
	JobID    string `json:"job_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when batch progress occurs
type ProgressCallback func(event ProgressEvent)

// Session is one board's browser session. *wizard.Wizard implements it.
type Session interface {
	Apply(ctx context.Context, job types.Job) wizard.Result
	Screenshot(ctx context.Context) ([]byte, error)
	Cleanup() error
}

// SessionFactory opens a session for a board.
type SessionFactory func(ctx context.Context, board *boards.Board) (Session, error)

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Registry   *boards.Registry
	NewSession SessionFactory
	// Store defaults to store.NopStore.
	Store store.Recorder
	// Evidence receives failure screenshots. Nil disables them.
	Evidence    evidence.Sink
	Concurrency int
	// Force re-runs jobs whose last recorded outcome is terminal.
	Force      bool
	OnProgress ProgressCallback
	Logger     *slog.Logger
}

// JobResult is the result of one job in a batch.
type JobResult struct {
	wizard.Result
	Evidence string `json:"evidence,omitempty"`
}

// BatchResult collects the results of a batch run, in job order.
type BatchResult struct {
	RunID   string      `json:"run_id"`
	Results []JobResult `json:"results"`
	// Skipped lists jobs already finished in an earlier run.
	Skipped  []string      `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Counts tallies results by outcome.
func (b *BatchResult) Counts() map[types.ApplicationOutcome]int {
	counts := make(map[types.ApplicationOutcome]int)
	for _, r := range b.Results {
		counts[r.Outcome]++
	}
	return counts
}

type indexedJob struct {
	index int
	job   types.Job
}

type indexedResult struct {
	index  int
	result JobResult
}

type batch struct {
	opts   BatchOptions
	runID  string
	logger *slog.Logger

	mu      sync.Mutex
	results []indexedResult
	skipped []string
}

// emitProgress sends a progress event if a callback is registered
func (b *batch) emitProgress(step, category, message, board, jobID string, content any) {
	if b.opts.OnProgress == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		RunID:    b.runID,
		Board:    board,
		JobID:    jobID,
		Content:  content,
	})
}

// RunBatch applies to every job. Per-job failures become outcomes; the
// returned error is non-nil only when the run itself was cut short.
func RunBatch(ctx context.Context, jobs []types.Job, opts BatchOptions) (*BatchResult, error) {
	if opts.Registry == nil || opts.NewSession == nil {
		return nil, errors.New("batch requires a board registry and a session factory")
	}
	if opts.Store == nil {
		opts.Store = store.NopStore{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	b := &batch{opts: opts, runID: uuid.New().String()}
	b.logger = logger.With(slog.String("run_id", b.runID))

	groups := make(map[string][]indexedJob)
	boardsByName := make(map[string]*boards.Board)
	for i, job := range jobs {
		board, err := opts.Registry.ForJob(job)
		if err != nil {
			b.finish(ctx, i, job, "", wizard.Result{
				JobID:   job.ID,
				Outcome: types.OutcomeError,
				Detail:  err.Error(),
			}, "")
			continue
		}
		boardsByName[board.Name] = board
		groups[board.Name] = append(groups[board.Name], indexedJob{index: i, job: job})
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	b.emitProgress("batch", "batch", fmt.Sprintf("Applying to %d job(s) on %d board(s)", len(jobs), len(names)), "", "", nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, name := range names {
		board := boardsByName[name]
		group := groups[name]
		g.Go(func() error {
			return b.runBoard(gctx, board, group)
		})
	}
	err := g.Wait()

	sort.Slice(b.results, func(i, j int) bool { return b.results[i].index < b.results[j].index })
	out := &BatchResult{RunID: b.runID, Skipped: b.skipped, Duration: time.Since(start)}
	for _, r := range b.results {
		out.Results = append(out.Results, r.result)
	}

	if err == nil {
		err = ctx.Err()
	}
	b.emitProgress("batch", "batch", fmt.Sprintf("Batch finished: %d result(s), %d skipped", len(out.Results), len(out.Skipped)), "", "", out.Counts())
	return out, err
}

// runBoard processes one board's jobs serially through a single session.
func (b *batch) runBoard(ctx context.Context, board *boards.Board, jobs []indexedJob) error {
	logger := b.logger.With(slog.String("board", board.Name))

	var pending []indexedJob
	for _, ij := range jobs {
		if !b.opts.Force && b.alreadyDone(ctx, board, ij.job, logger) {
			continue
		}
		pending = append(pending, ij)
	}
	if len(pending) == 0 {
		return nil
	}

	b.emitProgress("session", "board", fmt.Sprintf("Opening session for %s", board.Name), board.Name, "", nil)
	session, err := b.opts.NewSession(ctx, board)
	if err != nil {
		logger.Error("failed to open session", slog.String("error", err.Error()))
		for _, ij := range pending {
			b.finish(ctx, ij.index, ij.job, board.Name, wizard.Result{
				JobID:   ij.job.ID,
				Board:   board.Name,
				Outcome: types.OutcomeError,
				Detail:  "session failed: " + err.Error(),
			}, "")
		}
		return nil
	}
	defer func() {
		if err := session.Cleanup(); err != nil {
			logger.Warn("session cleanup failed", slog.String("error", err.Error()))
		}
	}()

	for _, ij := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.emitProgress("apply", "job", fmt.Sprintf("Applying to %s", ij.job.ID), board.Name, ij.job.ID, nil)

		res := session.Apply(ctx, ij.job)
		shot := ""
		if res.Outcome == types.OutcomeError || res.Outcome == types.OutcomeFailed {
			shot = b.saveEvidence(ctx, session, board.Name, ij.job.ID, logger)
		}
		b.finish(ctx, ij.index, ij.job, board.Name, res, shot)
	}
	return nil
}

func (b *batch) alreadyDone(ctx context.Context, board *boards.Board, job types.Job, logger *slog.Logger) bool {
	last, found, err := b.opts.Store.LastOutcome(ctx, board.Name, job.ID)
	if err != nil {
		logger.Warn("failed to read previous outcome", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return false
	}
	if !found || !last.Terminal() {
		return false
	}
	b.mu.Lock()
	b.skipped = append(b.skipped, job.ID)
	b.mu.Unlock()
	b.emitProgress("skip", "job", fmt.Sprintf("Skipping %s: already %s", job.ID, last), board.Name, job.ID, last)
	return true
}

func (b *batch) saveEvidence(ctx context.Context, session Session, board, jobID string, logger *slog.Logger) string {
	if b.opts.Evidence == nil {
		return ""
	}
	png, err := session.Screenshot(ctx)
	if err != nil {
		logger.Warn("failed to capture screenshot", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return ""
	}
	loc, err := b.opts.Evidence.Save(ctx, evidence.Name(board, jobID, time.Now()), png)
	if err != nil {
		logger.Warn("failed to save screenshot", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return ""
	}
	return loc
}

// finish records a result and keeps it for the batch summary.
func (b *batch) finish(ctx context.Context, index int, job types.Job, board string, res wizard.Result, shot string) {
	rec := store.Record{
		JobID:       job.ID,
		Board:       board,
		URL:         job.URL,
		Title:       job.Title,
		Company:     job.Company,
		Outcome:     res.Outcome,
		Detail:      res.Detail,
		Answered:    res.Answered,
		Skipped:     res.Skipped,
		CoverLetter: res.CoverLetter,
		Evidence:    shot,
	}
	recordCtx := context.WithoutCancel(ctx)
	if err := b.opts.Store.Record(recordCtx, rec); err != nil {
		b.logger.Error("failed to record outcome",
			slog.String("job_id", job.ID),
			slog.String("outcome", res.Outcome.String()),
			slog.String("error", err.Error()))
	}

	b.mu.Lock()
	b.results = append(b.results, indexedResult{index: index, result: JobResult{Result: res, Evidence: shot}})
	b.mu.Unlock()

	b.emitProgress("result", "job", fmt.Sprintf("%s: %s", job.ID, res.Outcome), board, job.ID, res)
}

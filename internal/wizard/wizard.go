// Package wizard drives one job application through a board's multi-step
// form as a state machine:
//
//	Start → LoggingIn → Navigating → SelectingResume → DecidingCoverLetter
//	      → AnsweringScreening → Reviewing → Submitting → Done
//
// Any step that touches navigation may be interrupted by AwaitingCaptcha,
// after which the same step resumes. Every call to Apply returns exactly one
// ApplicationOutcome; errors never escape to the caller.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/job-applier/internal/actuate"
	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/coverletter"
	"github.com/jonathan/job-applier/internal/extract"
	"github.com/jonathan/job-applier/internal/operator"
	"github.com/jonathan/job-applier/internal/types"
)

// Defaults for Options.
const (
	DefaultCoverLetterThreshold = 70.0
	DefaultMaxScreeningPages    = 10
	DefaultPollInterval         = 500 * time.Millisecond
)

// FieldResolver resolves one field to an answer, or returns an error that
// leaves the field unanswered.
type FieldResolver interface {
	Resolve(ctx context.Context, d types.FieldDescriptor, cc types.CandidateContext) (types.Answer, error)
}

// Options configures a Wizard.
type Options struct {
	Resumes *types.ResumeLibrary
	// ResumeIDs maps a resume variant to the board's own resume id.
	ResumeIDs map[string]string
	// CoverLetterThreshold is the score a job must exceed to get a cover
	// letter. Zero means DefaultCoverLetterThreshold.
	CoverLetterThreshold float64
	MaxScreeningPages    int
	PollInterval         time.Duration
	Logger               *slog.Logger
}

// Result is the outcome of one Apply call.
type Result struct {
	JobID       string                   `json:"job_id"`
	Board       string                   `json:"board"`
	Outcome     types.ApplicationOutcome `json:"outcome"`
	Detail      string                   `json:"detail,omitempty"`
	Answered    int                      `json:"answered"`
	Skipped     []string                 `json:"skipped,omitempty"`
	CoverLetter bool                     `json:"cover_letter"`
	Transitions []types.WizardState      `json:"transitions"`
	Duration    time.Duration            `json:"duration"`
}

// verdict ends an application early with a definite outcome.
type verdict struct {
	outcome types.ApplicationOutcome
	detail  string
}

type step struct {
	state types.WizardState
	run   func(ctx context.Context) (*verdict, error)
}

// Wizard applies to jobs on one board through one browser session. The
// session is reused across Apply calls; per-application state is reset at
// the start of each call.
type Wizard struct {
	mu sync.Mutex

	driver    browser.Driver
	board     *boards.Board
	extractor *extract.Extractor
	actuator  *actuate.Actuator
	resolver  FieldResolver
	letters   coverletter.Generator
	operator  operator.Operator
	opts      Options
	logger    *slog.Logger

	loggedIn bool

	// per application
	job       types.Job
	candidate types.CandidateContext
	state     types.WizardState
	result    Result
	// pages whose CAPTCHA the operator has acknowledged
	captchaCleared map[string]bool
}

// New creates a Wizard. letters may be nil, in which case cover letters are
// always declined.
func New(driver browser.Driver, board *boards.Board, resolver FieldResolver, letters coverletter.Generator, op operator.Operator, opts Options) (*Wizard, error) {
	if driver == nil || board == nil || resolver == nil || op == nil {
		return nil, errors.New("wizard requires a driver, board, resolver and operator")
	}
	if opts.CoverLetterThreshold == 0 {
		opts.CoverLetterThreshold = DefaultCoverLetterThreshold
	}
	if opts.MaxScreeningPages <= 0 {
		opts.MaxScreeningPages = DefaultMaxScreeningPages
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Resumes == nil {
		opts.Resumes = types.NewResumeLibrary(nil, "")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("board", board.Name))

	ex, err := extract.ForBoard(board, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor for %s: %w", board.Name, err)
	}

	return &Wizard{
		driver:    driver,
		board:     board,
		extractor: ex,
		actuator:  actuate.New(driver, board.Timeouts.Element, logger),
		resolver:  resolver,
		letters:   letters,
		operator:  op,
		opts:      opts,
		logger:    logger,
		state:     types.StateStart,
	}, nil
}

// State returns the current state.
func (w *Wizard) State() types.WizardState {
	return w.state
}

// LoggedIn reports whether the session is known to be authenticated.
func (w *Wizard) LoggedIn() bool {
	return w.loggedIn
}

// Apply runs the full application for job. It is safe to call repeatedly on
// the same session; concurrent calls are serialized.
func (w *Wizard) Apply(ctx context.Context, job types.Job) (res Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	w.reset(job)
	logger := w.logger.With(slog.String("job_id", job.ID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("wizard panic", slog.Any("panic", r))
			w.recovered(ctx, r)
		}
		w.enter(types.StateDone)
		w.result.Duration = time.Since(start)
		res = w.result
		logger.Info("application finished",
			slog.String("outcome", res.Outcome.String()),
			slog.String("detail", res.Detail),
			slog.Int("answered", res.Answered),
			slog.Int("skipped", len(res.Skipped)))
	}()

	if err := job.Validate(); err != nil {
		w.result.Outcome = types.OutcomeError
		w.result.Detail = "invalid job: " + err.Error()
		return
	}
	w.candidate = types.NewCandidateContext(job, w.opts.Resumes)
	if err := w.candidate.Validate(); err != nil {
		w.result.Outcome = types.OutcomeError
		w.result.Detail = "no resume for job: " + err.Error()
		return
	}

	steps := []step{
		{types.StateLoggingIn, w.login},
		{types.StateNavigating, w.navigate},
		{types.StateSelectingResume, w.selectResume},
		{types.StateDecidingCoverLetter, w.decideCoverLetter},
		{types.StateAnsweringScreening, w.answerScreening},
		{types.StateReviewing, w.review},
		{types.StateSubmitting, w.submit},
	}

	for _, s := range steps {
		if s.state == types.StateLoggingIn && (w.loggedIn || !w.board.RequiresLogin()) {
			w.loggedIn = true
			continue
		}

		v, err := w.runStep(ctx, s)
		if err != nil {
			w.failWith(ctx, err)
			return
		}
		if v != nil {
			w.result.Outcome = v.outcome
			w.result.Detail = v.detail
			return
		}
	}

	w.detectOutcome(ctx)
	return
}

// Cleanup releases the browser session. The wizard must not be used after.
func (w *Wizard) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loggedIn = false
	w.state = types.StateDone
	return w.driver.Close()
}

func (w *Wizard) reset(job types.Job) {
	w.job = job
	w.candidate = types.CandidateContext{}
	w.state = types.StateStart
	w.captchaCleared = make(map[string]bool)
	w.result = Result{
		JobID:       job.ID,
		Board:       w.board.Name,
		Outcome:     types.OutcomeError,
		Transitions: []types.WizardState{types.StateStart},
	}
}

func (w *Wizard) enter(s types.WizardState) {
	if w.state == s {
		return
	}
	w.state = s
	w.result.Transitions = append(w.result.Transitions, s)
	w.logger.Debug("wizard state", slog.String("job_id", w.job.ID), slog.String("state", string(s)))
}

// runStep enters s and runs it. A step that fails while an unacknowledged
// CAPTCHA is on the page is run once more after the operator clears it.
func (w *Wizard) runStep(ctx context.Context, s step) (*verdict, error) {
	w.enter(s.state)
	if err := w.checkpoint(ctx); err != nil {
		return nil, err
	}
	v, err := s.run(ctx)
	if err == nil || ctx.Err() != nil || captchaAbandoned(err) || !w.captchaBlocking(ctx) {
		return v, err
	}
	w.logger.Info("step interrupted by captcha, retrying",
		slog.String("state", string(s.state)),
		slog.String("error", err.Error()))
	if err := w.awaitCaptcha(ctx, currentURL(ctx, w.driver)); err != nil {
		return nil, err
	}
	return s.run(ctx)
}

// checkpoint blocks on the operator when a CAPTCHA is on a page the operator
// has not acknowledged yet, then returns to the interrupted state. Solved and
// invisible widgets keep their iframe, so one acknowledgement per page is
// all it asks for.
func (w *Wizard) checkpoint(ctx context.Context) error {
	if w.captchaBlocking(ctx) {
		return w.awaitCaptcha(ctx, currentURL(ctx, w.driver))
	}
	return ctx.Err()
}

func (w *Wizard) awaitCaptcha(ctx context.Context, url string) error {
	interrupted := w.state
	w.enter(types.StateAwaitingCaptcha)
	w.logger.Warn("captcha detected, waiting for operator", slog.String("url", url))
	if err := w.operator.Await(ctx, operator.CaptchaPrompt(w.board.Name, url)); err != nil {
		return &NavigationError{State: interrupted, Message: captchaNotCleared, Cause: err}
	}
	w.captchaCleared[url] = true
	w.enter(interrupted)
	return ctx.Err()
}

const captchaNotCleared = "captcha not cleared"

func captchaAbandoned(err error) bool {
	var nav *NavigationError
	return errors.As(err, &nav) && nav.Message == captchaNotCleared
}

// failWith turns a step error into an outcome. The page wins over the error:
// a visible success indicator still means Applied.
func (w *Wizard) failWith(ctx context.Context, err error) {
	w.result.Detail = err.Error()
	w.result.Outcome = types.OutcomeError

	checkCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), w.board.Timeouts.Element)
		defer cancel()
	}
	if ind, match, ok := w.detectSuccess(checkCtx); ok {
		w.result.Outcome = types.OutcomeApplied
		w.result.Detail = fmt.Sprintf("success %s %q observed despite error: %v", ind, match, err)
		return
	}
	w.logger.Warn("application failed", slog.String("job_id", w.job.ID), slog.String("error", err.Error()))
}

// recovered treats a panic like a step error, re-checking the page for
// success on a context that outlives cancellation.
func (w *Wizard) recovered(ctx context.Context, r any) {
	err := fmt.Errorf("panic: %v", r)
	w.result.Outcome = types.OutcomeError
	w.result.Detail = err.Error()
	defer func() {
		if again := recover(); again != nil {
			w.logger.Error("success check after panic failed", slog.Any("panic", again))
		}
	}()

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.board.Timeouts.Element)
	defer cancel()
	w.failWith(checkCtx, err)
}

// detectOutcome waits for a success indicator after submit.
func (w *Wizard) detectOutcome(ctx context.Context) {
	var (
		ind   indicator
		match string
	)
	found := poll(ctx, w.board.Timeouts.Element, w.opts.PollInterval, func() bool {
		var ok bool
		ind, match, ok = w.detectSuccess(ctx)
		return ok
	})
	if found {
		w.result.Outcome = types.OutcomeApplied
		w.result.Detail = fmt.Sprintf("success %s %q", ind, match)
		return
	}
	if err := ctx.Err(); err != nil {
		w.result.Outcome = types.OutcomeError
		w.result.Detail = "outcome check abandoned: " + err.Error()
		return
	}
	w.result.Outcome = types.OutcomeFailed
	w.result.Detail = "submitted but no success indicator appeared"
}

// Screenshot captures the session's current page.
func (w *Wizard) Screenshot(ctx context.Context) ([]byte, error) {
	return w.driver.Screenshot(ctx)
}

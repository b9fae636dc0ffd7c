package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/job-applier/internal/types"
)

// answerScreening loops extract → resolve → actuate over the screening pages
// until the review step is reached. Boards without a continue button have a
// single form page that is answered once.
func (w *Wizard) answerScreening(ctx context.Context) (*verdict, error) {
	if w.board.Selectors.Continue == "" {
		w.answerPage(ctx, w.extractFields(ctx))
		return nil, nil
	}

	for page := 1; page <= w.opts.MaxScreeningPages; page++ {
		if w.atReview(ctx) {
			return nil, nil
		}

		fields := w.pollFields(ctx)
		if w.atReview(ctx) {
			return nil, nil
		}
		w.logger.Debug("screening page",
			slog.String("job_id", w.job.ID),
			slog.Int("page", page),
			slog.Int("fields", len(fields)))

		unanswered := w.answerPage(ctx, fields)
		blocked, err := w.advance(ctx)
		if err != nil {
			return nil, err
		}
		if !blocked {
			continue
		}

		// One more pass over whatever the page still shows.
		w.logger.Info("validation errors after continue, answering again", slog.Int("page", page))
		unanswered = w.answerPage(ctx, w.extractFields(ctx))
		blocked, err = w.advance(ctx)
		if err != nil {
			return nil, err
		}
		if blocked {
			if anyRequired(unanswered) {
				return &verdict{
					outcome: types.OutcomeNeedsManualReview,
					detail:  fmt.Sprintf("required questions left unanswered: %v", questions(unanswered)),
				}, nil
			}
			return nil, &NavigationError{State: types.StateAnsweringScreening, Message: "validation errors persist after answering"}
		}
	}

	if w.atReview(ctx) {
		return nil, nil
	}
	return nil, &NavigationError{
		State:   types.StateAnsweringScreening,
		Message: fmt.Sprintf("review step not reached after %d pages", w.opts.MaxScreeningPages),
	}
}

// advance clicks continue and reports whether the page refused to move on
// because of validation messages.
func (w *Wizard) advance(ctx context.Context) (bool, error) {
	before := currentURL(ctx, w.driver)
	if err := w.clickContinue(ctx, types.StateAnsweringScreening); err != nil {
		return false, err
	}
	if currentURL(ctx, w.driver) != before {
		return false, nil
	}
	_, blocked := containsAny(pageText(ctx, w.driver), w.board.ValidationText)
	return blocked, nil
}

func (w *Wizard) extractFields(ctx context.Context) []types.FieldDescriptor {
	fields, err := w.extractor.FromDriver(ctx, w.driver)
	if err != nil {
		w.logger.Warn("field extraction failed", slog.String("error", err.Error()))
		return nil
	}
	return fields
}

// pollFields re-extracts while a screening page is still rendering. Pages
// that are not screening pages are extracted once.
func (w *Wizard) pollFields(ctx context.Context) []types.FieldDescriptor {
	var fields []types.FieldDescriptor
	if !w.onScreeningPage(ctx) {
		return w.extractFields(ctx)
	}
	poll(ctx, w.board.Timeouts.Screening, w.opts.PollInterval, func() bool {
		fields = w.extractFields(ctx)
		return len(fields) > 0 || w.atReview(ctx)
	})
	return fields
}

// answerPage resolves and actuates each field in order. Failures are logged
// and the field is left unanswered; the unanswered fields are returned.
func (w *Wizard) answerPage(ctx context.Context, fields []types.FieldDescriptor) []types.FieldDescriptor {
	var unanswered []types.FieldDescriptor
	for _, f := range fields {
		if ctx.Err() != nil {
			unanswered = append(unanswered, f)
			continue
		}

		ans, err := w.resolver.Resolve(ctx, f, w.candidate)
		if err != nil {
			w.logger.Warn("question left unanswered",
				slog.String("job_id", w.job.ID),
				slog.String("question", f.Question),
				slog.String("error", err.Error()))
			w.skip(f)
			unanswered = append(unanswered, f)
			continue
		}

		if err := w.actuator.Apply(ctx, f, ans); err != nil {
			w.logger.Warn("answer could not be entered",
				slog.String("job_id", w.job.ID),
				slog.String("question", f.Question),
				slog.String("error", err.Error()))
			w.skip(f)
			unanswered = append(unanswered, f)
			continue
		}
		w.result.Answered++
	}
	return unanswered
}

func (w *Wizard) skip(f types.FieldDescriptor) {
	for _, q := range w.result.Skipped {
		if q == f.Question {
			return
		}
	}
	w.result.Skipped = append(w.result.Skipped, f.Question)
}

func anyRequired(fields []types.FieldDescriptor) bool {
	for _, f := range fields {
		if f.Required {
			return true
		}
	}
	return false
}

func questions(fields []types.FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Question)
	}
	return out
}

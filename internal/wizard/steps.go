package wizard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/coverletter"
	"github.com/jonathan/job-applier/internal/operator"
	"github.com/jonathan/job-applier/internal/types"
)

func (w *Wizard) login(ctx context.Context) (*verdict, error) {
	if err := w.driver.Navigate(ctx, w.board.LoginURL); err != nil {
		return nil, &NavigationError{State: types.StateLoggingIn, Message: "open login page", Cause: err}
	}
	if err := w.checkpoint(ctx); err != nil {
		return nil, err
	}

	if _, ok := browser.FirstExisting(ctx, w.driver, w.board.SignedInMarkers...); ok {
		w.loggedIn = true
		return nil, nil
	}

	w.logger.Info("waiting for operator sign-in", slog.String("url", w.board.LoginURL))
	if err := w.operator.Await(ctx, operator.LoginPrompt(w.board.Name, w.board.LoginURL)); err != nil {
		return nil, &NavigationError{State: types.StateLoggingIn, Message: "sign-in not confirmed", Cause: err}
	}
	w.loggedIn = true
	return nil, nil
}

func (w *Wizard) navigate(ctx context.Context) (*verdict, error) {
	url, err := w.board.JobURL(w.job)
	if err != nil {
		return nil, &NavigationError{State: types.StateNavigating, Message: "build job URL", Cause: err}
	}
	if err := w.driver.Navigate(ctx, url); err != nil {
		return nil, &NavigationError{State: types.StateNavigating, Message: "open " + url, Cause: err}
	}
	if err := w.checkpoint(ctx); err != nil {
		return nil, err
	}

	sig := w.board.Signals
	text := pageText(ctx, w.driver)
	if m, ok := containsAny(text, sig.InvalidListingText); ok {
		return &verdict{outcome: types.OutcomeInvalidListing, detail: "listing says " + m}, nil
	}
	if sel, ok := browser.FirstExisting(ctx, w.driver, sig.AlreadyAppliedMarkers...); ok {
		return &verdict{outcome: types.OutcomeAlreadyApplied, detail: "already-applied marker " + sel}, nil
	}
	if m, ok := containsAny(text, sig.AlreadyAppliedText); ok {
		return &verdict{outcome: types.OutcomeAlreadyApplied, detail: "listing says " + m}, nil
	}

	apply := w.board.Selectors.Apply
	if apply == "" {
		return nil, nil
	}
	if err := w.driver.WaitVisible(ctx, apply, w.board.Timeouts.Apply); err != nil {
		var timeout *browser.TimeoutError
		if errors.As(err, &timeout) && !w.captchaBlocking(ctx) {
			return &verdict{outcome: types.OutcomeAlreadyApplied, detail: "no apply button on listing"}, nil
		}
		return nil, &NavigationError{State: types.StateNavigating, Message: "wait for apply button", Cause: err}
	}
	if err := w.driver.Click(ctx, apply); err != nil {
		return nil, &NavigationError{State: types.StateNavigating, Message: "click apply", Cause: err}
	}
	return nil, w.checkpoint(ctx)
}

// resumeID returns the board's resume id for the candidate's variant, else
// for the fallback variant.
func (w *Wizard) resumeID() (string, bool) {
	if id, ok := w.opts.ResumeIDs[w.candidate.TechStackVariant]; ok {
		return id, true
	}
	id, ok := w.opts.ResumeIDs[w.opts.Resumes.Fallback]
	return id, ok
}

// selectResume is best-effort: boards remember the last resume used.
func (w *Wizard) selectResume(ctx context.Context) (*verdict, error) {
	sel := w.board.Selectors
	switch {
	case sel.ResumeSelect != "":
		id, ok := w.resumeID()
		if !ok {
			w.logger.Debug("no board resume id configured", slog.String("variant", w.candidate.TechStackVariant))
			return nil, nil
		}
		if err := w.driver.WaitVisible(ctx, sel.ResumeSelect, w.board.Timeouts.Element); err != nil {
			w.logger.Warn("resume selector not found", slog.String("error", err.Error()))
			return nil, nil
		}
		if err := w.driver.SelectOption(ctx, sel.ResumeSelect, id); err != nil {
			w.logger.Warn("failed to select resume", slog.String("resume_id", id), slog.String("error", err.Error()))
		}
	case sel.ResumeCard != "":
		if ok, _ := w.driver.Exists(ctx, sel.ResumeCard); ok {
			if err := w.driver.Click(ctx, sel.ResumeCard); err != nil {
				w.logger.Warn("failed to pick resume card", slog.String("error", err.Error()))
			}
		}
	}
	return nil, nil
}

// decideCoverLetter adds a generated letter when the job scores above the
// threshold and declines one otherwise, including when generation fails.
// It then leaves the documents page.
func (w *Wizard) decideCoverLetter(ctx context.Context) (*verdict, error) {
	if w.job.Score > w.opts.CoverLetterThreshold && w.letters != nil {
		w.result.CoverLetter = w.addCoverLetter(ctx)
	}
	if !w.result.CoverLetter {
		if decline := w.board.Selectors.CoverLetterDecline; decline != "" {
			if ok, _ := w.driver.Exists(ctx, decline); ok {
				if err := w.driver.Click(ctx, decline); err != nil {
					w.logger.Warn("failed to decline cover letter", slog.String("error", err.Error()))
				}
			}
		}
	}

	if !w.hasDocumentsPage() {
		return nil, nil
	}
	return nil, w.clickContinue(ctx, types.StateDecidingCoverLetter)
}

func (w *Wizard) addCoverLetter(ctx context.Context) bool {
	letter, err := w.letters.Generate(ctx, coverletter.Request{
		JobDescription:   w.candidate.JobDescription,
		Title:            w.candidate.JobTitle,
		CompanyName:      w.candidate.CompanyName,
		TechStackVariant: w.candidate.TechStackVariant,
		Resume:           w.candidate.ResumeText,
	})
	if err != nil {
		w.logger.Warn("cover letter generation failed, declining", slog.String("error", err.Error()))
		return false
	}

	sel := w.board.Selectors
	if sel.CoverLetterText == "" {
		return false
	}
	if sel.CoverLetterAdd != "" {
		if err := w.driver.Click(ctx, sel.CoverLetterAdd); err != nil {
			w.logger.Warn("failed to choose written cover letter", slog.String("error", err.Error()))
			return false
		}
	}
	if err := w.driver.WaitVisible(ctx, sel.CoverLetterText, w.board.Timeouts.Element); err != nil {
		w.logger.Warn("cover letter box not found", slog.String("error", err.Error()))
		return false
	}
	if err := w.driver.SetValue(ctx, sel.CoverLetterText, letter.Text); err != nil {
		w.logger.Warn("failed to enter cover letter", slog.String("error", err.Error()))
		return false
	}
	return true
}

// hasDocumentsPage reports whether resume and cover letter live on their own
// page ahead of the screening questions.
func (w *Wizard) hasDocumentsPage() bool {
	sel := w.board.Selectors
	if sel.Continue == "" {
		return false
	}
	return sel.ResumeSelect != "" || sel.ResumeCard != "" || sel.CoverLetterAdd != "" || sel.CoverLetterDecline != ""
}

func (w *Wizard) review(ctx context.Context) (*verdict, error) {
	consent := w.board.Selectors.ReviewConsent
	if consent == "" {
		return nil, nil
	}
	if ok, _ := w.driver.Exists(ctx, consent); !ok {
		return nil, nil
	}
	checked, err := w.driver.IsChecked(ctx, consent)
	if err != nil {
		return nil, &NavigationError{State: types.StateReviewing, Message: "read consent checkbox", Cause: err}
	}
	if !checked {
		if err := w.driver.Click(ctx, consent); err != nil {
			return nil, &NavigationError{State: types.StateReviewing, Message: "tick consent checkbox", Cause: err}
		}
	}
	return nil, nil
}

func (w *Wizard) submit(ctx context.Context) (*verdict, error) {
	sub := w.board.Selectors.Submit
	if sub == "" {
		return nil, &SubmissionError{Message: "board has no submit selector"}
	}
	if err := w.driver.WaitVisible(ctx, sub, w.board.Timeouts.Element); err != nil {
		return nil, &SubmissionError{Message: "submit button not found", Cause: err}
	}
	if err := w.driver.Click(ctx, sub); err != nil {
		return nil, &SubmissionError{Message: "click submit", Cause: err}
	}
	return nil, w.checkpoint(ctx)
}

func (w *Wizard) clickContinue(ctx context.Context, state types.WizardState) error {
	cont := w.board.Selectors.Continue
	if err := w.driver.WaitVisible(ctx, cont, w.board.Timeouts.Element); err != nil {
		return &NavigationError{State: state, Message: "continue button not found", Cause: err}
	}
	if err := w.driver.Click(ctx, cont); err != nil {
		return &NavigationError{State: state, Message: "click continue", Cause: err}
	}
	return w.checkpoint(ctx)
}

package wizard

import (
	"fmt"

	"github.com/jonathan/job-applier/internal/types"
)

// NavigationError means the wizard could not move between steps. It aborts
// the remaining steps.
type NavigationError struct {
	State   types.WizardState
	Message string
	Cause   error
}

func (e *NavigationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("navigation error in %s: %s: %v", e.State, e.Message, e.Cause)
	}
	return fmt.Sprintf("navigation error in %s: %s", e.State, e.Message)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// SubmissionError means the final submit action failed.
type SubmissionError struct {
	Message string
	Cause   error
}

func (e *SubmissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("submission error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("submission error: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

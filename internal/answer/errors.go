package answer

import (
	"errors"
	"fmt"
)

// ErrRejected matches every RejectedError via errors.Is.
var ErrRejected = errors.New("answer rejected")

// RejectedError means no inference response conformed to the field. The
// field is left unanswered.
type RejectedError struct {
	Question string
	Reason   string
	Attempts int
}

func (e *RejectedError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("answer rejected for %q after %d attempt(s): %s", e.Question, e.Attempts, e.Reason)
	}
	return fmt.Sprintf("answer rejected for %q: %s", e.Question, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

package types

import (
	"encoding/json"
	"fmt"
)

// ApplicationOutcome is the terminal result of one application attempt
type ApplicationOutcome int

const (
	// OutcomeError means an unhandled failure occurred and no success indicator was observed
	OutcomeError ApplicationOutcome = iota
	// OutcomeApplied means a success indicator was observed after submission
	OutcomeApplied
	// OutcomeFailed means submission completed without any success indicator
	OutcomeFailed
	// OutcomeNeedsManualReview means the form could not be completed without a human
	OutcomeNeedsManualReview
	// OutcomeAlreadyApplied means the listing signals a previous application
	OutcomeAlreadyApplied
	// OutcomeInvalidListing means the listing is no longer available
	OutcomeInvalidListing
)

var outcomeNames = map[ApplicationOutcome]string{
	OutcomeError:             "ERROR",
	OutcomeApplied:           "APPLIED",
	OutcomeFailed:            "FAILED",
	OutcomeNeedsManualReview: "NEEDS_MANUAL_REVIEW",
	OutcomeAlreadyApplied:    "ALREADY_APPLIED",
	OutcomeInvalidListing:    "INVALID_LISTING",
}

// String returns the record-store code for the outcome
func (o ApplicationOutcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OUTCOME(%d)", int(o))
}

// ParseOutcome converts a record-store code back into an outcome
func ParseOutcome(s string) (ApplicationOutcome, error) {
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return OutcomeError, fmt.Errorf("unknown application outcome %q", s)
}

// Terminal reports whether re-running the job cannot change the result.
// Applied, AlreadyApplied and InvalidListing are terminal; the rest may be retried.
func (o ApplicationOutcome) Terminal() bool {
	return o == OutcomeApplied || o == OutcomeAlreadyApplied || o == OutcomeInvalidListing
}

// MarshalJSON encodes the outcome as its code
func (o ApplicationOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome code
func (o *ApplicationOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// WizardState is a state of the application wizard
type WizardState string

const (
	StateStart               WizardState = "start"
	StateLoggingIn           WizardState = "logging_in"
	StateNavigating          WizardState = "navigating"
	StateSelectingResume     WizardState = "selecting_resume"
	StateDecidingCoverLetter WizardState = "deciding_cover_letter"
	StateAnsweringScreening  WizardState = "answering_screening"
	StateAwaitingCaptcha     WizardState = "awaiting_captcha"
	StateReviewing           WizardState = "reviewing"
	StateSubmitting          WizardState = "submitting"
	StateDone                WizardState = "done"
)

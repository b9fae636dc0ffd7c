package extract

import "fmt"

// ExtractionError describes an element that could not be safely identified.
// Extraction absorbs these: the element is dropped and the error logged.
type ExtractionError struct {
	Element string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Element == "" {
		if e.Cause != nil {
			return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
		}
		return fmt.Sprintf("extraction error: %s", e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("extraction error for %s: %s: %v", e.Element, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error for %s: %s", e.Element, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

package actuate

import "fmt"

// ActuationError means a resolved answer could not be written back to the
// page. It is non-fatal per field.
type ActuationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ActuationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("actuation error for %q: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("actuation error for %q: %s", e.Field, e.Message)
}

func (e *ActuationError) Unwrap() error {
	return e.Cause
}

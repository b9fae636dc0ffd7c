// Package browser defines the page-driver abstraction used by the form
// automation engine and its Chrome DevTools implementation.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a selector matches no element.
var ErrNotFound = errors.New("element not found")

// TimeoutError is returned when an element does not become visible in time.
type TimeoutError struct {
	Selector string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Selector)
}

// Driver is the narrow set of page operations the engine needs. Selectors are
// CSS selectors. Implementations are not safe for concurrent use; one session
// drives one tab.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// PageSource returns the serialized DOM of the current page.
	PageSource(ctx context.Context) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	Text(ctx context.Context, selector string) (string, error)
	Click(ctx context.Context, selector string) error
	// SetValue clears a text control and types value into it.
	SetValue(ctx context.Context, selector, value string) error
	// SelectOption sets a <select> to the option with the given value.
	SelectOption(ctx context.Context, selector, value string) error
	IsChecked(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// ByID returns a selector matching an element id, safe for ids that are not
// valid CSS identifiers (e.g. "coverLetter-text-:r6:").
func ByID(id string) string {
	return `[id="` + escapeAttr(id) + `"]`
}

// ByNameValue returns a selector for a control with the given name and value.
func ByNameValue(tag, name, value string) string {
	return fmt.Sprintf(`%s[name="%s"][value="%s"]`, tag, escapeAttr(name), escapeAttr(value))
}

// ByName returns a selector for controls sharing a name.
func ByName(tag, name string) string {
	return fmt.Sprintf(`%s[name="%s"]`, tag, escapeAttr(name))
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// FirstExisting returns the first selector in the list that matches an element.
func FirstExisting(ctx context.Context, d Driver, selectors ...string) (string, bool) {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		ok, err := d.Exists(ctx, sel)
		if err == nil && ok {
			return sel, true
		}
	}
	return "", false
}

// Package actuate writes resolved answers back onto the page.
package actuate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/types"
)

// DefaultTimeout bounds the wait for a field's control to appear.
const DefaultTimeout = 10 * time.Second

// Actuator mutates on-page controls to reflect answers.
type Actuator struct {
	driver  browser.Driver
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Actuator bound to one driver session.
func New(driver browser.Driver, timeout time.Duration, logger *slog.Logger) *Actuator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Actuator{driver: driver, timeout: timeout, logger: logger}
}

// Apply writes ans into the control(s) of d. Checkbox groups are toggled
// minimally: only options whose state differs from the answer are clicked.
func (a *Actuator) Apply(ctx context.Context, d types.FieldDescriptor, ans types.Answer) error {
	if err := ans.Conforms(&d); err != nil {
		return &ActuationError{Field: d.Question, Message: "answer does not fit field", Cause: err}
	}
	if err := a.driver.WaitVisible(ctx, d.ID, a.timeout); err != nil {
		return &ActuationError{Field: d.Question, Message: "control not found", Cause: err}
	}

	switch d.Kind {
	case types.KindText, types.KindTextArea:
		return a.setText(ctx, d, ans.Text)
	case types.KindSelect:
		opt, _ := d.Option(ans.SelectedOptionID)
		if err := a.driver.SelectOption(ctx, d.ID, opt.Value); err != nil {
			return &ActuationError{Field: d.Question, Message: "select option " + opt.Value, Cause: err}
		}
		return nil
	case types.KindRadioGroup:
		return a.setRadio(ctx, d, ans.SelectedOptionID)
	case types.KindCheckboxGroup:
		return a.setCheckboxes(ctx, d, ans.SelectedSet())
	default:
		return &ActuationError{Field: d.Question, Message: "unsupported kind " + string(d.Kind)}
	}
}

func (a *Actuator) setText(ctx context.Context, d types.FieldDescriptor, text string) error {
	text = Clip(strings.TrimSpace(text), d.MaxLength)
	if err := a.driver.SetValue(ctx, d.ID, text); err != nil {
		return &ActuationError{Field: d.Question, Message: "set value", Cause: err}
	}
	return nil
}

func (a *Actuator) setRadio(ctx context.Context, d types.FieldDescriptor, id string) error {
	opt, _ := d.Option(id)
	sel := optionSelector(d, opt)

	checked, err := a.driver.IsChecked(ctx, sel)
	if err != nil {
		return &ActuationError{Field: d.Question, Message: "read option " + id, Cause: err}
	}
	if checked {
		return nil
	}
	if err := a.driver.Click(ctx, sel); err != nil {
		return &ActuationError{Field: d.Question, Message: "click option " + id, Cause: err}
	}
	return nil
}

func (a *Actuator) setCheckboxes(ctx context.Context, d types.FieldDescriptor, want map[string]bool) error {
	toggle, err := a.Diff(ctx, d, want)
	if err != nil {
		return err
	}
	for _, opt := range toggle {
		if err := a.driver.Click(ctx, optionSelector(d, opt)); err != nil {
			return &ActuationError{Field: d.Question, Message: "toggle option " + opt.ID, Cause: err}
		}
	}
	if len(toggle) > 0 {
		a.logger.Debug("toggled checkboxes",
			slog.String("question", d.Question),
			slog.Int("count", len(toggle)))
	}
	return nil
}

// Diff returns the options of a checkbox group whose checked state differs
// from want, in page order. It is the symmetric difference between the
// currently checked set and want.
func (a *Actuator) Diff(ctx context.Context, d types.FieldDescriptor, want map[string]bool) ([]types.FieldOption, error) {
	var toggle []types.FieldOption
	for _, opt := range d.Options {
		checked, err := a.driver.IsChecked(ctx, optionSelector(d, opt))
		if err != nil {
			return nil, &ActuationError{Field: d.Question, Message: "read option " + opt.ID, Cause: err}
		}
		if checked != want[opt.ID] {
			toggle = append(toggle, opt)
		}
	}
	return toggle, nil
}

// Clip truncates s to at most max runes. max <= 0 means unlimited.
func Clip(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

func optionSelector(d types.FieldDescriptor, opt types.FieldOption) string {
	if opt.Selector != "" {
		return opt.Selector
	}
	if d.Name != "" {
		return browser.ByNameValue("input", d.Name, opt.Value)
	}
	return browser.ByID(opt.ID)
}

// Package types provides the data model shared by the form automation engine:
// field descriptors, answers, candidate context, outcomes and wizard states.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// FieldKind identifies the shape of a logical form question
type FieldKind string

const (
	// KindText is a single-line text input
	KindText FieldKind = "text"
	// KindTextArea is a multi-line text area
	KindTextArea FieldKind = "textarea"
	// KindSelect is a dropdown with a fixed option list
	KindSelect FieldKind = "select"
	// KindRadioGroup is a set of radio controls sharing one group name
	KindRadioGroup FieldKind = "radio"
	// KindCheckboxGroup is a set of checkbox controls sharing one group name
	KindCheckboxGroup FieldKind = "checkbox"
)

// ParseFieldKind converts a string into a FieldKind.
func ParseFieldKind(s string) (FieldKind, error) {
	switch k := FieldKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindText, KindTextArea, KindSelect, KindRadioGroup, KindCheckboxGroup:
		return k, nil
	default:
		return "", fmt.Errorf("unknown field kind %q", s)
	}
}

// IsChoice reports whether the kind picks from an option list
func (k FieldKind) IsChoice() bool {
	return k == KindSelect || k == KindRadioGroup || k == KindCheckboxGroup
}

// IsFreeText reports whether the kind accepts free text
func (k FieldKind) IsFreeText() bool {
	return k == KindText || k == KindTextArea
}

// FieldOption is one selectable choice of a Select, RadioGroup or CheckboxGroup.
// ID is what an answer references: the control id for radio/checkbox options and
// the option value for selects.
type FieldOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value,omitempty"`

	// Selector locates the option's control on the page. It is an opaque handle
	// for the actuator and never sent to the inference service.
	Selector string `json:"-"`
}

// FieldDescriptor is the normalized shape of one logical question on the page.
// Radio and checkbox groups produce one descriptor per group name.
type FieldDescriptor struct {
	// ID is an opaque handle (a selector) locating the control or group
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Kind      FieldKind     `json:"kind"`
	Question  string        `json:"question"`
	Options   []FieldOption `json:"options,omitempty"`
	Required  bool          `json:"required"`
	MaxLength int           `json:"max_length,omitempty"`
}

// HasOption reports whether id is one of the descriptor's option ids
func (d *FieldDescriptor) HasOption(id string) bool {
	_, ok := d.Option(id)
	return ok
}

// Option returns the option with the given id
func (d *FieldDescriptor) Option(id string) (FieldOption, bool) {
	for _, opt := range d.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return FieldOption{}, false
}

// OptionIDs returns the option ids in page order
func (d *FieldDescriptor) OptionIDs() []string {
	ids := make([]string, 0, len(d.Options))
	for _, opt := range d.Options {
		ids = append(ids, opt.ID)
	}
	return ids
}

// Key returns a string identifying the logical field within one page render.
func (d *FieldDescriptor) Key() string {
	if d.Name != "" && (d.Kind == KindRadioGroup || d.Kind == KindCheckboxGroup) {
		return string(d.Kind) + ":" + d.Name
	}
	return string(d.Kind) + ":" + d.ID
}

package types

import (
	"fmt"
	"sort"
)

// Answer is the resolved value for one FieldDescriptor. Which field is
// meaningful depends on Kind:
//   - Text, TextArea: Text
//   - Select, RadioGroup: SelectedOptionID
//   - CheckboxGroup: SelectedOptionIDs
type Answer struct {
	Kind              FieldKind `json:"kind"`
	Text              string    `json:"text,omitempty"`
	SelectedOptionID  string    `json:"selectedOptionId,omitempty"`
	SelectedOptionIDs []string  `json:"selectedOptionIds,omitempty"`
}

// TextAnswer builds an answer for a Text or TextArea field
func TextAnswer(kind FieldKind, text string) Answer {
	return Answer{Kind: kind, Text: text}
}

// OptionAnswer builds an answer for a Select or RadioGroup field
func OptionAnswer(kind FieldKind, optionID string) Answer {
	return Answer{Kind: kind, SelectedOptionID: optionID}
}

// OptionsAnswer builds an answer for a CheckboxGroup field. Duplicate ids are
// collapsed and the ids are sorted so equal sets compare equal.
func OptionsAnswer(optionIDs ...string) Answer {
	return Answer{Kind: KindCheckboxGroup, SelectedOptionIDs: uniqueSorted(optionIDs)}
}

// SelectedSet returns the checkbox selection as a set
func (a Answer) SelectedSet() map[string]bool {
	set := make(map[string]bool, len(a.SelectedOptionIDs))
	for _, id := range a.SelectedOptionIDs {
		set[id] = true
	}
	return set
}

// Conforms checks that the answer matches the descriptor's kind and that every
// referenced option id is a member of the descriptor's options.
func (a Answer) Conforms(d *FieldDescriptor) error {
	if a.Kind != d.Kind {
		return fmt.Errorf("answer kind %s does not match field kind %s", a.Kind, d.Kind)
	}

	switch d.Kind {
	case KindText, KindTextArea:
		if a.SelectedOptionID != "" || len(a.SelectedOptionIDs) > 0 {
			return fmt.Errorf("text answer must not reference options")
		}
	case KindSelect, KindRadioGroup:
		if a.SelectedOptionID == "" {
			return fmt.Errorf("missing selected option")
		}
		if !d.HasOption(a.SelectedOptionID) {
			return fmt.Errorf("option %q is not offered by the field", a.SelectedOptionID)
		}
	case KindCheckboxGroup:
		for _, id := range a.SelectedOptionIDs {
			if !d.HasOption(id) {
				return fmt.Errorf("option %q is not offered by the field", id)
			}
		}
	default:
		return fmt.Errorf("unknown field kind %q", d.Kind)
	}
	return nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Package answer resolves form fields to validated answers by delegating to
// an external inference service. An answer never references an option that
// the field does not offer.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonathan/job-applier/internal/prompts"
	"github.com/jonathan/job-applier/internal/schemas"
	"github.com/jonathan/job-applier/internal/types"
)

const promptFile = "resolver.json"

// Defaults for Options.
const (
	DefaultTemperature   float32 = 0.3
	DefaultMaxAttempts           = 2
	DefaultTextAreaWords         = 100
)

// ChatCompleter is the inference service. It returns a JSON object, or nil on
// any transport or parse failure.
type ChatCompleter interface {
	ChatComplete(ctx context.Context, system, user string, temperature float32) json.RawMessage
}

// Options configures a Resolver.
type Options struct {
	Temperature   float32
	MaxAttempts   int
	TextAreaWords int
	Logger        *slog.Logger
}

// Resolver resolves one descriptor per call, with at most MaxAttempts
// inference calls.
type Resolver struct {
	chat   ChatCompleter
	opts   Options
	logger *slog.Logger
}

// New creates a Resolver.
func New(chat ChatCompleter, opts Options) *Resolver {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.TextAreaWords <= 0 {
		opts.TextAreaWords = DefaultTextAreaWords
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{chat: chat, opts: opts, logger: logger}
}

// Resolve returns a conforming answer for d, or a *RejectedError.
func (r *Resolver) Resolve(ctx context.Context, d types.FieldDescriptor, cc types.CandidateContext) (types.Answer, error) {
	if d.Kind.IsChoice() && len(d.Options) == 0 {
		return types.Answer{}, &RejectedError{Question: d.Question, Reason: "field offers no options"}
	}

	system, err := prompts.Get(promptFile, "system")
	if err != nil {
		return types.Answer{}, err
	}
	user, err := buildQuestionPrompt(d, cc, r.opts.TextAreaWords)
	if err != nil {
		return types.Answer{}, err
	}

	reason := ""
	attempts := 0
	for attempts < r.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			reason = err.Error()
			break
		}
		attempts++

		prompt := user
		if reason != "" {
			retry := prompts.Format(prompts.MustGet(promptFile, "retry"), map[string]string{"Reason": reason})
			prompt = user + "\n\n" + retry
		}

		raw := r.chat.ChatComplete(ctx, system, prompt, r.opts.Temperature)
		ans, rejectReason := Parse(d, raw)
		if rejectReason == "" {
			r.logger.Debug("resolved field",
				slog.String("question", d.Question),
				slog.Int("attempt", attempts))
			return ans, nil
		}

		reason = rejectReason
		r.logger.Debug("inference response rejected",
			slog.String("question", d.Question),
			slog.Int("attempt", attempts),
			slog.String("reason", reason))
	}

	return types.Answer{}, &RejectedError{Question: d.Question, Reason: reason, Attempts: attempts}
}

// Parse validates an inference response against d. It returns the answer, or
// a non-empty rejection reason. Responses are never repaired.
func Parse(d types.FieldDescriptor, raw json.RawMessage) (types.Answer, string) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return types.Answer{}, "no response from inference service"
	}

	if err := schemas.ValidateDocument(Schema(d), raw); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			return types.Answer{}, verr.Summary()
		}
		return types.Answer{}, err.Error()
	}

	var body struct {
		Text              *string  `json:"text"`
		SelectedOptionID  *string  `json:"selectedOptionId"`
		SelectedOptionIDs []string `json:"selectedOptionIds"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return types.Answer{}, "malformed response: " + err.Error()
	}

	var ans types.Answer
	switch d.Kind {
	case types.KindText, types.KindTextArea:
		if body.Text == nil || strings.TrimSpace(*body.Text) == "" {
			return types.Answer{}, "text must not be blank"
		}
		ans = types.TextAnswer(d.Kind, *body.Text)
	case types.KindSelect, types.KindRadioGroup:
		if body.SelectedOptionID == nil {
			return types.Answer{}, "missing selectedOptionId"
		}
		ans = types.OptionAnswer(d.Kind, *body.SelectedOptionID)
	case types.KindCheckboxGroup:
		ans = types.OptionsAnswer(body.SelectedOptionIDs...)
	default:
		return types.Answer{}, fmt.Sprintf("unsupported field kind %q", d.Kind)
	}

	if err := ans.Conforms(&d); err != nil {
		return types.Answer{}, err.Error()
	}
	return ans, ""
}

// Schema returns the JSON Schema an inference response for d must satisfy.
func Schema(d types.FieldDescriptor) map[string]any {
	var key string
	var prop map[string]any

	switch d.Kind {
	case types.KindSelect, types.KindRadioGroup:
		key = "selectedOptionId"
		prop = map[string]any{"type": "string", "enum": d.OptionIDs()}
	case types.KindCheckboxGroup:
		key = "selectedOptionIds"
		prop = map[string]any{
			"type":        "array",
			"uniqueItems": true,
			"items":       map[string]any{"type": "string", "enum": d.OptionIDs()},
		}
	default:
		key = "text"
		prop = map[string]any{"type": "string", "minLength": 1}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{key: prop},
		"required":             []string{key},
		"additionalProperties": false,
	}
}

var kindNames = map[types.FieldKind]string{
	types.KindText:          "single-line text",
	types.KindTextArea:      "multi-line text",
	types.KindSelect:        "dropdown (choose one)",
	types.KindRadioGroup:    "radio buttons (choose one)",
	types.KindCheckboxGroup: "checkboxes (choose any)",
}

var hintKeys = map[QuestionType]string{
	QuestionExperience: "hint-experience",
	QuestionSalary:     "hint-salary",
	QuestionStartDate:  "hint-start",
	QuestionWorkRights: "hint-rights",
	QuestionRelocation: "hint-relocate",
	QuestionNotice:     "hint-notice",
}

func buildQuestionPrompt(d types.FieldDescriptor, cc types.CandidateContext, textAreaWords int) (string, error) {
	instructions, err := buildInstructions(d, textAreaWords)
	if err != nil {
		return "", err
	}

	hint := ""
	if key, ok := hintKeys[Classify(d.Question)]; ok {
		hint = "Hint: " + prompts.MustGet(promptFile, key)
	}

	required := ""
	if d.Required {
		required = " (required)"
	}

	return prompts.Render(promptFile, "question", map[string]string{
		"JobTitle":       orUnknown(cc.JobTitle),
		"Company":        orUnknown(cc.CompanyName),
		"JobDescription": orUnknown(cc.JobDescription),
		"Variant":        cc.TechStackVariant,
		"Resume":         cc.ResumeText,
		"Question":       d.Question,
		"Kind":           kindNames[d.Kind],
		"Required":       required,
		"Hint":           hint,
		"Instructions":   instructions,
	})
}

func buildInstructions(d types.FieldDescriptor, textAreaWords int) (string, error) {
	switch d.Kind {
	case types.KindText, types.KindTextArea:
		var length []string
		if d.Kind == types.KindTextArea {
			length = append(length, prompts.Format(prompts.MustGet(promptFile, "length-textarea"),
				map[string]string{"Words": strconv.Itoa(textAreaWords)}))
		} else {
			length = append(length, prompts.MustGet(promptFile, "length-text"))
		}
		if d.MaxLength > 0 {
			length = append(length, prompts.Format(prompts.MustGet(promptFile, "length-max"),
				map[string]string{"Chars": strconv.Itoa(d.MaxLength)}))
		}
		return prompts.Render(promptFile, "instructions-text", map[string]string{"Length": strings.Join(length, " ")})
	case types.KindSelect, types.KindRadioGroup:
		return prompts.Render(promptFile, "instructions-single", map[string]string{"Options": formatOptions(d.Options)})
	case types.KindCheckboxGroup:
		return prompts.Render(promptFile, "instructions-multi", map[string]string{"Options": formatOptions(d.Options)})
	default:
		return "", fmt.Errorf("unsupported field kind %q", d.Kind)
	}
}

// formatOptions lists ids and labels only.
func formatOptions(opts []types.FieldOption) string {
	var sb strings.Builder
	for _, o := range opts {
		sb.WriteString(fmt.Sprintf("- id %q: %s\n", o.ID, o.Label))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}

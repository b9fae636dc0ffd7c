// Package coverletter generates cover letter text through the inference
// service.
package coverletter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonathan/job-applier/internal/prompts"
	"github.com/jonathan/job-applier/internal/schemas"
)

const promptFile = "cover_letter.json"

const (
	DefaultTemperature float32 = 0.7
	DefaultMaxWords            = 250
)

var letterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text": map[string]any{"type": "string", "minLength": 1},
	},
	"required":             []string{"text"},
	"additionalProperties": false,
}

// ChatCompleter is the inference service.
type ChatCompleter interface {
	ChatComplete(ctx context.Context, system, user string, temperature float32) json.RawMessage
}

// Request carries what the letter is written from.
type Request struct {
	JobDescription   string
	Title            string
	CompanyName      string
	TechStackVariant string
	Resume           string
}

// Letter is generated cover letter content.
type Letter struct {
	Text string `json:"text"`
}

// Generator produces cover letters. It returns nil and an error when no
// usable letter was produced.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Letter, error)
}

// LLMGenerator implements Generator over a ChatCompleter.
type LLMGenerator struct {
	chat        ChatCompleter
	temperature float32
	maxWords    int
	logger      *slog.Logger
}

// New creates an LLMGenerator. maxWords <= 0 uses DefaultMaxWords.
func New(chat ChatCompleter, maxWords int, logger *slog.Logger) *LLMGenerator {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LLMGenerator{chat: chat, temperature: DefaultTemperature, maxWords: maxWords, logger: logger}
}

// Generate writes a letter for req.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Letter, error) {
	system, err := prompts.Get(promptFile, "system")
	if err != nil {
		return nil, err
	}
	user, err := prompts.Render(promptFile, "letter", map[string]string{
		"Words":          strconv.Itoa(g.maxWords),
		"JobTitle":       req.Title,
		"Company":        req.CompanyName,
		"Variant":        req.TechStackVariant,
		"JobDescription": req.JobDescription,
		"Resume":         req.Resume,
	})
	if err != nil {
		return nil, err
	}

	raw := g.chat.ChatComplete(ctx, system, user, g.temperature)
	if len(raw) == 0 {
		return nil, fmt.Errorf("no cover letter returned by inference service")
	}
	if err := schemas.ValidateDocument(letterSchema, raw); err != nil {
		return nil, fmt.Errorf("invalid cover letter response: %w", err)
	}

	var letter Letter
	if err := json.Unmarshal(raw, &letter); err != nil {
		return nil, fmt.Errorf("failed to decode cover letter: %w", err)
	}
	letter.Text = strings.TrimSpace(letter.Text)
	if letter.Text == "" {
		return nil, fmt.Errorf("cover letter is blank")
	}

	g.logger.Debug("generated cover letter",
		slog.String("company", req.CompanyName),
		slog.Int("words", len(strings.Fields(letter.Text))))
	return &letter, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
)

// ChatService adapts a Client to the inference contract used by the engine:
// a JSON object on success and nil on any transport or parse failure.
type ChatService struct {
	client Client
	tier   ModelTier
	logger *slog.Logger
}

// NewChatService creates a ChatService completing with the given tier.
func NewChatService(client Client, tier ModelTier, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ChatService{client: client, tier: tier, logger: logger}
}

// ChatComplete sends one system/user exchange and returns the response JSON
// object, or nil. It never returns an error.
func (s *ChatService) ChatComplete(ctx context.Context, system, user string, temperature float32) json.RawMessage {
	text, err := s.client.Complete(ctx, Request{
		System:      system,
		User:        user,
		Temperature: temperature,
		Tier:        s.tier,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn("inference call failed",
			slog.String("model", s.client.GetModel(s.tier)),
			slog.String("error", err.Error()))
		return nil
	}

	obj, ok := ParseJSONObject(text)
	if !ok {
		s.logger.Warn("inference response is not a JSON object",
			slog.String("model", s.client.GetModel(s.tier)),
			slog.Int("length", len(text)))
		return nil
	}
	return obj
}

// ParseJSONObject strips code fences and returns text as a JSON object.
func ParseJSONObject(text string) (json.RawMessage, bool) {
	cleaned := bytes.TrimSpace([]byte(CleanJSONBlock(text)))
	if len(cleaned) == 0 || cleaned[0] != '{' || !json.Valid(cleaned) {
		return nil, false
	}
	return json.RawMessage(cleaned), true
}

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient implements Client for OpenAI through langchaingo
type OpenAIClient struct {
	apiKey string
	config *Config

	mu     sync.Mutex
	models map[string]llms.Model
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &OpenAIClient{
		apiKey: apiKey,
		config: config,
		models: map[string]llms.Model{},
	}, nil
}

func (c *OpenAIClient) model(name string) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[name]; ok {
		return m, nil
	}
	m, err := openai.New(openai.WithToken(c.apiKey), openai.WithModel(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	c.models[name] = m
	return m, nil
}

// Complete generates one completion with the tier's model
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}
	model, err := c.model(modelName)
	if err != nil {
		return "", err
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.User))

	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Content, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP transport is shared.
func (c *OpenAIClient) Close() error {
	return nil
}

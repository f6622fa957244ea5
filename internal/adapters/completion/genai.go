package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Default generation parameters applied when the request leaves them unset.
const (
	defaultModel       = "gemini-2.0-flash"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.1
)

// GenAIOption applies a configuration option to the GenAIClient.
type GenAIOption func(*GenAIClient)

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) GenAIOption {
	return func(c *GenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// GenAIClient implements Completer against the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a completion client. The API key is required; the
// model can be overridden per request.
func NewGenAIClient(ctx context.Context, apiKey string, opts ...GenAIOption) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrComplete)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c := &GenAIClient{client: client, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends the chat messages to the model and returns the text of the
// first candidate.
func (c *GenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrEmptyRequest
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrComplete, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

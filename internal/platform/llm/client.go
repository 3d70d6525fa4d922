// Package llm wraps an OpenAI-compatible chat-completion endpoint behind a
// small Client interface. The provider is opaque and best-effort: every
// failure mode (network, non-2xx, malformed or empty reply) surfaces as a
// fault.Unavailable error so callers can degrade instead of crashing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

// Prompt is a single completion request: a system instruction, the user
// message, and sampling parameters.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Client produces a text completion for a prompt.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

const defaultRequestTimeout = 30 * time.Second

// OpenAIClient calls the /chat/completions endpoint of an OpenAI-compatible API.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIClient creates a client for the given base URL (e.g.
// "https://api.openai.com/v1"), API key and model.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt to the chat-completion endpoint and returns the
// first choice's content, trimmed. It never returns an empty string with a
// nil error.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	if p.MaxTokens <= 0 {
		p.MaxTokens = 500
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", fault.Wrap(fault.Unavailable, "completion provider request could not be encoded", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(fault.Unavailable, "completion provider request could not be created", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.Unavailable, "completion provider unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fault.Wrap(fault.Unavailable, "completion provider response could not be read", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fault.Errorf(fault.Unavailable, "completion provider returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fault.Wrap(fault.Unavailable, "completion provider returned malformed JSON", err)
	}
	if parsed.Error != nil {
		return "", fault.Errorf(fault.Unavailable, "completion provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fault.New(fault.Unavailable, "completion provider returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fault.New(fault.Unavailable, "completion provider returned an empty reply")
	}
	return content, nil
}

// Disabled is a Client used when no provider is configured; every call
// reports Unavailable.
type Disabled struct{}

func (Disabled) Complete(context.Context, Prompt) (string, error) {
	return "", fault.New(fault.Unavailable, "chat-completion provider is not configured")
}

var _ Client = (*OpenAIClient)(nil)
var _ Client = Disabled{}

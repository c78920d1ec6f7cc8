// Package llm wraps the Gemini text-completion API behind the narrow
// interface the chat orchestrator needs.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/observability"
)

// Client calls the Gemini API for chat completions.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *observability.Logger
}

// NewClient creates a Gemini-backed completion client. Returns nil (not an
// error) when no API key is configured, so callers can treat a nil client
// as "AI disabled" and use the fallback path.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *observability.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.WithComponent("llm"),
	}, nil
}

// Complete sends a system prompt and user message and returns the reply text.
// The call is bounded by the configured timeout; timeout is an error like any
// other and sends the orchestrator down the fallback path.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		} else {
			c.logger.Debug().Str("part_type", fmt.Sprintf("%T", part)).Msg("Skipping non-text response part")
		}
	}

	if reply.Len() == 0 {
		return "", fmt.Errorf("gemini returned empty reply")
	}

	return reply.String(), nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

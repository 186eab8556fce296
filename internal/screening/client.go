// ABOUTME: Client for the natural-language adverse-signal screening provider.
// ABOUTME: One call, one answer with citations; classification happens elsewhere.

package screening

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/kyc-gateway/internal/upstream"
)

// Answer is the provider's response to a screening prompt.
type Answer struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
}

// Client talks to the screening provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
	logger  *slog.Logger
}

// NewClient creates a screening client.
func NewClient(baseURL, apiKey string, http *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    http,
		logger:  logger.With("component", "screening"),
	}
}

// Ask sends a prompt and returns the provider's answer.
func (c *Client) Ask(ctx context.Context, prompt string) (*Answer, error) {
	req := map[string]string{"prompt": prompt}
	headers := map[string]string{"X-Api-Key": c.apiKey}

	var out Answer
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/ask", headers, req, &out); err != nil {
		return nil, fmt.Errorf("screening query: %w", err)
	}

	c.logger.Debug("screening answered", "citations", len(out.Citations))
	return &out, nil
}

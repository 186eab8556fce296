// ABOUTME: Client for the document-analysis provider: submit bytes, poll status.
// ABOUTME: Maps provider status strings onto the poller's operation states.

package docanalysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/2389/kyc-gateway/internal/poll"
	"github.com/2389/kyc-gateway/internal/upstream"
)

// Client talks to the document-analysis provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
	logger  *slog.Logger
}

// NewClient creates a document-analysis client.
func NewClient(baseURL, apiKey string, http *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    http,
		logger:  logger.With("component", "docanalysis"),
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"X-Api-Key": c.apiKey}
}

type submitRequest struct {
	Content  string `json:"content"` // base64
	MimeType string `json:"mime_type"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Submit uploads a document and returns the provider-issued operation handle.
func (c *Client) Submit(ctx context.Context, data []byte, mimeType string) (string, error) {
	req := submitRequest{
		Content:  base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}

	var resp submitResponse
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/analyses", c.headers(), req, &resp); err != nil {
		return "", fmt.Errorf("submitting document: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("provider returned empty analysis id")
	}

	c.logger.Debug("document submitted", "handle", resp.ID, "bytes", len(data), "mime_type", mimeType)
	return resp.ID, nil
}

type statusResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Status reports the current state of an analysis operation.
func (c *Client) Status(ctx context.Context, handle string) (poll.Status, error) {
	var resp statusResponse
	endpoint := c.baseURL + "/analyses/" + url.PathEscape(handle)
	if err := c.http.DoJSON(ctx, "GET", endpoint, c.headers(), nil, &resp); err != nil {
		return poll.Status{}, err
	}

	switch resp.Status {
	case "queued", "pending":
		return poll.Status{State: poll.StateQueued}, nil
	case "running", "processing":
		return poll.Status{State: poll.StateRunning}, nil
	case "succeeded", "completed":
		return poll.Status{State: poll.StateSucceeded, Result: resp.Result}, nil
	case "failed":
		return poll.Status{State: poll.StateFailed, Detail: resp.Error}, nil
	default:
		return poll.Status{}, fmt.Errorf("provider reported unknown status %q", resp.Status)
	}
}

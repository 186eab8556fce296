// ABOUTME: Client for the public legal-entity registry (GLEIF-style lookups).
// ABOUTME: Search by name and fetch by LEI through a narrow interface.

package gleif

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/2389/kyc-gateway/internal/upstream"
)

// ErrNotFound indicates no entity exists for the requested LEI.
var ErrNotFound = errors.New("entity not found")

// Entity is one registry record.
type Entity struct {
	LEI          string `json:"lei"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Client talks to the public entity registry.
type Client struct {
	baseURL string
	http    *upstream.Client
	logger  *slog.Logger
}

// NewClient creates a registry client.
func NewClient(baseURL string, http *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    http,
		logger:  logger.With("component", "gleif"),
	}
}

type searchResponse struct {
	Entities []Entity `json:"entities"`
}

// SearchByName returns registry entries matching a legal name.
func (c *Client) SearchByName(ctx context.Context, name string) ([]Entity, error) {
	endpoint := c.baseURL + "/entities?name=" + url.QueryEscape(name)

	var resp searchResponse
	if err := c.http.DoJSON(ctx, "GET", endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("searching registry for %q: %w", name, err)
	}

	c.logger.Debug("registry search", "name", name, "hits", len(resp.Entities))
	return resp.Entities, nil
}

// GetByLEI returns the registry record for an LEI, or ErrNotFound.
func (c *Client) GetByLEI(ctx context.Context, lei string) (*Entity, error) {
	endpoint := c.baseURL + "/entities/" + url.PathEscape(lei)

	var out Entity
	if err := c.http.DoJSON(ctx, "GET", endpoint, nil, nil, &out); err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, lei)
		}
		return nil, fmt.Errorf("getting entity %s: %w", lei, err)
	}
	return &out, nil
}

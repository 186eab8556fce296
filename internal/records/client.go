// ABOUTME: Client for the KYC record store: filtered list, get by id, and
// ABOUTME: single-field updates, authenticated via the credential cache.

package records

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/2389/kyc-gateway/internal/credential"
	"github.com/2389/kyc-gateway/internal/upstream"
)

// Case is a verification case as returned by the record store. Fields the
// gateway does not interpret are kept opaque in Fields.
type Case struct {
	ID        string         `json:"id"`
	Subject   string         `json:"subject"`
	Status    string         `json:"status"`
	UpdatedAt time.Time      `json:"updated_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Client talks to the record store.
type Client struct {
	baseURL string
	http    *upstream.Client
	creds   *credential.Cache
	logger  *slog.Logger
}

// NewClient creates a record store client. Every call obtains its bearer
// token from the credential cache.
func NewClient(baseURL string, http *upstream.Client, creds *credential.Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    http,
		creds:   creds,
		logger:  logger.With("component", "records"),
	}
}

// authHeaders resolves the bearer token for one request.
func (c *Client) authHeaders(ctx context.Context) (map[string]string, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

type listResponse struct {
	Cases []Case `json:"cases"`
}

// ListCases returns cases filtered by status. A zero limit uses the store's
// default page size.
func (c *Client) ListCases(ctx context.Context, status string, limit int) ([]Case, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.baseURL + "/cases"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var resp listResponse
	if err := c.http.DoJSON(ctx, "GET", endpoint, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	return resp.Cases, nil
}

// GetCase returns one case by its opaque identifier.
func (c *Client) GetCase(ctx context.Context, id string) (*Case, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	var out Case
	endpoint := c.baseURL + "/cases/" + url.PathEscape(id)
	if err := c.http.DoJSON(ctx, "GET", endpoint, headers, nil, &out); err != nil {
		return nil, fmt.Errorf("getting case %s: %w", id, err)
	}
	return &out, nil
}

// UpdateCaseField sets a single field on a case. This is the gateway's only
// mutating upstream operation and is atomic on the store side.
func (c *Client) UpdateCaseField(ctx context.Context, id, field, value string) error {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/cases/" + url.PathEscape(id)
	body := map[string]string{field: value}
	if err := c.http.DoJSON(ctx, "PATCH", endpoint, headers, body, nil); err != nil {
		return fmt.Errorf("updating case %s: %w", id, err)
	}

	c.logger.Info("case field updated", "case_id", id, "field", field)
	return nil
}

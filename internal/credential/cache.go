// ABOUTME: Bearer token cache for the record store's identity provider.
// ABOUTME: Single-flight refresh so concurrent callers trigger one exchange.

package credential

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/2389/kyc-gateway/internal/upstream"
)

// RefreshMargin is how far ahead of expiry a cached token is still reused.
// A token expiring within this margin triggers a fresh exchange.
const RefreshMargin = 5 * time.Minute

// ExchangeError reports a failed token exchange with the identity provider.
// The cache never retries and never falls back to a previously cached token.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Token is a bearer credential issued by the identity provider.
type Token struct {
	Value     string
	ExpiresAt time.Time
	Scope     string
}

// Config holds the identity provider endpoint and client credentials.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	HTTP         *upstream.Client
	Logger       *slog.Logger
}

// Cache holds at most one valid token and refreshes it in place. Concurrent
// callers that miss the cache share a single in-flight exchange.
type Cache struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	token *Token

	group singleflight.Group
	now   func() time.Time
}

// NewCache creates a token cache for the given identity provider.
func NewCache(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cfg:    cfg,
		logger: logger.With("component", "credential"),
		now:    time.Now,
	}
}

// Token returns a usable bearer token value. A cached token is returned
// without network activity while its expiry is more than RefreshMargin away;
// otherwise exactly one exchange runs regardless of caller count.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != nil {
		return tok.Value, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// A racing caller may have refreshed while we waited for the flight.
		if tok := c.cached(); tok != nil {
			return tok, nil
		}

		tok, err := c.exchange(ctx)
		if err != nil {
			return nil, &ExchangeError{Err: err}
		}

		c.mu.Lock()
		c.token = tok
		c.mu.Unlock()

		c.logger.Info("token refreshed", "expires_at", tok.ExpiresAt, "scope", tok.Scope)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(*Token).Value, nil
}

// cached returns the current token if it is still comfortably valid.
func (c *Cache) cached() *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil
	}
	if c.now().Add(RefreshMargin).After(c.token.ExpiresAt) {
		return nil
	}
	return c.token
}

// tokenResponse is the identity provider's exchange response shape.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

func (c *Cache) exchange(ctx context.Context) (*Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	if c.cfg.Scope != "" {
		form.Set("scope", c.cfg.Scope)
	}

	var resp tokenResponse
	if err := c.cfg.HTTP.PostForm(ctx, c.cfg.TokenURL, form, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("identity provider returned empty access_token")
	}

	return &Token{
		Value:     resp.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		Scope:     resp.Scope,
	}, nil
}

// Package upstream provides the shared HTTP plumbing for external data
// providers: JSON request/response helpers, per-request timeouts, and the
// Error type carrying the provider's status code and body.
package upstream

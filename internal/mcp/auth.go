// ABOUTME: Shared-secret authentication for the MCP endpoint.
// ABOUTME: Accepts the secret from header, bearer token, or query parameter.

package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authResult classifies one request's credential against the configured
// shared secret.
type authResult int

const (
	authOK authResult = iota
	authMissing
	authMismatch
)

// authorize checks the request's credential. With no secret configured the
// server runs in insecure mode and every request is accepted.
//
// The secret is accepted from three carriers, checked in order: the
// X-Api-Key header, an Authorization bearer token, and the api_key query
// parameter. The first carrier present is the one compared; comparison is
// constant-time.
func (s *Server) authorize(r *http.Request) authResult {
	if s.sharedSecret == "" {
		return authOK
	}

	presented, ok := extractSecret(r)
	if !ok {
		return authMissing
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.sharedSecret)) != 1 {
		return authMismatch
	}
	return authOK
}

// extractSecret pulls the presented credential off the request. The second
// return reports whether any carrier was present at all, so an empty or
// malformed credential counts as presented-but-wrong rather than missing.
func extractSecret(r *http.Request) (string, bool) {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key, true
	}
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer "), true
	}
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key, true
	}
	return "", false
}

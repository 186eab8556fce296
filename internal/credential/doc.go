// Package credential caches the OAuth-style bearer token used for record
// store calls. One token slot, refreshed in place, with single-flight
// coalescing so the identity provider sees at most one exchange at a time.
package credential

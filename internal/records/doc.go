// Package records is the client for the verification case record store,
// authenticating every call with a bearer token from the credential cache.
// Updates touch one field at a time.
package records

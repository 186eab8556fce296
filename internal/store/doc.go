// Package store persists the gateway's tool invocation audit log in
// SQLite. Auditing is optional and best-effort: a nil store disables it
// and write failures never affect the invocation path.
package store

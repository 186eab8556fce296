// Package poll drives long-running external operations that must be
// submitted and then polled to completion, with a fixed interval and a
// hard attempt budget so no wait is unbounded.
package poll

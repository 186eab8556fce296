// Package screening asks the natural-language screening provider about a
// subject and returns the answer text with its citations.
package screening

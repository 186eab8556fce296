// Package gleif looks up legal entities in the public GLEIF-style
// registry: search by legal name and direct fetch by LEI code, with a
// missing entity reported as ErrNotFound.
package gleif

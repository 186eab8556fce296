// Package tools implements the tool registry and dispatcher: named tools
// with typed input schemas, argument validation before dispatch, and the
// guarantee that handler failures become error-describing results rather
// than transport errors.
package tools

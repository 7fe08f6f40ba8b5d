// Package failure defines the closed taxonomy of verification failures shared by
// the internal verification stages. The root package re-exports every type and
// value so callers never import this package directly.
package failure

// Package algorithm is the closed table of signature algorithms the verifier
// understands.
//
// # What this package must NOT do
//
//   - Offer runtime registration. Adding an algorithm is a code change.
//   - Treat "none" as "skip verification". Its strategy refuses every token.
//
// The table is read-only after package initialization and is shared by all
// goroutines without locking.
package algorithm

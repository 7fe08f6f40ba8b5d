// Package revocation keeps a Redis-backed denylist of token IDs (jti).
//
// # Architecture boundaries
//
// The store answers one question: has this jti been revoked? It never parses
// tokens and never decides whether a token is otherwise valid; goVerify's
// Verifier consults it only after a token has fully verified.
//
// # What this package must NOT do
//
//   - Import goVerify (no upward imports).
//   - Keep entries past the token's own expiry.
package revocation

// Package keys builds the verification key material handed to the verifier.
//
// Keys are always supplied by the caller: this package parses bytes the caller
// already holds (raw keys, PEM, JWK, JWK Sets) and never fetches or caches
// anything. Private keys are rejected or reduced to their public half.
package keys

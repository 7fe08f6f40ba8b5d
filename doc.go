// Package goVerify verifies compact-serialized JSON Web Tokens against
// caller-supplied keys and a verification policy.
//
// [VerifyToken] is the core: a pure function of (token, key, policy, now) that
// parses the token, checks the header algorithm against the policy allow-list,
// verifies the signature over the raw signing input, and validates the
// registered claims. It performs no I/O, keeps no state, and returns either the
// decoded claims or a [*VerificationError] carrying exactly one [Kind].
//
// [Verifier] wraps the core for servers: key selection by kid, optional
// revocation lookup, metrics, and audit events. Build one with [New].
//
// # Architecture boundaries
//
// goVerify is the public surface. Parsing, signature dispatch, and claim rules
// live under internal/ and are never exported. The algorithm registry is the
// closed table in package algorithm; nothing can register new entries at
// runtime.
//
// # What this package must NOT do
//
//   - Issue or sign tokens.
//   - Fetch keys over the network or cache them across calls.
//   - Read the system clock inside VerifyToken; callers pass now.
//   - Accept alg "none" under any policy.
//
// # Performance contract
//
// VerifyToken is the hot path. It allocates only the decoded header and claims
// maps and is safe for unlimited concurrent use with shared keys and policies.
package goVerify

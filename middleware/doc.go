// Package middleware exposes HTTP and gRPC adapters that put a
// goVerify.Verifier in front of a handler.
//
// # Guards
//
//   - [Guard] reads "Authorization: Bearer <token>" and responds 401 on failure.
//   - [UnaryServerInterceptor] and [StreamServerInterceptor] read the
//     "authorization" metadata key and return codes.Unauthenticated on failure.
//
// Verified claims are stored in the request context; read them with
// [ClaimsFromContext].
//
// # Architecture boundaries
//
// This package translates transport semantics into Verifier calls. It does NOT
// implement verification itself; every decision is delegated to Verify.
//
// # What this package must NOT do
//
//   - Parse or inspect tokens directly.
//   - Reveal the failure kind to the caller. Responses are uniform so a client
//     cannot tell which check failed.
//   - Make authorization decisions beyond pass/reject.
package middleware

package goVerify

import (
	"time"

	"github.com/MrEthical07/goVerify/internal/claims"
	"github.com/MrEthical07/goVerify/internal/compact"
	"github.com/MrEthical07/goVerify/internal/signature"
	"github.com/MrEthical07/goVerify/keys"
)

// VerifyToken verifies token with key under policy at time now.
//
// Steps run in a fixed order and the first failure is returned:
//
//  1. parse the three segments and decode header and payload,
//  2. reject the header alg unless policy allows it,
//  3. verify the signature over the raw signing input,
//  4. validate claims (exp, nbf, iat, iss, aud, then required claims).
//
// On success the returned Claims hold the full payload. Every error is a
// *VerificationError; use errors.Is with the Err* sentinels or KindOf.
//
// VerifyToken reads no clock, performs no I/O, and never retains or mutates
// key or policy.
func VerifyToken(token string, key keys.Material, policy Policy, now time.Time) (*Claims, error) {
	tok, err := compact.Parse(token)
	if err != nil {
		return nil, err
	}
	return verifyParsed(tok, key, policy, now)
}

func verifyParsed(tok *compact.Token, key keys.Material, policy Policy, now time.Time) (*Claims, error) {
	if err := admit(tok, policy); err != nil {
		return nil, err
	}
	if err := signature.Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, key); err != nil {
		return nil, err
	}
	if err := claims.Validate(tok.Claims, policy.rules(), now); err != nil {
		return nil, err
	}
	return newClaims(tok.Claims), nil
}

// admit applies the allow-list. It runs before any key is touched.
func admit(tok *compact.Token, policy Policy) error {
	return policy.Admit(tok.Algorithm())
}

// ValidateClaims reports every claim failure of an already verified payload
// under policy, in the same order VerifyToken checks them. It returns nil when
// the payload satisfies the policy. Use it for diagnostics; VerifyToken stops
// at the first failure.
func ValidateClaims(c *Claims, policy Policy, now time.Time) []error {
	if c == nil {
		return nil
	}
	return claims.Failures(claims.ValidateAll(c.raw, policy.rules(), now))
}

package goVerify

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/claims"
	"github.com/MrEthical07/goVerify/internal/failure"
)

// DefaultClockSkew is the tolerance DefaultPolicy applies to time claims.
const DefaultClockSkew = 30 * time.Second

// Policy states what a token must satisfy to verify.
//
// The zero value allows no algorithm, so every token fails with
// KindAlgorithmNotAllowed. Policy is read-only during verification and may be
// shared across goroutines.
type Policy struct {
	// AllowedAlgorithms is the allow-list checked before any signature work.
	// "none" is refused even when listed.
	AllowedAlgorithms []algorithm.ID
	// ExpectedIssuer, when non-empty, must equal iss exactly.
	ExpectedIssuer string
	// ExpectedAudience, when non-empty, must share at least one value with aud.
	ExpectedAudience []string
	// ClockSkew widens exp, nbf, and iat comparisons.
	ClockSkew time.Duration
	// RequireExpiration rejects tokens without exp.
	RequireExpiration bool
	// RequireIssuedAt rejects tokens without iat.
	RequireIssuedAt bool
	// RequiredClaims lists custom claim names that must be present and non-null.
	RequiredClaims []string
}

// DefaultPolicy returns a policy allowing algs with DefaultClockSkew and a
// required exp.
func DefaultPolicy(algs ...algorithm.ID) Policy {
	return Policy{
		AllowedAlgorithms: append([]algorithm.ID(nil), algs...),
		ClockSkew:         DefaultClockSkew,
		RequireExpiration: true,
	}
}

// Allows reports whether alg is on the allow-list. It does not consult the
// registry, so an allow-listed "none" still fails later.
func (p Policy) Allows(alg string) bool {
	for _, a := range p.AllowedAlgorithms {
		if string(a) == alg {
			return true
		}
	}
	return false
}

// Admit returns a KindAlgorithmNotAllowed error unless alg is on the
// allow-list. It is the check VerifyToken runs before touching any key.
func (p Policy) Admit(alg string) error {
	if !p.Allows(alg) {
		return failure.New(failure.KindAlgorithmNotAllowed, alg)
	}
	return nil
}

// Validate reports policy mistakes that would make every verification fail or
// that weaken it. VerifyToken does not call Validate; Builder.Build does.
func (p Policy) Validate() error {
	if len(p.AllowedAlgorithms) == 0 {
		return errors.New("policy AllowedAlgorithms must not be empty")
	}
	for _, a := range p.AllowedAlgorithms {
		s, ok := algorithm.Resolve(a)
		if !ok {
			return fmt.Errorf("policy lists unknown algorithm %q", a)
		}
		if s.Refuses() {
			return fmt.Errorf("policy lists refused algorithm %q", a)
		}
	}
	if p.ClockSkew < 0 {
		return errors.New("policy ClockSkew must be >= 0")
	}
	for _, aud := range p.ExpectedAudience {
		if aud == "" {
			return errors.New("policy ExpectedAudience must not contain empty values")
		}
	}
	for _, name := range p.RequiredClaims {
		if name == "" {
			return errors.New("policy RequiredClaims must not contain empty names")
		}
	}
	return nil
}

// Families returns the key families the allow-list needs, in allow-list order.
func (p Policy) Families() []algorithm.Family {
	seen := make(map[algorithm.Family]bool, 4)
	var out []algorithm.Family
	for _, a := range p.AllowedAlgorithms {
		s, ok := algorithm.Resolve(a)
		if !ok || s.Refuses() || seen[s.Family()] {
			continue
		}
		seen[s.Family()] = true
		out = append(out, s.Family())
	}
	return out
}

func (p Policy) rules() claims.Rules {
	return claims.Rules{
		Issuer:            p.ExpectedIssuer,
		Audience:          p.ExpectedAudience,
		ClockSkew:         p.ClockSkew,
		RequireExpiration: p.RequireExpiration,
		RequireIssuedAt:   p.RequireIssuedAt,
		Required:          p.RequiredClaims,
	}
}

func clonePolicy(p Policy) Policy {
	out := p
	out.AllowedAlgorithms = append([]algorithm.ID(nil), p.AllowedAlgorithms...)
	out.ExpectedAudience = append([]string(nil), p.ExpectedAudience...)
	out.RequiredClaims = append([]string(nil), p.RequiredClaims...)
	return out
}

// Package claims validates the registered time, issuer, and audience claims
// of an already signature-checked payload.
package claims

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/MrEthical07/goVerify/internal/failure"
)

// Registered claim names.
const (
	Issuer     = "iss"
	Subject    = "sub"
	Audience   = "aud"
	Expiration = "exp"
	NotBefore  = "nbf"
	IssuedAt   = "iat"
	JWTID      = "jti"
)

// maxSeconds bounds NumericDate values so the conversion to time.Time cannot
// overflow. Larger values are clamped; they are far beyond any real deadline.
const maxSeconds = 1 << 53

// Rules is the claim-level part of a verification policy.
type Rules struct {
	// Issuer, when non-empty, must equal iss exactly.
	Issuer string
	// Audience, when non-empty, must share at least one value with aud.
	Audience []string
	// ClockSkew widens every time comparison by this amount.
	ClockSkew time.Duration

	RequireExpiration bool
	RequireIssuedAt   bool
	// Required lists claim names that must be present and non-null.
	Required []string
}

type check func(payload map[string]any, rules Rules, now time.Time) error

// order is fixed: exp, nbf, iat, iss, aud, then required claims.
var order = [...]check{
	checkExpiration,
	checkNotBefore,
	checkIssuedAt,
	checkIssuer,
	checkAudience,
	checkRequired,
}

// Validate runs every check and returns the first failure in the fixed order,
// or nil when the payload satisfies rules.
func Validate(payload map[string]any, rules Rules, now time.Time) error {
	var first error
	for _, c := range order {
		if err := c(payload, rules, now); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ValidateAll runs every check and reports all failures, in the same order
// Validate uses. It returns nil when nothing failed.
func ValidateAll(payload map[string]any, rules Rules, now time.Time) error {
	var result *multierror.Error
	for _, c := range order {
		if err := c(payload, rules, now); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Failures flattens the error returned by ValidateAll.
func Failures(err error) []error {
	if err == nil {
		return nil
	}
	if merr, ok := err.(*multierror.Error); ok {
		return merr.WrappedErrors()
	}
	return []error{err}
}

func checkExpiration(payload map[string]any, rules Rules, now time.Time) error {
	exp, present, err := NumericDate(payload, Expiration)
	if err != nil {
		return err
	}
	if !present {
		if rules.RequireExpiration {
			return failure.New(failure.KindMissingClaim, Expiration)
		}
		return nil
	}
	if now.After(exp.Add(rules.ClockSkew)) {
		return failure.New(failure.KindExpired, "expired at "+exp.UTC().Format(time.RFC3339))
	}
	return nil
}

func checkNotBefore(payload map[string]any, rules Rules, now time.Time) error {
	nbf, present, err := NumericDate(payload, NotBefore)
	if err != nil || !present {
		return err
	}
	if now.Before(nbf.Add(-rules.ClockSkew)) {
		return failure.New(failure.KindNotYetValid, "valid from "+nbf.UTC().Format(time.RFC3339))
	}
	return nil
}

func checkIssuedAt(payload map[string]any, rules Rules, now time.Time) error {
	iat, present, err := NumericDate(payload, IssuedAt)
	if err != nil {
		return err
	}
	if !present {
		if rules.RequireIssuedAt {
			return failure.New(failure.KindMissingClaim, IssuedAt)
		}
		return nil
	}
	if iat.After(now.Add(rules.ClockSkew)) {
		return failure.New(failure.KindIssuedInFuture, "issued at "+iat.UTC().Format(time.RFC3339))
	}
	return nil
}

func checkIssuer(payload map[string]any, rules Rules, _ time.Time) error {
	if rules.Issuer == "" {
		return nil
	}
	raw, ok := payload[Issuer]
	if !ok || raw == nil {
		return failure.New(failure.KindIssuerMismatch, "iss absent")
	}
	iss, ok := raw.(string)
	if !ok {
		return failure.New(failure.KindMalformedClaim, "iss must be a string")
	}
	if iss != rules.Issuer {
		return failure.New(failure.KindIssuerMismatch, strconv.Quote(iss))
	}
	return nil
}

func checkAudience(payload map[string]any, rules Rules, _ time.Time) error {
	if len(rules.Audience) == 0 {
		return nil
	}
	aud, present, err := Audiences(payload)
	if err != nil {
		return err
	}
	if !present {
		return failure.New(failure.KindAudienceMismatch, "aud absent")
	}
	for _, want := range rules.Audience {
		for _, got := range aud {
			if got == want {
				return nil
			}
		}
	}
	return failure.New(failure.KindAudienceMismatch, "no expected audience present")
}

func checkRequired(payload map[string]any, rules Rules, _ time.Time) error {
	for _, name := range rules.Required {
		if v, ok := payload[name]; !ok || v == nil {
			return failure.New(failure.KindMissingClaim, name)
		}
	}
	return nil
}

// NumericDate reads a NumericDate claim. present is false when the claim is
// absent or JSON null. Non-numeric values fail with KindMalformedClaim.
func NumericDate(payload map[string]any, name string) (t time.Time, present bool, err error) {
	raw, ok := payload[name]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}
	var secs float64
	switch v := raw.(type) {
	case json.Number:
		secs, err = v.Float64()
		if err != nil {
			return time.Time{}, true, failure.Wrap(failure.KindMalformedClaim, name, err)
		}
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	default:
		return time.Time{}, true, failure.New(failure.KindMalformedClaim, name+" must be a number")
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, true, failure.New(failure.KindMalformedClaim, name+" must be finite")
	}
	secs = math.Max(-maxSeconds, math.Min(maxSeconds, secs))
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), true, nil
}

// Audiences reads aud as a list. A single string becomes a one-element list.
// present is false when aud is absent or JSON null.
func Audiences(payload map[string]any) (aud []string, present bool, err error) {
	raw, ok := payload[Audience]
	if !ok || raw == nil {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}, true, nil
	case []string:
		return v, true, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, true, failure.New(failure.KindMalformedClaim, "aud entries must be strings")
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, true, failure.New(failure.KindMalformedClaim, "aud must be a string or array of strings")
	}
}

package failure

import (
	"errors"
	"fmt"
)

// Kind identifies why a token was rejected. The set is closed; callers
// switch on it to separate security-relevant outcomes.
type Kind uint8

const (
	// KindNone is the zero value and never attached to a returned error.
	KindNone Kind = iota
	KindStructure
	KindMalformedEncoding
	KindInvalidJSON
	KindUnknownAlgorithm
	KindAlgorithmNotAllowed
	KindKeyMismatch
	KindSignatureInvalid
	KindExpired
	KindNotYetValid
	KindIssuedInFuture
	KindMissingClaim
	KindIssuerMismatch
	KindAudienceMismatch
	KindMalformedClaim
	kindCount
)

var kindNames = [kindCount]string{
	KindNone:                "none",
	KindStructure:           "structure_error",
	KindMalformedEncoding:   "malformed_encoding",
	KindInvalidJSON:         "invalid_json",
	KindUnknownAlgorithm:    "unknown_algorithm",
	KindAlgorithmNotAllowed: "algorithm_not_allowed",
	KindKeyMismatch:         "key_mismatch",
	KindSignatureInvalid:    "signature_invalid",
	KindExpired:             "expired",
	KindNotYetValid:         "not_yet_valid",
	KindIssuedInFuture:      "issued_in_future",
	KindMissingClaim:        "missing_claim",
	KindIssuerMismatch:      "issuer_mismatch",
	KindAudienceMismatch:    "audience_mismatch",
	KindMalformedClaim:      "malformed_claim",
}

// String returns the stable snake_case name of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Kinds returns every failure kind in declaration order, excluding KindNone.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindStructure; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Sentinel values, one per kind, for errors.Is comparisons.
var (
	ErrStructure           = errors.New("token structure invalid")
	ErrMalformedEncoding   = errors.New("token segment encoding malformed")
	ErrInvalidJSON         = errors.New("token segment is not a valid JSON object")
	ErrUnknownAlgorithm    = errors.New("unknown signing algorithm")
	ErrAlgorithmNotAllowed = errors.New("signing algorithm not allowed")
	ErrKeyMismatch         = errors.New("key does not match algorithm")
	ErrSignatureInvalid    = errors.New("signature invalid")
	ErrExpired             = errors.New("token expired")
	ErrNotYetValid         = errors.New("token not yet valid")
	ErrIssuedInFuture      = errors.New("token issued in the future")
	ErrMissingClaim        = errors.New("required claim missing")
	ErrIssuerMismatch      = errors.New("issuer mismatch")
	ErrAudienceMismatch    = errors.New("audience mismatch")
	ErrMalformedClaim      = errors.New("claim has unexpected type")
)

var sentinels = [kindCount]error{
	KindStructure:           ErrStructure,
	KindMalformedEncoding:   ErrMalformedEncoding,
	KindInvalidJSON:         ErrInvalidJSON,
	KindUnknownAlgorithm:    ErrUnknownAlgorithm,
	KindAlgorithmNotAllowed: ErrAlgorithmNotAllowed,
	KindKeyMismatch:         ErrKeyMismatch,
	KindSignatureInvalid:    ErrSignatureInvalid,
	KindExpired:             ErrExpired,
	KindNotYetValid:         ErrNotYetValid,
	KindIssuedInFuture:      ErrIssuedInFuture,
	KindMissingClaim:        ErrMissingClaim,
	KindIssuerMismatch:      ErrIssuerMismatch,
	KindAudienceMismatch:    ErrAudienceMismatch,
	KindMalformedClaim:      ErrMalformedClaim,
}

// Sentinel returns the package-level error value for k, or nil for KindNone.
func Sentinel(k Kind) error {
	if k >= kindCount {
		return nil
	}
	return sentinels[k]
}

// Error is the only error type produced by the verification core.
type Error struct {
	Kind Kind
	// Detail is a short human-readable qualifier, e.g. the claim name.
	Detail string
	// Cause is the underlying library error, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := Sentinel(e.Kind); s != nil {
		msg = s.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause so library errors remain inspectable.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the same kind and other *Error values of the same kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if s := Sentinel(e.Kind); s != nil && target == s {
		return true
	}
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds an *Error of kind k.
func New(k Kind, detail string) *Error {
	return &Error{Kind: k, Detail: detail}
}

// Wrap builds an *Error of kind k around cause.
func Wrap(k Kind, detail string, cause error) *Error {
	return &Error{Kind: k, Detail: detail, Cause: cause}
}

// KindOf returns the kind carried by err, or KindNone when err is nil or foreign.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

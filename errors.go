package goVerify

import (
	"errors"

	"github.com/MrEthical07/goVerify/internal/failure"
)

// Kind identifies why verification failed. See the Kind constants.
type Kind = failure.Kind

// VerificationError is the error type returned by VerifyToken. Its Kind is
// always one of the Kind constants below.
type VerificationError = failure.Error

// Failure kinds returned by VerifyToken.
const (
	KindStructure           = failure.KindStructure
	KindMalformedEncoding   = failure.KindMalformedEncoding
	KindInvalidJSON         = failure.KindInvalidJSON
	KindUnknownAlgorithm    = failure.KindUnknownAlgorithm
	KindAlgorithmNotAllowed = failure.KindAlgorithmNotAllowed
	KindKeyMismatch         = failure.KindKeyMismatch
	KindSignatureInvalid    = failure.KindSignatureInvalid
	KindExpired             = failure.KindExpired
	KindNotYetValid         = failure.KindNotYetValid
	KindIssuedInFuture      = failure.KindIssuedInFuture
	KindMissingClaim        = failure.KindMissingClaim
	KindIssuerMismatch      = failure.KindIssuerMismatch
	KindAudienceMismatch    = failure.KindAudienceMismatch
	KindMalformedClaim      = failure.KindMalformedClaim
)

// Sentinels for errors.Is, one per Kind.
var (
	ErrStructure           = failure.ErrStructure
	ErrMalformedEncoding   = failure.ErrMalformedEncoding
	ErrInvalidJSON         = failure.ErrInvalidJSON
	ErrUnknownAlgorithm    = failure.ErrUnknownAlgorithm
	ErrAlgorithmNotAllowed = failure.ErrAlgorithmNotAllowed
	ErrKeyMismatch         = failure.ErrKeyMismatch
	ErrSignatureInvalid    = failure.ErrSignatureInvalid
	ErrExpired             = failure.ErrExpired
	ErrNotYetValid         = failure.ErrNotYetValid
	ErrIssuedInFuture      = failure.ErrIssuedInFuture
	ErrMissingClaim        = failure.ErrMissingClaim
	ErrIssuerMismatch      = failure.ErrIssuerMismatch
	ErrAudienceMismatch    = failure.ErrAudienceMismatch
	ErrMalformedClaim      = failure.ErrMalformedClaim
)

// Errors produced only by Verifier, never by VerifyToken.
var (
	// ErrVerifierNotReady is returned when a nil or unbuilt Verifier is used.
	ErrVerifierNotReady = errors.New("verifier not initialized")
	// ErrUnknownKeyID is returned when the token kid selects no configured key.
	ErrUnknownKeyID = errors.New("no key for token kid")
	// ErrTokenRevoked is returned when the token jti is on the revocation list.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRevocationUnavailable is returned when the revocation backend fails
	// and the Verifier is configured to fail closed.
	ErrRevocationUnavailable = errors.New("revocation backend unavailable")
)

// KindOf returns the failure kind carried by err. Errors that did not come
// from the verification core report the zero Kind.
func KindOf(err error) Kind {
	return failure.KindOf(err)
}

// Kinds lists every failure kind.
func Kinds() []Kind {
	return failure.Kinds()
}

package algorithm

import (
	"crypto"
	"crypto/elliptic"

	"github.com/golang-jwt/jwt/v5"
)

// ID is an algorithm identifier as it appears in the token header "alg" field.
type ID string

const (
	HS256 ID = "HS256"
	HS384 ID = "HS384"
	HS512 ID = "HS512"
	RS256 ID = "RS256"
	RS384 ID = "RS384"
	RS512 ID = "RS512"
	PS256 ID = "PS256"
	PS384 ID = "PS384"
	PS512 ID = "PS512"
	ES256 ID = "ES256"
	ES384 ID = "ES384"
	ES512 ID = "ES512"
	EdDSA ID = "EdDSA"
	// None is recognized only so it can be refused.
	None ID = "none"
)

// Family is the kind of key material an algorithm requires.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyHMAC
	FamilyRSA
	FamilyECDSA
	FamilyEdDSA
)

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "hmac"
	case FamilyRSA:
		return "rsa"
	case FamilyECDSA:
		return "ecdsa"
	case FamilyEdDSA:
		return "eddsa"
	default:
		return "unknown"
	}
}

// Symmetric reports whether keys of this family are shared secrets.
func (f Family) Symmetric() bool {
	return f == FamilyHMAC
}

// Strategy describes how one algorithm is verified. Values are only obtained
// from Resolve and are immutable.
type Strategy struct {
	id     ID
	family Family
	hash   crypto.Hash
	curve  elliptic.Curve
	// sigSize is the exact signature length when the algorithm fixes it,
	// zero when it depends on the key (RSA).
	sigSize int
	method  jwt.SigningMethod
	refuse  bool
}

// ID returns the algorithm identifier.
func (s Strategy) ID() ID { return s.id }

// Family returns the key family the algorithm requires.
func (s Strategy) Family() Family { return s.family }

// Hash returns the digest the algorithm uses, zero for EdDSA and none.
func (s Strategy) Hash() crypto.Hash { return s.hash }

// Curve returns the required elliptic curve for ECDSA algorithms, nil otherwise.
func (s Strategy) Curve() elliptic.Curve { return s.curve }

// SignatureSize returns the fixed signature length in bytes, or 0 when the
// length is determined by the key.
func (s Strategy) SignatureSize() int { return s.sigSize }

// Refuses reports whether the strategy rejects every token. Only "none" does.
func (s Strategy) Refuses() bool { return s.refuse }

// Method returns the primitive used to check signatures. It is nil for "none".
func (s Strategy) Method() jwt.SigningMethod { return s.method }

// table is populated once at package init and never written afterwards.
var table = map[ID]Strategy{
	HS256: {id: HS256, family: FamilyHMAC, hash: crypto.SHA256, sigSize: 32, method: jwt.SigningMethodHS256},
	HS384: {id: HS384, family: FamilyHMAC, hash: crypto.SHA384, sigSize: 48, method: jwt.SigningMethodHS384},
	HS512: {id: HS512, family: FamilyHMAC, hash: crypto.SHA512, sigSize: 64, method: jwt.SigningMethodHS512},

	RS256: {id: RS256, family: FamilyRSA, hash: crypto.SHA256, method: jwt.SigningMethodRS256},
	RS384: {id: RS384, family: FamilyRSA, hash: crypto.SHA384, method: jwt.SigningMethodRS384},
	RS512: {id: RS512, family: FamilyRSA, hash: crypto.SHA512, method: jwt.SigningMethodRS512},

	PS256: {id: PS256, family: FamilyRSA, hash: crypto.SHA256, method: jwt.SigningMethodPS256},
	PS384: {id: PS384, family: FamilyRSA, hash: crypto.SHA384, method: jwt.SigningMethodPS384},
	PS512: {id: PS512, family: FamilyRSA, hash: crypto.SHA512, method: jwt.SigningMethodPS512},

	ES256: {id: ES256, family: FamilyECDSA, hash: crypto.SHA256, curve: elliptic.P256(), sigSize: 64, method: jwt.SigningMethodES256},
	ES384: {id: ES384, family: FamilyECDSA, hash: crypto.SHA384, curve: elliptic.P384(), sigSize: 96, method: jwt.SigningMethodES384},
	ES512: {id: ES512, family: FamilyECDSA, hash: crypto.SHA512, curve: elliptic.P521(), sigSize: 132, method: jwt.SigningMethodES512},

	EdDSA: {id: EdDSA, family: FamilyEdDSA, sigSize: 64, method: jwt.SigningMethodEdDSA},

	None: {id: None, refuse: true},
}

// Resolve returns the strategy registered for id. The lookup is exact and
// case-sensitive; ok is false for anything outside the fixed table.
func Resolve(id ID) (Strategy, bool) {
	s, ok := table[id]
	return s, ok
}

// Supported returns every identifier that can verify a signature, in a stable
// order. "none" is not included.
func Supported() []ID {
	return []ID{HS256, HS384, HS512, RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512, EdDSA}
}

package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"

	"github.com/MrEthical07/goVerify/algorithm"
)

var (
	ErrEmptySecret      = errors.New("hmac secret is empty")
	ErrNilPublicKey     = errors.New("public key is nil")
	ErrInvalidPublicKey = errors.New("public key is malformed")
	ErrUnsupportedKey   = errors.New("unsupported key type")
	ErrPrivateKeyOnly   = errors.New("key material is private; supply the public half")
	ErrDuplicateKeyID   = errors.New("duplicate key id")
	ErrEmptyKeySet      = errors.New("key set is empty")
	ErrAmbiguousDefault = errors.New("key set has several keys and no default")
)

// Material is verification key material tagged with its algorithm family.
// Exactly one of the key fields is set, matching Family.
type Material struct {
	Family algorithm.Family
	// ID is the optional key identifier matched against the token "kid".
	ID string

	Secret  []byte
	RSA     *rsa.PublicKey
	ECDSA   *ecdsa.PublicKey
	Ed25519 ed25519.PublicKey
}

// HMAC returns symmetric key material. The secret is copied.
func HMAC(secret []byte) (Material, error) {
	if len(secret) == 0 {
		return Material{}, ErrEmptySecret
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return Material{Family: algorithm.FamilyHMAC, Secret: cp}, nil
}

// RSA returns RSA public key material.
func RSA(pub *rsa.PublicKey) (Material, error) {
	if pub == nil {
		return Material{}, ErrNilPublicKey
	}
	return Material{Family: algorithm.FamilyRSA, RSA: pub}, nil
}

// ECDSA returns ECDSA public key material.
func ECDSA(pub *ecdsa.PublicKey) (Material, error) {
	if pub == nil {
		return Material{}, ErrNilPublicKey
	}
	return Material{Family: algorithm.FamilyECDSA, ECDSA: pub}, nil
}

// Ed25519 returns Ed25519 public key material.
func Ed25519(pub ed25519.PublicKey) (Material, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Material{}, ErrInvalidPublicKey
	}
	return Material{Family: algorithm.FamilyEdDSA, Ed25519: pub}, nil
}

// FromPublic wraps a parsed public key of any supported type.
func FromPublic(pub any) (Material, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return RSA(k)
	case *ecdsa.PublicKey:
		return ECDSA(k)
	case ed25519.PublicKey:
		return Ed25519(k)
	case []byte:
		return HMAC(k)
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		return Material{}, ErrPrivateKeyOnly
	default:
		return Material{}, ErrUnsupportedKey
	}
}

// WithID returns a copy of m carrying the given key id.
func (m Material) WithID(id string) Material {
	m.ID = id
	return m
}

// VerifyKey returns the value a signing primitive expects for this family,
// or nil when the material is empty.
func (m Material) VerifyKey() any {
	switch m.Family {
	case algorithm.FamilyHMAC:
		if len(m.Secret) == 0 {
			return nil
		}
		return m.Secret
	case algorithm.FamilyRSA:
		if m.RSA == nil {
			return nil
		}
		return m.RSA
	case algorithm.FamilyECDSA:
		if m.ECDSA == nil {
			return nil
		}
		return m.ECDSA
	case algorithm.FamilyEdDSA:
		if len(m.Ed25519) == 0 {
			return nil
		}
		return m.Ed25519
	default:
		return nil
	}
}

package keys

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// FromJWK parses a single JSON Web Key. Private keys are reduced to their
// public half; "oct" keys become HMAC secrets. The JWK "kid" is carried over.
func FromJWK(data []byte) (Material, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return Material{}, fmt.Errorf("parse jwk: %w", err)
	}
	return fromJWKKey(key)
}

// SetFromJWKS parses a JWK Set document that the caller already holds. It
// never fetches anything. Every key must carry a distinct "kid".
func SetFromJWKS(data []byte) (*Set, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}

	materials := make([]Material, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		m, err := fromJWKKey(key)
		if err != nil {
			return nil, fmt.Errorf("jwks key %d: %w", i, err)
		}
		materials = append(materials, m)
	}
	return NewSet(materials...)
}

func fromJWKKey(key jwk.Key) (Material, error) {
	raw, err := jwk.PublicRawKeyOf(key)
	if err != nil {
		return Material{}, fmt.Errorf("jwk public key: %w", err)
	}
	m, err := FromPublic(raw)
	if err != nil {
		return Material{}, err
	}
	return m.WithID(key.KeyID()), nil
}

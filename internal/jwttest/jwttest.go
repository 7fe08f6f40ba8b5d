// Package jwttest mints signed tokens for tests. Issuing tokens is not part of
// the verifier; this package exists only so tests can produce real fixtures.
package jwttest

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/b64"
	"github.com/MrEthical07/goVerify/keys"
)

// Keys holds one private key per family.
type Keys struct {
	Secret []byte
	RSA    *rsa.PrivateKey
	P256   *ecdsa.PrivateKey
	P384   *ecdsa.PrivateKey
	P521   *ecdsa.PrivateKey
	Ed     ed25519.PrivateKey
}

var (
	sharedOnce sync.Once
	shared     *Keys
	sharedErr  error
)

// SharedKeys returns process-wide fixture keys; RSA generation is slow enough
// that tests share one set.
func SharedKeys(t testing.TB) *Keys {
	t.Helper()
	sharedOnce.Do(func() {
		shared, sharedErr = generate()
	})
	if sharedErr != nil {
		t.Fatalf("generate fixture keys: %v", sharedErr)
	}
	return shared
}

func generate() (*Keys, error) {
	k := &Keys{Secret: []byte("fixture-secret-with-enough-entropy-0123456789")}
	var err error
	if k.RSA, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
		return nil, err
	}
	if k.P256, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader); err != nil {
		return nil, err
	}
	if k.P384, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader); err != nil {
		return nil, err
	}
	if k.P521, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader); err != nil {
		return nil, err
	}
	if _, k.Ed, err = ed25519.GenerateKey(rand.Reader); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keys) signingKey(alg algorithm.ID) any {
	switch alg {
	case algorithm.HS256, algorithm.HS384, algorithm.HS512:
		return k.Secret
	case algorithm.RS256, algorithm.RS384, algorithm.RS512, algorithm.PS256, algorithm.PS384, algorithm.PS512:
		return k.RSA
	case algorithm.ES256:
		return k.P256
	case algorithm.ES384:
		return k.P384
	case algorithm.ES512:
		return k.P521
	case algorithm.EdDSA:
		return k.Ed
	default:
		return nil
	}
}

// Public returns the verification material matching alg.
func (k *Keys) Public(t testing.TB, alg algorithm.ID) keys.Material {
	t.Helper()
	var (
		m   keys.Material
		err error
	)
	switch key := k.signingKey(alg).(type) {
	case []byte:
		m, err = keys.HMAC(key)
	case *rsa.PrivateKey:
		m, err = keys.RSA(&key.PublicKey)
	case *ecdsa.PrivateKey:
		m, err = keys.ECDSA(&key.PublicKey)
	case ed25519.PrivateKey:
		m, err = keys.Ed25519(key.Public().(ed25519.PublicKey))
	default:
		t.Fatalf("no fixture key for %s", alg)
	}
	if err != nil {
		t.Fatalf("build material for %s: %v", alg, err)
	}
	return m
}

// Sign mints a token with the given claims and extra header fields.
func (k *Keys) Sign(t testing.TB, alg algorithm.ID, claims map[string]any, header map[string]any) string {
	t.Helper()
	s, ok := algorithm.Resolve(alg)
	if !ok || s.Method() == nil {
		t.Fatalf("cannot sign with %s", alg)
	}
	tok := jwt.NewWithClaims(s.Method(), jwt.MapClaims(claims))
	for name, v := range header {
		tok.Header[name] = v
	}
	out, err := tok.SignedString(k.signingKey(alg))
	if err != nil {
		t.Fatalf("sign %s: %v", alg, err)
	}
	return out
}

// SignRaw signs the exact header and payload JSON text given, without
// re-encoding, so tests control the payload bytes.
func (k *Keys) SignRaw(t testing.TB, alg algorithm.ID, headerJSON, payloadJSON string) string {
	t.Helper()
	s, ok := algorithm.Resolve(alg)
	if !ok || s.Method() == nil {
		t.Fatalf("cannot sign with %s", alg)
	}
	input := b64.Encode([]byte(headerJSON)) + "." + b64.Encode([]byte(payloadJSON))
	sig, err := s.Method().Sign(input, k.signingKey(alg))
	if err != nil {
		t.Fatalf("sign %s: %v", alg, err)
	}
	return input + "." + b64.Encode(sig)
}

// Unsecured builds an alg "none" token with a non-empty placeholder
// signature, the shape a downgrade attacker would send.
func Unsecured(t testing.TB, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return b64.Encode([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + b64.Encode(payload) + "." + b64.Encode([]byte("x"))
}

// Forge re-signs a token with HMAC using secret while claiming alg, the
// classic key-confusion shape (e.g. alg HS256 with an RSA public key as the secret).
func Forge(t testing.TB, alg algorithm.ID, secret []byte, claims map[string]any) string {
	t.Helper()
	s, ok := algorithm.Resolve(alg)
	if !ok || s.Family() != algorithm.FamilyHMAC {
		t.Fatalf("forge needs an hmac algorithm, got %s", alg)
	}
	tok := jwt.NewWithClaims(s.Method(), jwt.MapClaims(claims))
	out, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("forge %s: %v", alg, err)
	}
	return out
}

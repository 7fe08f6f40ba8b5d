package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/compact"
	"github.com/MrEthical07/goVerify/internal/failure"
	"github.com/MrEthical07/goVerify/internal/jwttest"
	"github.com/MrEthical07/goVerify/keys"
)

func parse(t *testing.T, token string) *compact.Token {
	t.Helper()
	tok, err := compact.Parse(token)
	require.NoError(t, err)
	return tok
}

func TestVerifyAcceptsEverySupportedAlgorithm(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	for _, alg := range algorithm.Supported() {
		t.Run(string(alg), func(t *testing.T) {
			tok := parse(t, fx.Sign(t, alg, map[string]any{"sub": "alice"}, nil))
			err := Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, fx.Public(t, alg))
			require.NoError(t, err)
		})
	}
}

func TestVerifyRejectsEverySingleByteFlip(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	for _, alg := range []algorithm.ID{algorithm.HS256, algorithm.ES256, algorithm.EdDSA} {
		tok := parse(t, fx.Sign(t, alg, map[string]any{"sub": "alice"}, nil))
		key := fx.Public(t, alg)
		for i := range tok.Signature {
			sig := append([]byte(nil), tok.Signature...)
			sig[i] ^= 0x01
			err := Verify(tok.Algorithm(), tok.SigningInput(), sig, key)
			require.ErrorIs(t, err, failure.ErrSignatureInvalid, "%s byte %d", alg, i)
		}
	}
}

func TestVerifyRejectsTruncatedSignature(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	for _, alg := range []algorithm.ID{algorithm.HS512, algorithm.RS256, algorithm.PS256, algorithm.ES384} {
		tok := parse(t, fx.Sign(t, alg, map[string]any{"sub": "alice"}, nil))
		err := Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature[:len(tok.Signature)-1], fx.Public(t, alg))
		assert.ErrorIs(t, err, failure.ErrSignatureInvalid, alg)
	}
}

func TestVerifyRejectsTamperedSigningInput(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	tok := parse(t, fx.Sign(t, algorithm.RS256, map[string]any{"sub": "alice"}, nil))
	err := Verify(tok.Algorithm(), tok.SigningInput()+"x", tok.Signature, fx.Public(t, algorithm.RS256))
	assert.ErrorIs(t, err, failure.ErrSignatureInvalid)
}

func TestVerifyUnknownAndNone(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.HS256)

	err := Verify("HS1024", "a.b", []byte("sig"), key)
	assert.ErrorIs(t, err, failure.ErrUnknownAlgorithm)

	err = Verify("none", "a.b", []byte("sig"), key)
	assert.ErrorIs(t, err, failure.ErrAlgorithmNotAllowed)

	err = Verify("none", "a.b", nil, keys.Material{})
	assert.ErrorIs(t, err, failure.ErrAlgorithmNotAllowed)
}

func TestVerifyKeyFamilyMismatch(t *testing.T) {
	fx := jwttest.SharedKeys(t)

	// HMAC header verified against an RSA public key must never succeed.
	der, err := x509.MarshalPKIXPublicKey(&fx.RSA.PublicKey)
	require.NoError(t, err)
	forged := parse(t, jwttest.Forge(t, algorithm.HS256, der, map[string]any{"sub": "mallory"}))
	err = Verify(forged.Algorithm(), forged.SigningInput(), forged.Signature, fx.Public(t, algorithm.RS256))
	assert.ErrorIs(t, err, failure.ErrKeyMismatch)

	// RSA header with a symmetric secret.
	tok := parse(t, fx.Sign(t, algorithm.RS256, map[string]any{"sub": "alice"}, nil))
	err = Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, fx.Public(t, algorithm.HS256))
	assert.ErrorIs(t, err, failure.ErrKeyMismatch)

	// Empty material.
	err = Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, keys.Material{})
	assert.ErrorIs(t, err, failure.ErrKeyMismatch)

	// Family tag set but key absent.
	err = Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, keys.Material{Family: algorithm.FamilyRSA})
	assert.ErrorIs(t, err, failure.ErrKeyMismatch)
}

func TestVerifyECDSACurveMismatch(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	tok := parse(t, fx.Sign(t, algorithm.ES256, map[string]any{"sub": "alice"}, nil))

	other, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	m, err := keys.ECDSA(&other.PublicKey)
	require.NoError(t, err)

	err = Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, m)
	assert.ErrorIs(t, err, failure.ErrKeyMismatch)
}

func TestVerifyWrongKeySameFamily(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	tok := parse(t, fx.Sign(t, algorithm.HS256, map[string]any{"sub": "alice"}, nil))
	other, err := keys.HMAC([]byte("another-secret"))
	require.NoError(t, err)

	err = Verify(tok.Algorithm(), tok.SigningInput(), tok.Signature, other)
	assert.ErrorIs(t, err, failure.ErrSignatureInvalid)
}

package goVerify

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/b64"
	"github.com/MrEthical07/goVerify/internal/jwttest"
	"github.com/MrEthical07/goVerify/keys"
)

var testNow = time.Unix(1_700_000_000, 0)

func testPolicy(algs ...algorithm.ID) Policy {
	return Policy{AllowedAlgorithms: algs}
}

func validClaims() map[string]any {
	return map[string]any{
		"sub":    "alice",
		"iss":    "https://issuer.example",
		"aud":    []any{"web", "api"},
		"exp":    testNow.Add(time.Hour).Unix(),
		"iat":    testNow.Add(-time.Minute).Unix(),
		"tenant": "acme",
		"roles":  []any{"admin", "ops"},
	}
}

func TestVerifyTokenRoundTripEveryAlgorithm(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	for _, alg := range algorithm.Supported() {
		t.Run(string(alg), func(t *testing.T) {
			in := validClaims()
			token := fx.Sign(t, alg, in, nil)

			got, err := VerifyToken(token, fx.Public(t, alg), testPolicy(alg), testNow)
			require.NoError(t, err)

			// Compare through JSON so json.Number and int64 line up.
			want, err := json.Marshal(in)
			require.NoError(t, err)
			have, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(have))

			m := got.Map()
			assert.Len(t, m, len(in))
			assert.Equal(t, "acme", m["tenant"])
			m["tenant"] = "other"
			delete(m, "sub")
			assert.Equal(t, "acme", got.String("tenant"))

			assert.Equal(t, "alice", got.Subject())
			assert.Equal(t, "https://issuer.example", got.Issuer())
			assert.Equal(t, []string{"web", "api"}, got.Audience())
			exp, ok := got.ExpiresAt()
			require.True(t, ok)
			assert.True(t, exp.Equal(testNow.Add(time.Hour)))
		})
	}
}

func TestVerifyTokenSignatureByteFlip(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	for _, alg := range []algorithm.ID{algorithm.HS256, algorithm.RS256, algorithm.ES256, algorithm.EdDSA} {
		token := fx.Sign(t, alg, validClaims(), nil)
		dot := strings.LastIndexByte(token, '.')
		sig, err := b64.Decode(token[dot+1:])
		require.NoError(t, err)

		for i := range sig {
			tampered := append([]byte(nil), sig...)
			tampered[i] ^= 0x80
			forged := token[:dot+1] + b64.Encode(tampered)

			_, err := VerifyToken(forged, fx.Public(t, alg), testPolicy(alg), testNow)
			if !errors.Is(err, ErrSignatureInvalid) {
				t.Fatalf("%s byte %d: expected ErrSignatureInvalid, got %v", alg, i, err)
			}
		}
	}
}

func TestVerifyTokenNoneAlwaysRejected(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	token := jwttest.Unsecured(t, validClaims())

	policies := []Policy{
		testPolicy(algorithm.HS256),
		testPolicy(algorithm.None),
		testPolicy(algorithm.None, algorithm.HS256),
		{},
	}
	for _, p := range policies {
		_, err := VerifyToken(token, fx.Public(t, algorithm.HS256), p, testNow)
		if KindOf(err) != KindAlgorithmNotAllowed {
			t.Fatalf("policy %v: expected algorithm_not_allowed, got %v", p.AllowedAlgorithms, err)
		}
	}

	// Two-segment unsecured form never reaches algorithm handling.
	twoSeg := token[:strings.LastIndexByte(token, '.')]
	_, err := VerifyToken(twoSeg, fx.Public(t, algorithm.HS256), testPolicy(algorithm.None), testNow)
	assert.ErrorIs(t, err, ErrStructure)

	// Trailing dot with empty signature is structurally invalid too.
	_, err = VerifyToken(twoSeg+".", fx.Public(t, algorithm.HS256), testPolicy(algorithm.None), testNow)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestVerifyTokenAlgorithmConfusion(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	der, err := x509.MarshalPKIXPublicKey(&fx.RSA.PublicKey)
	require.NoError(t, err)

	forged := jwttest.Forge(t, algorithm.HS256, der, validClaims())
	rsaKey := fx.Public(t, algorithm.RS256)

	_, err = VerifyToken(forged, rsaKey, testPolicy(algorithm.HS256, algorithm.RS256), testNow)
	assert.ErrorIs(t, err, ErrKeyMismatch)

	_, err = VerifyToken(forged, rsaKey, testPolicy(algorithm.RS256), testNow)
	assert.ErrorIs(t, err, ErrAlgorithmNotAllowed, "allow-list runs before key checks")
}

func TestVerifyTokenAllowListBeforeSignature(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	token := fx.Sign(t, algorithm.HS512, validClaims(), nil)

	_, err := VerifyToken(token, fx.Public(t, algorithm.HS512), testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrAlgorithmNotAllowed)

	_, err = VerifyToken(token, fx.Public(t, algorithm.HS512), Policy{}, testNow)
	assert.ErrorIs(t, err, ErrAlgorithmNotAllowed, "empty allow-list allows nothing")

	unknown := fx.SignRaw(t, algorithm.HS256, `{"alg":"HS999"}`, `{"sub":"alice"}`)
	_, err = VerifyToken(unknown, fx.Public(t, algorithm.HS256), testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrAlgorithmNotAllowed)

	_, err = VerifyToken(unknown, fx.Public(t, algorithm.HS256), testPolicy("HS999"), testNow)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestVerifyTokenExpiryBoundary(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.HS256)

	past := fx.Sign(t, algorithm.HS256, map[string]any{"exp": testNow.Unix() - 1}, nil)
	_, err := VerifyToken(past, key, testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrExpired)

	future := fx.Sign(t, algorithm.HS256, map[string]any{"exp": testNow.Unix() + 1}, nil)
	_, err = VerifyToken(future, key, testPolicy(algorithm.HS256), testNow)
	assert.NoError(t, err)

	skewed := testPolicy(algorithm.HS256)
	skewed.ClockSkew = 5 * time.Second
	_, err = VerifyToken(past, key, skewed, testNow)
	assert.NoError(t, err)
}

func TestVerifyTokenAudienceSequence(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.ES256)
	p := testPolicy(algorithm.ES256)
	p.ExpectedAudience = []string{"api"}

	ok := fx.Sign(t, algorithm.ES256, map[string]any{"aud": []any{"web", "api", "cli"}}, nil)
	_, err := VerifyToken(ok, key, p, testNow)
	assert.NoError(t, err)

	missing := fx.Sign(t, algorithm.ES256, map[string]any{"aud": []any{"web", "cli"}}, nil)
	_, err = VerifyToken(missing, key, p, testNow)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerifyTokenSignatureBeforeClaims(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	expired := fx.Sign(t, algorithm.HS256, map[string]any{"exp": testNow.Add(-time.Hour).Unix()}, nil)
	wrong, err := keys.HMAC([]byte("not-the-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(expired, wrong, testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrSignatureInvalid, "claims of an unverified token are never judged")
}

func TestVerifyTokenUsesRawPayloadBytes(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.HS256)
	header := `{"alg":"HS256","typ":"JWT"}`
	original := `{"sub":"alice","admin":false}`
	reordered := `{"admin":false,"sub":"alice"}`

	token := fx.SignRaw(t, algorithm.HS256, header, original)
	_, err := VerifyToken(token, key, testPolicy(algorithm.HS256), testNow)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	swapped := parts[0] + "." + b64.Encode([]byte(reordered)) + "." + parts[2]
	_, err = VerifyToken(swapped, key, testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	// Same JSON, different whitespace: still a different signing input.
	spaced := parts[0] + "." + b64.Encode([]byte(`{"sub": "alice","admin":false}`)) + "." + parts[2]
	_, err = VerifyToken(spaced, key, testPolicy(algorithm.HS256), testNow)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyTokenStructuralKinds(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.HS256)
	p := testPolicy(algorithm.HS256)
	valid := fx.Sign(t, algorithm.HS256, validClaims(), nil)
	parts := strings.Split(valid, ".")

	cases := []struct {
		name  string
		token string
		want  Kind
	}{
		{"empty", "", KindStructure},
		{"one segment", "abc", KindStructure},
		{"four segments", valid + ".x", KindStructure},
		{"empty payload", parts[0] + ".." + parts[2], KindStructure},
		{"bad header base64", "!!!." + parts[1] + "." + parts[2], KindMalformedEncoding},
		{"bad signature base64", parts[0] + "." + parts[1] + ".***", KindMalformedEncoding},
		{"header newline", parts[0][:4] + "\n" + parts[0][4:] + "." + parts[1] + "." + parts[2], KindMalformedEncoding},
		{"header not json", b64.Encode([]byte("nope")) + "." + parts[1] + "." + parts[2], KindInvalidJSON},
		{"payload array", parts[0] + "." + b64.Encode([]byte(`[1,2]`)) + "." + parts[2], KindInvalidJSON},
		{"payload null", parts[0] + "." + b64.Encode([]byte(`null`)) + "." + parts[2], KindInvalidJSON},
		{"payload trailing", parts[0] + "." + b64.Encode([]byte(`{"a":1}{}`)) + "." + parts[2], KindInvalidJSON},
		{"alg missing", b64.Encode([]byte(`{"typ":"JWT"}`)) + "." + parts[1] + "." + parts[2], KindInvalidJSON},
		{"alg not string", b64.Encode([]byte(`{"alg":256}`)) + "." + parts[1] + "." + parts[2], KindInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyToken(tc.token, key, p, testNow)
			if got := KindOf(err); got != tc.want {
				t.Fatalf("expected %s, got %s (%v)", tc.want, got, err)
			}
			var ve *VerificationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *VerificationError, got %T", err)
			}
		})
	}
}

func TestVerifyTokenClaimOrder(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.HS256)
	p := testPolicy(algorithm.HS256)
	p.ExpectedIssuer = "https://issuer.example"
	p.ExpectedAudience = []string{"api"}

	token := fx.Sign(t, algorithm.HS256, map[string]any{
		"exp": testNow.Add(-time.Hour).Unix(),
		"nbf": testNow.Add(time.Hour).Unix(),
		"iss": "https://evil.example",
		"aud": "web",
	}, nil)
	_, err := VerifyToken(token, key, p, testNow)
	assert.ErrorIs(t, err, ErrExpired)

	c, err := VerifyToken(fx.Sign(t, algorithm.HS256, map[string]any{"sub": "x"}, nil), key, testPolicy(algorithm.HS256), testNow)
	require.NoError(t, err)
	p.RequiredClaims = []string{"tenant"}
	p.RequireExpiration = true
	failures := ValidateClaims(c, p, testNow)
	kinds := make([]Kind, 0, len(failures))
	for _, f := range failures {
		kinds = append(kinds, KindOf(f))
	}
	assert.Equal(t, []Kind{KindMissingClaim, KindIssuerMismatch, KindAudienceMismatch, KindMissingClaim}, kinds)
}

func TestVerifyTokenDoesNotRetainInputs(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	secret := append([]byte(nil), fx.Secret...)
	key, err := keys.HMAC(secret)
	require.NoError(t, err)
	p := testPolicy(algorithm.HS256)
	p.ExpectedAudience = []string{"api"}

	token := fx.Sign(t, algorithm.HS256, validClaims(), nil)
	_, err = VerifyToken(token, key, p, testNow)
	require.NoError(t, err)

	assert.Equal(t, fx.Secret, key.Secret)
	assert.Equal(t, []algorithm.ID{algorithm.HS256}, p.AllowedAlgorithms)
	assert.Equal(t, []string{"api"}, p.ExpectedAudience)
}

func TestVerifyTokenConcurrentCallsAgree(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	key := fx.Public(t, algorithm.ES256)
	p := DefaultPolicy(algorithm.ES256)
	p.ExpectedAudience = []string{"api"}

	good := fx.Sign(t, algorithm.ES256, validClaims(), nil)
	expired := fx.Sign(t, algorithm.ES256, map[string]any{"exp": testNow.Add(-time.Hour).Unix()}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := VerifyToken(good, key, p, testNow); err != nil {
					errs <- err
					return
				}
				if _, err := VerifyToken(expired, key, p, testNow); !errors.Is(err, ErrExpired) {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent verification diverged: %v", err)
	}
}

func TestDecodeUnverified(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	token := fx.Sign(t, algorithm.RS256, map[string]any{"sub": "alice"}, map[string]any{"kid": "rsa-1"})

	d, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "RS256", d.Algorithm())
	assert.Equal(t, "rsa-1", d.KeyID())
	assert.Equal(t, "alice", d.Claims["sub"])
	assert.Len(t, d.Signature, 256)

	// Unsigned tokens decode but never verify.
	d, err = DecodeUnverified(jwttest.Unsecured(t, map[string]any{"sub": "mallory"}))
	require.NoError(t, err)
	assert.Equal(t, "none", d.Algorithm())

	_, err = DecodeUnverified("a.b")
	assert.ErrorIs(t, err, ErrStructure)
}

func FuzzVerifyToken(f *testing.F) {
	fx := jwttest.SharedKeys(f)
	key := fx.Public(f, algorithm.HS256)
	p := testPolicy(algorithm.HS256)

	f.Add(fx.Sign(f, algorithm.HS256, map[string]any{"sub": "seed"}, nil))
	f.Add(jwttest.Unsecured(f, map[string]any{"sub": "seed"}))
	f.Add("a.b.c")
	f.Add("")

	f.Fuzz(func(t *testing.T, token string) {
		c, err := VerifyToken(token, key, p, testNow)
		if err == nil {
			if c == nil {
				t.Fatal("nil claims on success")
			}
			return
		}
		if KindOf(err) == 0 {
			t.Fatalf("untyped failure: %v", err)
		}
	})
}

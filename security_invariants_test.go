package goVerify

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/internal/jwttest"
	"github.com/MrEthical07/goVerify/keys"
)

func TestSecurityInvariantHMACForgedWithPublicKeyRejected(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	rsaOnly, err := keys.NewSet(fx.Public(t, algorithm.RS256).WithID("rsa"))
	if err != nil {
		t.Fatalf("key set: %v", err)
	}
	p := testVerifierPolicy()
	p.AllowedAlgorithms = []algorithm.ID{algorithm.RS256, algorithm.HS256}
	v := buildTestVerifier(t, New().WithPolicy(p).WithKeys(rsaOnly).WithClock(fixedClock))

	der, err := x509.MarshalPKIXPublicKey(&fx.RSA.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	forged := jwttest.Forge(t, algorithm.HS256, der, validClaims())

	if _, err := v.Verify(context.Background(), forged); !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("expected ErrKeyMismatch, got %v", err)
	}
}

func TestSecurityInvariantHMACKidCannotServeAsymmetricAlg(t *testing.T) {
	v := buildTestVerifier(t, New().
		WithPolicy(DefaultPolicy(algorithm.RS256, algorithm.HS256)).
		WithKeys(testKeySet(t)).
		WithClock(fixedClock))

	_, err := v.Verify(context.Background(), signedFor(t, algorithm.RS256, "hmac", nil))
	if !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("expected ErrKeyMismatch, got %v", err)
	}
}

func TestSecurityInvariantNoneNeverVerifies(t *testing.T) {
	v := buildTestVerifier(t, New().
		WithPolicy(testVerifierPolicy()).
		WithKeys(testKeySet(t)).
		WithClock(fixedClock))

	unsigned := jwttest.Unsecured(t, validClaims())
	if _, err := v.Verify(context.Background(), unsigned); !errors.Is(err, ErrAlgorithmNotAllowed) {
		t.Fatalf("expected ErrAlgorithmNotAllowed, got %v", err)
	}
	trimmed := unsigned[:strings.LastIndexByte(unsigned, '.')+1]
	if _, err := v.Verify(context.Background(), trimmed); !errors.Is(err, ErrStructure) {
		t.Fatalf("expected ErrStructure for empty signature, got %v", err)
	}
}

func TestSecurityInvariantAlgorithmNameIsCaseSensitive(t *testing.T) {
	fx := jwttest.SharedKeys(t)
	v := buildTestVerifier(t, New().
		WithPolicy(testVerifierPolicy()).
		WithKeys(testKeySet(t)).
		WithClock(fixedClock))

	for _, alg := range []string{"rs256", "Rs256", "NONE", "None"} {
		token := fx.SignRaw(t, algorithm.RS256, `{"alg":"`+alg+`","kid":"rsa"}`, `{"sub":"alice"}`)
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, ErrAlgorithmNotAllowed) {
			t.Fatalf("alg %q: expected ErrAlgorithmNotAllowed, got %v", alg, err)
		}
	}
}

func TestSecurityInvariantRevocationOnlyAfterSuccess(t *testing.T) {
	rev := &fakeRevocation{revoked: map[string]bool{}}
	v := buildTestVerifier(t, New().
		WithPolicy(testVerifierPolicy()).
		WithKeys(testKeySet(t)).
		WithRevocation(rev).
		WithClock(fixedClock))

	expired := signedFor(t, algorithm.RS256, "rsa", func(c map[string]any) {
		c["exp"] = testNow.Add(-DefaultClockSkew).Unix() - 1
	})
	if _, err := v.Verify(context.Background(), expired); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	noJTI := signedFor(t, algorithm.RS256, "rsa", func(c map[string]any) { delete(c, "jti") })
	if _, err := v.Verify(context.Background(), noJTI); err != nil {
		t.Fatalf("token without jti must verify: %v", err)
	}
	if rev.calls != 0 {
		t.Fatalf("revocation consulted %d times for tokens that should skip it", rev.calls)
	}
}

func TestSecurityInvariantErrorsNeverEchoToken(t *testing.T) {
	v := buildTestVerifier(t, New().
		WithPolicy(testVerifierPolicy()).
		WithKeys(testKeySet(t)).
		WithClock(fixedClock))

	token := signedFor(t, algorithm.RS256, "rsa", func(c map[string]any) { c["aud"] = "other" })
	_, err := v.Verify(context.Background(), token)
	if !errors.Is(err, ErrAudienceMismatch) {
		t.Fatalf("expected ErrAudienceMismatch, got %v", err)
	}
	for _, seg := range strings.Split(token, ".") {
		if strings.Contains(err.Error(), seg) {
			t.Fatalf("error text contains a token segment: %v", err)
		}
	}
}

func TestSecurityReportHasNoKeyMaterial(t *testing.T) {
	v := buildTestVerifier(t, New().
		WithPolicy(testVerifierPolicy()).
		WithKeys(testKeySet(t)).
		WithRevocation(&fakeRevocation{}).
		WithClock(fixedClock))

	r := v.SecurityReport()
	if r.KeyCount != 3 {
		t.Fatalf("expected 3 keys, got %d", r.KeyCount)
	}
	if strings.Join(r.KeyFamilies, ",") != "ecdsa,hmac,rsa" {
		t.Fatalf("unexpected families %v", r.KeyFamilies)
	}
	if !r.IssuerChecked || !r.AudienceChecked || !r.ExpirationRequired {
		t.Fatalf("unexpected claim posture: %+v", r)
	}
	if !r.RevocationEnabled || !r.RevocationFailClose {
		t.Fatalf("unexpected revocation posture: %+v", r)
	}
	if !containsCode(r.LintCodes, "audit_disabled") || !containsCode(r.LintCodes, "multiple_families") {
		t.Fatalf("unexpected lint codes %v", r.LintCodes)
	}

	dump := fmt.Sprintf("%+v", r)
	if strings.Contains(dump, string(jwttest.SharedKeys(t).Secret)) {
		t.Fatal("security report leaked the HMAC secret")
	}
}

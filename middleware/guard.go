package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goVerify "github.com/MrEthical07/goVerify"
)

// TokenVerifier is the part of *goVerify.Verifier the adapters need.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*goVerify.Claims, error)
}

// RequestIDHeader is copied into audit events when present.
const RequestIDHeader = "X-Request-ID"

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by Guard or the gRPC interceptors.
func ClaimsFromContext(ctx context.Context) (*goVerify.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*goVerify.Claims)
	return c, ok && c != nil
}

// Guard rejects requests without a valid bearer token.
func Guard(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				unauthorized(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			ctx := goVerify.WithClientIP(r.Context(), remoteIP(r.RemoteAddr))
			if id := r.Header.Get(RequestIDHeader); id != "" {
				ctx = goVerify.WithRequestID(ctx, id)
			}

			claims, err := v.Verify(ctx, token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx = context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// bearerToken accepts the scheme case-insensitively, as HTTP auth schemes are.
func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

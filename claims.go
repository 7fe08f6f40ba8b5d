package goVerify

import (
	"encoding/json"
	"time"

	"github.com/MrEthical07/goVerify/internal/claims"
)

// Claims is the verified payload. Numbers are held as json.Number so large
// integers survive unchanged. A Claims value is never mutated after
// VerifyToken returns it.
type Claims struct {
	raw map[string]any
}

func newClaims(payload map[string]any) *Claims {
	return &Claims{raw: payload}
}

// Map returns a shallow copy of every claim, registered and custom.
func (c *Claims) Map() map[string]any {
	out := make(map[string]any, len(c.raw))
	for k, v := range c.raw {
		out[k] = v
	}
	return out
}

// Get returns the claim named name.
func (c *Claims) Get(name string) (any, bool) {
	v, ok := c.raw[name]
	return v, ok
}

// String returns the claim named name when it is a JSON string.
func (c *Claims) String(name string) string {
	s, _ := c.raw[name].(string)
	return s
}

func (c *Claims) Issuer() string  { return c.String(claims.Issuer) }
func (c *Claims) Subject() string { return c.String(claims.Subject) }
func (c *Claims) ID() string      { return c.String(claims.JWTID) }

// Audience returns aud as a list; a single-string aud becomes one element.
func (c *Claims) Audience() []string {
	aud, _, _ := claims.Audiences(c.raw)
	return aud
}

// ExpiresAt returns exp, or false when it is absent.
func (c *Claims) ExpiresAt() (time.Time, bool) { return c.date(claims.Expiration) }

// NotBefore returns nbf, or false when it is absent.
func (c *Claims) NotBefore() (time.Time, bool) { return c.date(claims.NotBefore) }

// IssuedAt returns iat, or false when it is absent.
func (c *Claims) IssuedAt() (time.Time, bool) { return c.date(claims.IssuedAt) }

func (c *Claims) date(name string) (time.Time, bool) {
	t, ok, err := claims.NumericDate(c.raw, name)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return t, true
}

// Decode re-encodes the claims into v, a pointer to a caller-defined struct.
func (c *Claims) Decode(v any) error {
	data, err := json.Marshal(c.raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MarshalJSON encodes the claims as a JSON object.
func (c *Claims) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw)
}

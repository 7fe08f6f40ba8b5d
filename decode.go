package goVerify

import (
	"github.com/MrEthical07/goVerify/internal/compact"
)

// Decoded is a parsed but UNVERIFIED token. Nothing in it may be trusted.
type Decoded struct {
	Header    map[string]any
	Claims    map[string]any
	Signature []byte
}

// Algorithm returns the header alg.
func (d *Decoded) Algorithm() string {
	alg, _ := d.Header["alg"].(string)
	return alg
}

// KeyID returns the header kid, or "".
func (d *Decoded) KeyID() string {
	kid, _ := d.Header["kid"].(string)
	return kid
}

// DecodeUnverified parses token for inspection without checking the signature
// or any claim. Structural failures carry the same kinds VerifyToken reports.
func DecodeUnverified(token string) (*Decoded, error) {
	tok, err := compact.Parse(token)
	if err != nil {
		return nil, err
	}
	return &Decoded{
		Header:    tok.Header,
		Claims:    tok.Claims,
		Signature: tok.Signature,
	}, nil
}

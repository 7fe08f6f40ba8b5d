package keys

import (
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoPEMBlock = errors.New("no PEM block found")

// FromPEM parses a PEM-encoded RSA, ECDSA, or Ed25519 public key or
// certificate. The block type decides which parser runs first; the others are
// tried as fallbacks because PKIX "PUBLIC KEY" blocks do not name the algorithm.
func FromPEM(data []byte) (Material, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return Material{}, ErrNoPEMBlock
	}
	switch block.Type {
	case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
		return Material{}, ErrPrivateKeyOnly
	}

	if pub, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return RSA(pub)
	}
	if pub, err := jwt.ParseECPublicKeyFromPEM(data); err == nil {
		return ECDSA(pub)
	}
	pub, err := jwt.ParseEdPublicKeyFromPEM(data)
	if err != nil {
		return Material{}, fmt.Errorf("parse %q block: %w", block.Type, ErrUnsupportedKey)
	}
	return FromPublic(pub)
}

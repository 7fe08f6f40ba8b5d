// Package b64 decodes and encodes the unpadded base64url segments of the
// compact token serialization.
package b64

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goVerify/internal/failure"
)

// decoder accepts optional padding and rejects non-canonical trailing bits.
var decoder = jwt.NewParser(jwt.WithPaddingAllowed(), jwt.WithStrictDecoding())

// Decode returns the bytes encoded in segment using the URL-safe alphabet.
// Padding is optional, but when present it must be exactly the number of '='
// needed to reach a multiple of four. Any byte outside the alphabet, including CR and LF
// which the standard decoder would skip, fails with KindMalformedEncoding.
func Decode(segment string) ([]byte, error) {
	if strings.ContainsAny(segment, "\r\n") {
		return nil, failure.New(failure.KindMalformedEncoding, "segment contains line break")
	}
	trimmed := strings.TrimRight(segment, "=")
	if strings.Contains(trimmed, "=") {
		return nil, failure.New(failure.KindMalformedEncoding, "padding inside segment")
	}
	// Padding, when present, must complete the final quantum exactly.
	if pad := len(segment) - len(trimmed); pad > 0 && pad != (4-len(trimmed)%4)%4 {
		return nil, failure.New(failure.KindMalformedEncoding, "invalid padding length")
	}
	out, err := decoder.DecodeSegment(segment)
	if err != nil {
		return nil, failure.Wrap(failure.KindMalformedEncoding, "", err)
	}
	return out, nil
}

// Encode returns the unpadded URL-safe encoding of data. It is not used on the
// verification path.
func Encode(data []byte) string {
	return new(jwt.Token).EncodeSegment(data)
}

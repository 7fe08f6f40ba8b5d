// Package compact splits the dot-separated compact serialization into its
// header, payload, and signature, keeping the raw encoded segments that make up
// the signing input.
package compact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/goVerify/internal/b64"
	"github.com/MrEthical07/goVerify/internal/failure"
)

// Token is the parsed form of a compact token. Raw segments are kept verbatim.
type Token struct {
	Header    map[string]any
	Claims    map[string]any
	Signature []byte

	RawHeader  string
	RawPayload string
}

// Algorithm returns the header's alg value. Parse guarantees it is a non-empty string.
func (t *Token) Algorithm() string {
	alg, _ := t.Header["alg"].(string)
	return alg
}

// KeyID returns the header's kid value, or "" if absent or not a string.
func (t *Token) KeyID() string {
	kid, _ := t.Header["kid"].(string)
	return kid
}

// SigningInput returns the exact bytes the signature covers: the raw header
// segment, a dot, and the raw payload segment, as received.
func (t *Token) SigningInput() string {
	return t.RawHeader + "." + t.RawPayload
}

// Parse decodes a compact token. It fails with KindStructure unless the
// input has exactly three non-empty segments, KindMalformedEncoding when a
// segment is not base64url, and KindInvalidJSON when header or payload is not
// a JSON object or the header lacks a non-empty string alg.
func Parse(token string) (*Token, error) {
	parts, err := split(token)
	if err != nil {
		return nil, err
	}

	headerBytes, err := b64.Decode(parts[0])
	if err != nil {
		return nil, detail(err, "header")
	}
	payloadBytes, err := b64.Decode(parts[1])
	if err != nil {
		return nil, detail(err, "payload")
	}

	header, err := decodeObject(headerBytes)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidJSON, "header", err)
	}
	alg, ok := header["alg"].(string)
	if !ok || alg == "" {
		return nil, failure.New(failure.KindInvalidJSON, "header: alg must be a non-empty string")
	}

	claims, err := decodeObject(payloadBytes)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidJSON, "payload", err)
	}

	sig, err := b64.Decode(parts[2])
	if err != nil {
		return nil, detail(err, "signature")
	}

	return &Token{
		Header:     header,
		Claims:     claims,
		Signature:  sig,
		RawHeader:  parts[0],
		RawPayload: parts[1],
	}, nil
}

func split(token string) ([3]string, error) {
	var parts [3]string
	if strings.Count(token, ".") != 2 {
		return parts, failure.New(failure.KindStructure, "expected three dot-separated segments")
	}
	first := strings.IndexByte(token, '.')
	second := first + 1 + strings.IndexByte(token[first+1:], '.')
	parts[0] = token[:first]
	parts[1] = token[first+1 : second]
	parts[2] = token[second+1:]
	for _, p := range parts {
		if p == "" {
			return parts, failure.New(failure.KindStructure, "empty segment")
		}
	}
	return parts, nil
}

var (
	errNotObject    = errors.New("top-level value is not an object")
	errTrailingData = errors.New("trailing data after object")
	errInvalidUTF8  = errors.New("invalid utf-8")
)

func decodeObject(data []byte) (map[string]any, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return out, nil
}

func detail(err error, segment string) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		if fe.Detail != "" {
			segment += ": " + fe.Detail
		}
		return failure.Wrap(fe.Kind, segment, fe.Cause)
	}
	return err
}

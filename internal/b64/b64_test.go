package b64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goVerify/internal/failure"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "unpadded", in: "eyJhbGciOiJIUzI1NiJ9", want: `{"alg":"HS256"}`},
		{name: "padded", in: "YQ==", want: "a"},
		{name: "unpadded short", in: "YQ", want: "a"},
		{name: "url alphabet", in: "-_8", want: "\xfb\xff"},
		{name: "empty", in: "", want: ""},
		{name: "std alphabet rejected", in: "+/8", wantErr: true},
		{name: "invalid char", in: "ab*c", wantErr: true},
		{name: "impossible length", in: "abcde", wantErr: true},
		{name: "non-canonical trailing bits", in: "YR", wantErr: true},
		{name: "embedded newline", in: "YW\nJj", wantErr: true},
		{name: "embedded carriage return", in: "YWJj\r", wantErr: true},
		{name: "padding in the middle", in: "YQ==YQ", wantErr: true},
		{name: "short padding", in: "YQ=", wantErr: true},
		{name: "short padding two bytes", in: "YWJjZA=", wantErr: true},
		{name: "padding on full quantum", in: "YWJj=", wantErr: true},
		{name: "excess padding", in: "YQ===", wantErr: true},
		{name: "padded two bytes", in: "YWI=", want: "ab"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, failure.KindMalformedEncoding, failure.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestEncodeIsUnpaddedAndRoundTrips(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x10}
	enc := Encode(data)

	assert.NotContains(t, enc, "=")
	assert.NotContains(t, enc, "+")
	assert.NotContains(t, enc, "/")

	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func FuzzDecode(f *testing.F) {
	f.Add("eyJhbGciOiJIUzI1NiJ9")
	f.Add("YQ==")
	f.Add("ab*c")
	f.Add("")

	f.Fuzz(func(t *testing.T, in string) {
		out, err := Decode(in)
		if err != nil {
			if failure.KindOf(err) != failure.KindMalformedEncoding {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		// Strict decoding means a successful decode re-encodes to the unpadded input.
		want := in
		for len(want) > 0 && want[len(want)-1] == '=' {
			want = want[:len(want)-1]
		}
		if got := Encode(out); got != want {
			t.Fatalf("decode(%q) re-encodes to %q", in, got)
		}
	})
}

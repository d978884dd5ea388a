package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	binary := make([]byte, 256)
	for i := range binary {
		binary[i] = byte(i)
	}

	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{"text", []byte("hello world"), "text/plain"},
		{"with params", []byte("héllo"), "text/plain; charset=utf-8"},
		{"binary", binary, "application/octet-stream"},
		{"png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0, 1, 2}, 700)...), "image/png"},
		{"empty", []byte{}, "text/plain"},
		{"quoted param", []byte("abc"), `text/plain; name="a b"`},
		{"quoted param empty", []byte{}, `text/plain; name="a b"`},
		{"escapable param", []byte{0, 1}, `application/x-thing; note="50% off; really"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Encode(tc.data, tc.mime)
			require.True(t, len(s) > len("data:"), s)

			got, err := Decode(s)
			require.NoError(t, err)
			assert.Equal(t, tc.data, got.Data)

			assert.Equal(t, formatMediaType(splitMediaType(tc.mime)), got.MimeType)
		})
	}
}

func TestEncodeKeepsMimeExactly(t *testing.T) {
	got, err := Decode(Encode([]byte("x"), "image/png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.MimeType)

	got, err = Decode(Encode([]byte("x"), "text/plain; charset=utf-8"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", got.MimeType)

	got, err = Decode(Encode([]byte("x"), `text/plain; name="a b"`))
	require.NoError(t, err)
	assert.Equal(t, `text/plain; name="a b"`, got.MimeType)
}

func TestEncodeEmptyMime(t *testing.T) {
	s := Encode([]byte{1, 2, 3}, "")
	assert.Contains(t, s, "data:application/octet-stream;base64,")

	got, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, DefaultMimeType, got.MimeType)

	// not a media type at all
	assert.Contains(t, Encode(nil, "garbage"), "data:application/octet-stream;base64,")
}

func TestEncodeZeroBytes(t *testing.T) {
	s := Encode(nil, "text/plain")
	assert.Equal(t, "data:text/plain;base64,", s)

	got, err := Decode(s)
	require.NoError(t, err)
	assert.Empty(t, got.Data)
	assert.Equal(t, "text/plain", got.MimeType)
}

func TestDecodeForeignURLs(t *testing.T) {
	got, err := Decode("data:,A%20brief%20note")
	require.NoError(t, err)
	assert.Equal(t, []byte("A brief note"), got.Data)
	assert.Equal(t, implicitMimeType, got.MimeType)

	got, err = Decode("data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data)
}

func TestDecodeInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"http://example.com",
		"data:text/plain;base64",
		"data:text/plain;base64,!!!notbase64",
		"data:;;;,abc",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := Decode(s)
			require.ErrorIs(t, err, ErrInvalidDataURL)
		})
	}
}

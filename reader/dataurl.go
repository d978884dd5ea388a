package reader

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

// DefaultMimeType is used to encode content whose type is unknown or unparsable.
const DefaultMimeType = "application/octet-stream"

// rfc 2397: "data:," means text/plain;charset=US-ASCII
const implicitMimeType = "text/plain;charset=US-ASCII"

var ErrInvalidDataURL = errors.New("reader: invalid data url")

// Decoded is the content of a data url.
type Decoded struct {
	MimeType string
	Data     []byte
}

// Encode renders data as a base64 data url that carries mimeType. Media
// type parameters are kept; the type itself is lower-cased.
func Encode(data []byte, mimeType string) string {
	mediaType, params := splitMediaType(mimeType)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(params)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}

	return dataurl.New(data, mediaType, pairs...).String()
}

// Decode reverses Encode. It also accepts non-base64 (percent encoded) urls.
func Decode(s string) (Decoded, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Decoded{}, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Decoded{}, fmt.Errorf("%w: missing comma", ErrInvalidDataURL)
	}

	mimeType, err := headerMimeType(header)
	if err != nil {
		return Decoded{}, err
	}

	// zero byte files have nothing for the payload parser to work with
	if payload == "" {
		return Decoded{MimeType: mimeType, Data: []byte{}}, nil
	}

	du, err := dataurl.DecodeString(s)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}

	return Decoded{MimeType: mimeType, Data: du.Data}, nil
}

func headerMimeType(header string) (string, error) {
	header = strings.TrimSuffix(header, ";base64")
	if header == "" {
		return implicitMimeType, nil
	}

	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("%w: media type %q: %w", ErrInvalidDataURL, header, err)
	}

	// Encode percent escapes parameter values instead of quoting them
	for k, v := range params {
		if uv, err := dataurl.UnescapeToString(v); err == nil {
			params[k] = uv
		}
	}

	return formatMediaType(mediaType, params), nil
}

func splitMediaType(mimeType string) (string, map[string]string) {
	if mimeType == "" {
		return DefaultMimeType, nil
	}

	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.Contains(mediaType, "/") {
		return DefaultMimeType, nil
	}

	return mediaType, params
}

func formatMediaType(mediaType string, params map[string]string) string {
	if len(params) == 0 {
		return mediaType
	}

	if s := mime.FormatMediaType(mediaType, params); s != "" {
		return s
	}

	return mediaType
}

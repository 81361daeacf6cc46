package storage

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

const defaultMediaType = "text/plain;charset=US-ASCII"

// EncodeDataURI renders data as an RFC 2397 base64 data URI.
func EncodeDataURI(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses an RFC 2397 data URI, base64 or percent-encoded.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	isBase64 := false
	if trimmed, found := strings.CutSuffix(meta, ";base64"); found {
		isBase64 = true
		meta = trimmed
	}
	mediaType = meta
	if mediaType == "" || strings.HasPrefix(mediaType, ";") {
		mediaType = defaultMediaType
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, ErrInvalidDataURI
		}
		return mediaType, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURI
	}
	return mediaType, []byte(text), nil
}

package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/kouka/errs"
)

type ContentEncoding uint8

const (
	EncodingIdentity ContentEncoding = 0x1 // EncodingIdentity represents an unencoded stream.
	EncodingGzip     ContentEncoding = 0x2 // EncodingGzip represents gzip (RFC 1952) framing.
	EncodingDeflate  ContentEncoding = 0x3 // EncodingDeflate represents HTTP "deflate", i.e. zlib (RFC 1950) framing.
	EncodingZstd     ContentEncoding = 0x4 // EncodingZstd represents Zstandard frames.
	EncodingS2       ContentEncoding = 0x5 // EncodingS2 represents the S2 stream format.
	EncodingSnappy   ContentEncoding = 0x6 // EncodingSnappy represents the framed Snappy stream format.
	EncodingLZ4      ContentEncoding = 0x7 // EncodingLZ4 represents LZ4 frames.
)

func (e ContentEncoding) String() string {
	switch e {
	case EncodingIdentity:
		return "identity"
	case EncodingGzip:
		return "gzip"
	case EncodingDeflate:
		return "deflate"
	case EncodingZstd:
		return "zstd"
	case EncodingS2:
		return "s2"
	case EncodingSnappy:
		return "snappy"
	case EncodingLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseContentEncoding maps a single Content-Encoding token to a ContentEncoding.
//
// Matching is case-insensitive and ignores surrounding whitespace. An empty token
// is treated as identity.
func ParseContentEncoding(token string) (ContentEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "identity":
		return EncodingIdentity, nil
	case "gzip", "x-gzip":
		return EncodingGzip, nil
	case "deflate":
		return EncodingDeflate, nil
	case "zstd":
		return EncodingZstd, nil
	case "s2", "x-s2":
		return EncodingS2, nil
	case "snappy", "x-snappy-framed":
		return EncodingSnappy, nil
	case "lz4", "x-lz4":
		return EncodingLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnsupportedEncoding, token)
	}
}

// ParseContentEncodingHeader parses a Content-Encoding header value.
//
// The header lists encodings in the order they were applied, so the result is in
// application order too; decoders must unwind it from the end. Identity entries
// are dropped.
func ParseContentEncodingHeader(header string) ([]ContentEncoding, error) {
	var encodings []ContentEncoding
	for _, token := range strings.Split(header, ",") {
		enc, err := ParseContentEncoding(token)
		if err != nil {
			return nil, err
		}
		if enc == EncodingIdentity {
			continue
		}
		encodings = append(encodings, enc)
	}

	return encodings, nil
}

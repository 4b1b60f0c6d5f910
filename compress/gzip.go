package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/arloliu/kouka/format"
)

// GzipCodec implements the gzip content encoding.
type GzipCodec struct{}

var _ Codec = (*GzipCodec)(nil)

// NewGzipCodec creates a new gzip codec.
func NewGzipCodec() GzipCodec {
	return GzipCodec{}
}

func (c GzipCodec) Encoding() format.ContentEncoding {
	return format.EncodingGzip
}

// NewReader reads the gzip header from r before returning, so a truncated or
// non-gzip stream fails here rather than on the first Read.
func (c GzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (c GzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

// DeflateCodec implements the HTTP deflate content encoding, which is zlib
// framing around a deflate stream.
type DeflateCodec struct{}

var _ Codec = (*DeflateCodec)(nil)

// NewDeflateCodec creates a new deflate codec.
func NewDeflateCodec() DeflateCodec {
	return DeflateCodec{}
}

func (c DeflateCodec) Encoding() format.ContentEncoding {
	return format.EncodingDeflate
}

func (c DeflateCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

func (c DeflateCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zlib.NewWriter(w), nil
}

package compress

import (
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/kouka/format"
)

// S2Codec implements the S2 stream format.
type S2Codec struct{}

var _ Codec = (*S2Codec)(nil)

// NewS2Codec creates a new S2 codec.
func NewS2Codec() S2Codec {
	return S2Codec{}
}

func (c S2Codec) Encoding() format.ContentEncoding {
	return format.EncodingS2
}

// NewReader returns an S2 stream reader. It also accepts framed Snappy input.
func (c S2Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}

func (c S2Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w), nil
}

// SnappyCodec implements the framed Snappy stream format.
//
// Decoding shares the S2 reader; encoding restricts the S2 writer to output a
// Snappy decoder accepts.
type SnappyCodec struct{}

var _ Codec = (*SnappyCodec)(nil)

// NewSnappyCodec creates a new Snappy codec.
func NewSnappyCodec() SnappyCodec {
	return SnappyCodec{}
}

func (c SnappyCodec) Encoding() format.ContentEncoding {
	return format.EncodingSnappy
}

func (c SnappyCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}

func (c SnappyCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w, s2.WriterSnappyCompat()), nil
}

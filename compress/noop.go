package compress

import (
	"io"

	"github.com/arloliu/kouka/format"
)

// NoOpCodec passes bytes through unchanged. It implements the identity
// content encoding.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a new pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

func (c NoOpCodec) Encoding() format.ContentEncoding {
	return format.EncodingIdentity
}

// NewReader returns r behind a Close that does nothing.
func (c NoOpCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// NewWriter returns w behind a Close that does nothing.
func (c NoOpCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

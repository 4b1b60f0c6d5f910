package compress

import (
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/format"
)

// lz4ReaderPool pools frame readers. lz4.Reader keeps its block buffers across
// Reset, so reuse avoids reallocating them per stream.
var lz4ReaderPool = sync.Pool{
	New: func() any {
		return lz4.NewReader(nil)
	},
}

// LZ4Codec implements the LZ4 frame format.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 codec.
//
// Returns:
//   - LZ4Codec: New LZ4 codec instance
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

func (c LZ4Codec) Encoding() format.ContentEncoding {
	return format.EncodingLZ4
}

// NewReader returns a pooled LZ4 frame reader. Close returns it to the pool.
func (c LZ4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, _ := lz4ReaderPool.Get().(*lz4.Reader)
	zr.Reset(r)

	return &lz4ReadCloser{zr: zr}, nil
}

func (c LZ4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

type lz4ReadCloser struct {
	zr *lz4.Reader
}

func (r *lz4ReadCloser) Read(p []byte) (int, error) {
	if r.zr == nil {
		return 0, errs.ErrDecoderClosed
	}

	return r.zr.Read(p)
}

func (r *lz4ReadCloser) Close() error {
	if r.zr == nil {
		return nil
	}

	r.zr.Reset(nil)
	lz4ReaderPool.Put(r.zr)
	r.zr = nil

	return nil
}

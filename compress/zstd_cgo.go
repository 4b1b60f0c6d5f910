//go:build cgo && gozstd

package compress

import (
	"io"

	"github.com/valyala/gozstd"

	"github.com/arloliu/kouka/errs"
)

// NewReader returns a libzstd stream decoder reading r.
// Close releases the C resources held by the decoder.
func (c ZstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return &gozstdReadCloser{zr: gozstd.NewReader(r)}, nil
}

// NewWriter returns a libzstd stream encoder writing to w.
func (c ZstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return &gozstdWriteCloser{zw: gozstd.NewWriter(w)}, nil
}

type gozstdReadCloser struct {
	zr *gozstd.Reader
}

func (r *gozstdReadCloser) Read(p []byte) (int, error) {
	if r.zr == nil {
		return 0, errs.ErrDecoderClosed
	}

	return r.zr.Read(p)
}

func (r *gozstdReadCloser) Close() error {
	if r.zr == nil {
		return nil
	}

	r.zr.Release()
	r.zr = nil

	return nil
}

type gozstdWriteCloser struct {
	zw *gozstd.Writer
}

func (w *gozstdWriteCloser) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

func (w *gozstdWriteCloser) Close() error {
	err := w.zw.Close()
	w.zw.Release()

	return err
}

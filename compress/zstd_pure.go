//go:build !cgo || !gozstd

package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/kouka/errs"
)

// zstdDecoderPool pools zstd decoders for reuse to eliminate allocation overhead.
// The klauspost/compress/zstd library is explicitly designed for decoder reuse:
// "The decoder has been designed to operate without allocations after a warmup.
// This means that you should store the decoder for best performance."
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1), // Single-threaded: streams are decoded synchronously
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			// This should never happen with valid options
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// NewReader returns a pooled zstd stream decoder reading r.
// Close detaches r and returns the decoder to the pool.
func (c ZstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	if err := decoder.Reset(r); err != nil {
		zstdDecoderPool.Put(decoder)
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	return &zstdReadCloser{dec: decoder}, nil
}

// NewWriter returns a zstd stream encoder writing to w.
func (c ZstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}

	return encoder, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (r *zstdReadCloser) Read(p []byte) (int, error) {
	if r.dec == nil {
		return 0, errs.ErrDecoderClosed
	}

	return r.dec.Read(p)
}

func (r *zstdReadCloser) Close() error {
	if r.dec == nil {
		return nil
	}

	// Reset(nil) only detaches the source; the decoder stays usable.
	_ = r.dec.Reset(nil)
	zstdDecoderPool.Put(r.dec)
	r.dec = nil

	return nil
}

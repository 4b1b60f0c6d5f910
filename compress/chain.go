package compress

import (
	"errors"
	"io"

	"github.com/arloliu/kouka/format"
)

// chainReader reads from the innermost decoder of a decoder stack and closes
// the whole stack.
type chainReader struct {
	io.Reader
	closers []io.Closer
}

func (c *chainReader) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errList = append(errList, err)
		}
	}
	c.closers = nil

	return errors.Join(errList...)
}

// NewChainReader decodes r, which had encodings applied in the given order.
// Decoders are stacked from the last encoding to the first.
//
// An empty encodings list returns r unchanged behind a no-op Close.
func NewChainReader(encodings []format.ContentEncoding, r io.Reader) (io.ReadCloser, error) {
	chain := &chainReader{Reader: r}

	for i := len(encodings) - 1; i >= 0; i-- {
		dec, err := NewReader(encodings[i], chain.Reader)
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain.Reader = dec
		chain.closers = append(chain.closers, dec)
	}

	return chain, nil
}

// NewHeaderReader decodes r according to a Content-Encoding header value such
// as "gzip" or "gzip, zstd".
func NewHeaderReader(header string, r io.Reader) (io.ReadCloser, error) {
	encodings, err := format.ParseContentEncodingHeader(header)
	if err != nil {
		return nil, err
	}

	return NewChainReader(encodings, r)
}

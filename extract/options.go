package extract

import (
	"fmt"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/internal/options"
)

// Option represents a functional option for configuring an Extractor.
type Option = options.Option[*Extractor]

// WithHandle registers the opaque value passed to the sink with every emission.
// The extractor never inspects it.
func WithHandle(handle any) Option {
	return options.NoError(func(e *Extractor) {
		e.handle = handle
	})
}

// WithKeyCapacity sets the maximum number of decoded bytes kept for a key.
// The target key must fit within it.
func WithKeyCapacity(n int) Option {
	return options.New(func(e *Extractor) error {
		if n <= 0 {
			return fmt.Errorf("%w: key capacity %d", errs.ErrInvalidCapacity, n)
		}
		e.keyCap = n

		return nil
	})
}

// WithValueCapacity sets the maximum number of decoded bytes kept for a value.
// Longer values are emitted truncated to n bytes.
func WithValueCapacity(n int) Option {
	return options.New(func(e *Extractor) error {
		if n <= 0 {
			return fmt.Errorf("%w: value capacity %d", errs.ErrInvalidCapacity, n)
		}
		e.valueCap = n

		return nil
	})
}

// WithUnicodeDecoder replaces the default placeholder strategy for \uXXXX escapes.
func WithUnicodeDecoder(d UnicodeDecoder) Option {
	return options.New(func(e *Extractor) error {
		if d == nil {
			return errs.ErrNilDecoder
		}
		e.unicode = d

		return nil
	})
}

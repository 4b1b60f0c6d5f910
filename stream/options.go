package stream

import (
	"fmt"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/internal/options"
)

const (
	// DefaultInitialSize is the capacity the buffer starts from before doubling.
	DefaultInitialSize = 1024 * 4 // 4KiB

	// DefaultMaxSize bounds the buffer. Appending a chunk that cannot fit fails
	// with errs.ErrAllocation.
	DefaultMaxSize = 1024 * 1024 * 64 // 64MiB

	// DefaultCompactThreshold is the fraction of capacity the consumed prefix
	// may occupy before it is dropped.
	DefaultCompactThreshold = 0.5
)

// Option represents a functional option for configuring an Accumulator.
type Option = options.Option[*Accumulator]

// WithInitialSize sets the starting buffer capacity in bytes.
func WithInitialSize(n int) Option {
	return options.New(func(a *Accumulator) error {
		if n <= 0 {
			return fmt.Errorf("%w: initial size %d", errs.ErrInvalidSize, n)
		}
		a.initialSize = n

		return nil
	})
}

// WithMaxSize sets the largest capacity the buffer may grow to.
func WithMaxSize(n int) Option {
	return options.New(func(a *Accumulator) error {
		if n <= 0 {
			return fmt.Errorf("%w: max size %d", errs.ErrInvalidSize, n)
		}
		a.maxSize = n

		return nil
	})
}

// WithCompactThreshold sets the fraction of capacity, in (0, 1], that consumed
// bytes may occupy before they are dropped. Compaction also happens whenever it
// avoids growing the buffer.
func WithCompactThreshold(f float64) Option {
	return options.New(func(a *Accumulator) error {
		if f <= 0 || f > 1 {
			return fmt.Errorf("%w: %v", errs.ErrInvalidThreshold, f)
		}
		a.compactThreshold = f

		return nil
	})
}

// WithRetainConsumed disables compaction: every appended byte stays in the
// buffer until Reset, and Bytes returns the whole stream. Memory then grows with
// the stream, bounded only by the max size.
func WithRetainConsumed() Option {
	return options.NoError(func(a *Accumulator) {
		a.retain = true
	})
}

// WithReadSize sets the receive slice size used by ReadFrom.
func WithReadSize(n int) Option {
	return options.New(func(a *Accumulator) error {
		if n <= 0 {
			return fmt.Errorf("%w: read size %d", errs.ErrInvalidSize, n)
		}
		a.readSize = n

		return nil
	})
}

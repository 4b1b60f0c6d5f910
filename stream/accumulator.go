package stream

import (
	"fmt"
	"io"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/internal/hash"
	"github.com/arloliu/kouka/internal/options"
	"github.com/arloliu/kouka/internal/pool"
)

// Accumulator buffers appended chunks and feeds every new byte to a Feeder.
//
// The buffer holds a consumed prefix followed by nothing else: Append copies
// the chunk in, feeds the region after the consumed offset, then advances the
// offset to the end. The consumed prefix is dropped lazily, either when it
// passes the compaction threshold or when dropping it avoids a reallocation.
type Accumulator struct {
	feeder Feeder
	buf    *pool.ByteBuffer
	pooled bool

	consumed int
	digest   *hash.Digest
	err      error
	closed   bool

	initialSize      int
	maxSize          int
	compactThreshold float64
	retain           bool
	readSize         int
}

var (
	_ io.Writer     = (*Accumulator)(nil)
	_ io.ReaderFrom = (*Accumulator)(nil)
	_ io.Closer     = (*Accumulator)(nil)
)

// New creates an Accumulator feeding feeder.
//
// Parameters:
//   - feeder: Receives every appended byte exactly once, in order
//   - opts: Optional configuration (WithInitialSize, WithMaxSize, WithCompactThreshold,
//     WithRetainConsumed, WithReadSize)
//
// Returns:
//   - *Accumulator: The accumulator; call Close to return its buffer to the pool
//   - error: errs.ErrNilFeeder, or an option validation error
func New(feeder Feeder, opts ...Option) (*Accumulator, error) {
	if feeder == nil {
		return nil, errs.ErrNilFeeder
	}

	a := &Accumulator{
		feeder:           feeder,
		digest:           hash.NewDigest(),
		initialSize:      DefaultInitialSize,
		maxSize:          DefaultMaxSize,
		compactThreshold: DefaultCompactThreshold,
		readSize:         pool.ReadSliceDefaultSize,
	}

	if err := options.Apply(a, opts...); err != nil {
		return nil, err
	}

	if a.maxSize < a.initialSize {
		return nil, fmt.Errorf("%w: max %d, initial %d", errs.ErrMaxSizeBelowInitial, a.maxSize, a.initialSize)
	}

	if a.initialSize == pool.StreamBufferDefaultSize {
		a.buf = pool.GetStreamBuffer()
		a.pooled = true
	} else {
		a.buf = pool.NewByteBuffer(a.initialSize)
	}

	return a, nil
}

// Append copies chunk into the buffer and feeds it to the feeder.
//
// An empty chunk is a no-op. If the chunk cannot be stored, nothing is fed, the
// error wraps errs.ErrAllocation, and every later Append fails with
// errs.ErrAccumulatorBroken until Reset.
//
// Parameters:
//   - chunk: Bytes received from the transport; not retained after Append returns
//
// Returns:
//   - error: nil on success, or one of errs.ErrAllocation, errs.ErrAccumulatorBroken, errs.ErrClosed
func (a *Accumulator) Append(chunk []byte) error {
	if a.closed {
		return errs.ErrClosed
	}
	if a.err != nil {
		return fmt.Errorf("%w: %w", errs.ErrAccumulatorBroken, a.err)
	}
	if len(chunk) == 0 {
		return nil
	}

	a.compact(len(chunk))

	if len(chunk) > a.maxSize-a.buf.Len() {
		a.err = fmt.Errorf("%w: need %d bytes, max size is %d", errs.ErrAllocation, a.buf.Len()+len(chunk), a.maxSize)
		return a.err
	}

	if err := a.buf.Grow(len(chunk), a.maxSize); err != nil {
		a.err = err
		return err
	}

	a.buf.B = append(a.buf.B, chunk...)
	a.digest.Write(chunk)

	a.feeder.Feed(a.buf.B[a.consumed:])
	a.consumed = a.buf.Len()

	return nil
}

// compact drops the consumed prefix when it passes the threshold or when next
// bytes do not fit as is, either in the current capacity or under the max size.
func (a *Accumulator) compact(next int) {
	if a.retain || a.consumed == 0 {
		return
	}

	overThreshold := float64(a.consumed) >= a.compactThreshold*float64(a.buf.Cap())
	needsRoom := a.buf.Cap()-a.buf.Len() < next || next > a.maxSize-a.buf.Len()
	if !overThreshold && !needsRoom {
		return
	}

	a.buf.Discard(a.consumed)
	a.consumed = 0
}

// Write implements io.Writer on top of Append.
func (a *Accumulator) Write(p []byte) (int, error) {
	if err := a.Append(p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// ReadFrom implements io.ReaderFrom. It reads r into a pooled receive slice
// until io.EOF and appends every read. The receive slice is separate from the
// accumulator buffer, so reads never overwrite bytes the feeder has not seen.
//
// Returns:
//   - int64: Number of bytes appended
//   - error: The first read error other than io.EOF, or the Append error
func (a *Accumulator) ReadFrom(r io.Reader) (int64, error) {
	if a.closed {
		return 0, errs.ErrClosed
	}

	recv, release := pool.GetReadSlice(a.readSize)
	defer release()

	var total int64
	for {
		n, err := r.Read(recv)
		if n > 0 {
			if appendErr := a.Append(recv[:n]); appendErr != nil {
				return total, appendErr
			}
			total += int64(n)
		}

		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Reset starts a new stream: the buffer, consumed offset, digest and sticky
// error are cleared and the feeder is reset. Buffer capacity is kept.
// Reset on a closed accumulator does nothing.
func (a *Accumulator) Reset() {
	if a.closed {
		return
	}

	a.buf.Reset()
	a.consumed = 0
	a.digest.Reset()
	a.err = nil
	a.feeder.Reset()
}

// Close releases the buffer. The accumulator cannot be used afterwards; Append,
// ReadFrom and a second Close return errs.ErrClosed.
func (a *Accumulator) Close() error {
	if a.closed {
		return errs.ErrClosed
	}
	a.closed = true

	if a.pooled {
		pool.PutStreamBuffer(a.buf)
	}
	a.buf = nil

	return nil
}

// Bytes returns the bytes still held in the buffer. With WithRetainConsumed this
// is every byte appended since the last Reset; otherwise compaction may already
// have dropped part of it. The slice is valid until the next Append, Reset or Close.
func (a *Accumulator) Bytes() []byte {
	if a.buf == nil {
		return nil
	}

	return a.buf.Bytes()
}

// Len returns the number of bytes held in the buffer.
func (a *Accumulator) Len() int {
	if a.buf == nil {
		return 0
	}

	return a.buf.Len()
}

// Cap returns the buffer capacity.
func (a *Accumulator) Cap() int {
	if a.buf == nil {
		return 0
	}

	return a.buf.Cap()
}

// Consumed returns the offset in Bytes up to which the feeder has seen the data.
func (a *Accumulator) Consumed() int {
	return a.consumed
}

// Total returns the number of bytes appended since the last Reset.
func (a *Accumulator) Total() int64 {
	return a.digest.Len()
}

// Sum64 returns the xxHash64 of every byte appended since the last Reset.
func (a *Accumulator) Sum64() uint64 {
	return a.digest.Sum64()
}

// Err returns the allocation error that broke the accumulator, if any.
func (a *Accumulator) Err() error {
	return a.err
}

package pool

import (
	"fmt"
	"sync"

	"github.com/arloliu/kouka/errs"
)

const (
	StreamBufferDefaultSize  = 1024 * 4    // 4KiB
	StreamBufferMaxThreshold = 1024 * 1024 // 1MiB
)

// ByteBuffer is an append-oriented byte buffer with an explicit doubling growth
// policy and prefix compaction.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// The capacity doubles, starting from StreamBufferDefaultSize for an empty
// buffer, until it accommodates the new total length. A positive limit caps the
// resulting capacity; the cap is not applied to a buffer that already fits.
//
// Parameters:
//   - requiredBytes: Number of bytes about to be appended
//   - limit: Maximum capacity in bytes (0 or negative for no limit)
//
// Returns:
//   - error: errs.ErrAllocation (wrapped) when the limit would be exceeded or the
//     runtime refuses the allocation. The buffer is left unchanged on error.
func (bb *ByteBuffer) Grow(requiredBytes int, limit int) error {
	if requiredBytes < 0 {
		return fmt.Errorf("%w: negative growth %d", errs.ErrAllocation, requiredBytes)
	}

	needed := len(bb.B) + requiredBytes
	if needed < len(bb.B) {
		return fmt.Errorf("%w: length overflow", errs.ErrAllocation)
	}
	if needed <= cap(bb.B) {
		return nil
	}
	if limit > 0 && needed > limit {
		return fmt.Errorf("%w: need %d bytes, limit is %d", errs.ErrAllocation, needed, limit)
	}

	newCap := cap(bb.B)
	if newCap == 0 {
		newCap = StreamBufferDefaultSize
	}
	for newCap < needed {
		if newCap > maxInt/2 {
			newCap = needed
			break
		}
		newCap *= 2
	}
	if limit > 0 && newCap > limit {
		newCap = limit
	}

	newBuf, err := allocate(len(bb.B), newCap)
	if err != nil {
		return err
	}
	copy(newBuf, bb.B)
	bb.B = newBuf

	return nil
}

// Discard drops the first n bytes, moving the remainder to the front of the
// buffer. Capacity is retained. n is clamped to the buffer length.
func (bb *ByteBuffer) Discard(n int) {
	if n <= 0 {
		return
	}
	if n >= len(bb.B) {
		bb.B = bb.B[:0]
		return
	}

	remaining := copy(bb.B, bb.B[n:])
	bb.B = bb.B[:remaining]
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	if err := bb.Grow(len(data), 0); err != nil {
		return 0, err
	}
	bb.B = append(bb.B, data...)

	return len(data), nil
}

const maxInt = int(^uint(0) >> 1)

// allocate converts a runtime allocation panic (e.g. makeslice: cap out of range)
// into errs.ErrAllocation.
func allocate(length, capacity int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: %v", errs.ErrAllocation, r)
		}
	}()

	return make([]byte, length, capacity), nil
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations between streams.
//
// It uses sync.Pool internally. Buffers that grew beyond maxThreshold are not
// retained, so one oversized stream does not pin its memory in the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var streamDefaultPool = NewByteBufferPool(StreamBufferDefaultSize, StreamBufferMaxThreshold)

// GetStreamBuffer retrieves a ByteBuffer from the default stream pool.
func GetStreamBuffer() *ByteBuffer {
	return streamDefaultPool.Get()
}

// PutStreamBuffer returns a ByteBuffer to the default stream pool.
func PutStreamBuffer(bb *ByteBuffer) {
	streamDefaultPool.Put(bb)
}

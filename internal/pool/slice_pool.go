package pool

import "sync"

// ReadSliceDefaultSize is the receive slice size used by stream readers when the
// caller does not ask for a specific one.
const ReadSliceDefaultSize = 1024 * 32 // 32KiB

// readSlicePool holds receive slices used by read loops. Received bytes are
// copied into the stream buffer before the slice is reused, so a read slice is
// never aliased by parse state.
var readSlicePool = sync.Pool{
	New: func() any { return &[]byte{} },
}

// GetReadSlice retrieves and resizes a byte slice from the pool.
//
// The returned slice will have the exact length specified by the size parameter.
// If the pooled slice has insufficient capacity, a new slice will be allocated.
// A non-positive size selects ReadSliceDefaultSize.
//
// Parameters:
//   - size: The desired length of the slice
//
// Returns:
//   - []byte: A slice with length equal to size
//   - func(): Cleanup function that must be called (typically with defer) to return the slice to the pool
//
// Example:
//
//	buf, cleanup := pool.GetReadSlice(0)
//	defer cleanup()
//	n, err := r.Read(buf)
func GetReadSlice(size int) ([]byte, func()) {
	if size <= 0 {
		size = ReadSliceDefaultSize
	}

	ptr, _ := readSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { readSlicePool.Put(ptr) }
}

// Package errs defines the sentinel errors shared by kouka packages.
//
// Callers should match them with errors.Is; most are returned wrapped with
// additional context.
package errs

import "errors"

// Extractor construction errors.
var (
	ErrEmptyTargetKey   = errors.New("target key must not be empty")
	ErrTargetKeyTooLong = errors.New("target key exceeds key capacity")
	ErrNilSink          = errors.New("sink must not be nil")
	ErrInvalidCapacity  = errors.New("capacity must be positive")
	ErrNilDecoder       = errors.New("unicode decoder must not be nil")
)

// Accumulator errors.
var (
	// ErrAllocation is returned when the stream buffer cannot grow to hold an
	// appended chunk, either because the configured limit would be exceeded or
	// because the runtime refused the allocation.
	ErrAllocation = errors.New("stream buffer allocation failed")

	// ErrAccumulatorBroken is returned by Append after an allocation failure
	// until the accumulator is reset.
	ErrAccumulatorBroken = errors.New("accumulator unusable after allocation failure; reset required")

	ErrClosed              = errors.New("accumulator is closed")
	ErrNilFeeder           = errors.New("feeder must not be nil")
	ErrInvalidSize         = errors.New("buffer size must be positive")
	ErrInvalidThreshold    = errors.New("compact threshold must be within (0, 1]")
	ErrMaxSizeBelowInitial = errors.New("max buffer size is smaller than initial size")
)

// Content encoding errors.
var (
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
	ErrDecoderClosed       = errors.New("decoder is closed")
)

// Client errors.
var (
	ErrEmptyModel    = errors.New("model is required")
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrInvalidHost   = errors.New("invalid host")
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrEmptyResponse = errors.New("stream ended without a response")
)

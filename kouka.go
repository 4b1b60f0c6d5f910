// Package kouka extracts one named string field from a stream of concatenated
// JSON objects, incrementally and without decoding the objects.
//
// It is built for streaming model APIs such as Ollama's /api/generate, which
// answer with one small JSON object per generated token:
//
//	{"model":"llama3","response":"The","done":false}
//	{"model":"llama3","response":" sky","done":false}
//
// Bytes may arrive split at any point, inside keys, values or escape sequences.
// Each "response" value is delivered to a callback as soon as its closing quote
// arrives.
//
// # Core Features
//
//   - Byte-at-a-time state machine; chunk boundaries never change the result
//   - Only top-level fields match; nested objects and arrays are skipped
//   - Bounded key and value buffers with counted truncation
//   - Compacting stream buffer with a configurable size limit
//   - Pluggable \uXXXX decoding (placeholder byte or full UTF-16)
//   - Streaming content decoding (gzip, deflate, zstd, s2, snappy, lz4)
//
// # Basic Usage
//
// Wiring an extractor to a transport:
//
//	acc, _ := kouka.NewFieldStream("response", func(value []byte, _ any) {
//	    fmt.Print(string(value))
//	})
//	defer acc.Close()
//
//	for chunk := range chunks {
//	    if err := acc.Append(chunk); err != nil {
//	        return err
//	    }
//	}
//
// Reading a whole body:
//
//	n, err := kouka.Each(resp.Body, "response", func(value []byte) {
//	    fmt.Print(string(value))
//	})
//
// # Package Structure
//
// This package provides convenient top-level wrappers. The extract package holds
// the state machine, stream holds the accumulator, compress the content decoders
// and ollama a complete streaming client.
package kouka

import (
	"io"

	"github.com/arloliu/kouka/extract"
	"github.com/arloliu/kouka/stream"
)

// NewFieldStream creates an accumulator feeding an extractor for targetKey.
//
// Parameters:
//   - targetKey: Top-level field whose string values are extracted
//   - sink: Called with each value; the slice is only valid during the call
//   - opts: Extractor options (WithHandle, WithValueCapacity, ...)
//
// Returns:
//   - *stream.Accumulator: Accumulator with default settings; call Close when done
//   - error: Extractor construction error from errs
func NewFieldStream(targetKey string, sink extract.Sink, opts ...extract.Option) (*stream.Accumulator, error) {
	ext, err := extract.New(targetKey, sink, opts...)
	if err != nil {
		return nil, err
	}

	return stream.New(ext)
}

// Each reads r until io.EOF and calls fn with every top-level targetKey string
// value, in order. value is only valid during the call.
//
// Returns:
//   - int64: Number of bytes read from r
//   - error: Construction, read or allocation error
func Each(r io.Reader, targetKey string, fn func(value []byte), opts ...extract.Option) (int64, error) {
	acc, err := NewFieldStream(targetKey, func(value []byte, _ any) {
		fn(value)
	}, opts...)
	if err != nil {
		return 0, err
	}
	defer acc.Close()

	return acc.ReadFrom(r)
}

// Values returns every top-level targetKey string value in data.
//
// Example:
//
//	values, _ := kouka.Values(body, "response")
//	text := strings.Join(values, "")
func Values(data []byte, targetKey string, opts ...extract.Option) ([]string, error) {
	var values []string
	ext, err := extract.New(targetKey, func(value []byte, _ any) {
		values = append(values, string(value))
	}, opts...)
	if err != nil {
		return nil, err
	}

	ext.Feed(data)

	return values, nil
}

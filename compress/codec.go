package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/format"
)

// Decompressor wraps a compressed byte stream in a reader yielding the
// original bytes.
//
// Returned readers decode incrementally: each Read pulls only as much of the
// source as it needs, so a transport can hand partial frames to the stream
// accumulator as they arrive.
type Decompressor interface {
	// NewReader returns a reader that decodes r.
	//
	// Close must be called to release pooled decoder state. Closing the reader
	// does not close r.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Compressor wraps a writer so that bytes written to it are encoded.
type Compressor interface {
	// NewWriter returns a writer that encodes into w.
	//
	// Close flushes the final frame; it does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

// Codec combines both directions for one content encoding.
type Codec interface {
	Compressor
	Decompressor

	// Encoding returns the content encoding the codec implements.
	Encoding() format.ContentEncoding
}

// CreateCodec is a factory function that creates a Codec based on the specified content encoding.
//
// Parameters:
//   - encoding: Content encoding (identity, gzip, deflate, zstd, s2, snappy or lz4)
//
// Returns:
//   - Codec: Codec instance for the specified encoding
//   - error: errs.ErrUnsupportedEncoding (wrapped) for any other value
func CreateCodec(encoding format.ContentEncoding) (Codec, error) {
	switch encoding {
	case format.EncodingIdentity:
		return NewNoOpCodec(), nil
	case format.EncodingGzip:
		return NewGzipCodec(), nil
	case format.EncodingDeflate:
		return NewDeflateCodec(), nil
	case format.EncodingZstd:
		return NewZstdCodec(), nil
	case format.EncodingS2:
		return NewS2Codec(), nil
	case format.EncodingSnappy:
		return NewSnappyCodec(), nil
	case format.EncodingLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedEncoding, encoding)
	}
}

var builtinCodecs = map[format.ContentEncoding]Codec{
	format.EncodingIdentity: NewNoOpCodec(),
	format.EncodingGzip:     NewGzipCodec(),
	format.EncodingDeflate:  NewDeflateCodec(),
	format.EncodingZstd:     NewZstdCodec(),
	format.EncodingS2:       NewS2Codec(),
	format.EncodingSnappy:   NewSnappyCodec(),
	format.EncodingLZ4:      NewLZ4Codec(),
}

// GetCodec retrieves the built-in Codec for the specified content encoding.
func GetCodec(encoding format.ContentEncoding) (Codec, error) {
	if codec, ok := builtinCodecs[encoding]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedEncoding, encoding)
}

// NewReader returns a reader decoding r with the built-in codec for encoding.
func NewReader(encoding format.ContentEncoding, r io.Reader) (io.ReadCloser, error) {
	codec, err := GetCodec(encoding)
	if err != nil {
		return nil, err
	}

	return codec.NewReader(r)
}

// NewWriter returns a writer encoding into w with the built-in codec for encoding.
func NewWriter(encoding format.ContentEncoding, w io.Writer) (io.WriteCloser, error) {
	codec, err := GetCodec(encoding)
	if err != nil {
		return nil, err
	}

	return codec.NewWriter(w)
}

// Compress encodes data in one call. It is a convenience for tests and small
// payloads; streams should use NewWriter.
func Compress(encoding format.ContentEncoding, data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := NewWriter(encoding, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s compression failed: %w", encoding, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s compression failed: %w", encoding, err)
	}

	return buf.Bytes(), nil
}

// Decompress decodes data in one call.
func Decompress(encoding format.ContentEncoding, data []byte) ([]byte, error) {
	r, err := NewReader(encoding, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %w", encoding, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %w", encoding, err)
	}

	return out, nil
}

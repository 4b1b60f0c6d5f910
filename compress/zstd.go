package compress

import "github.com/arloliu/kouka/format"

// ZstdCodec implements the zstd content encoding.
//
// The default build uses github.com/klauspost/compress/zstd with pooled,
// single-threaded decoders. Building with cgo and the gozstd tag switches to
// the libzstd bindings in github.com/valyala/gozstd.
//
// Example:
//
//	codec := NewZstdCodec()
//	r, err := codec.NewReader(resp.Body)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new zstd codec.
//
// Returns:
//   - ZstdCodec: New zstd codec instance
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

func (c ZstdCodec) Encoding() format.ContentEncoding {
	return format.EncodingZstd
}

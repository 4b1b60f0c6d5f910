// Package compress provides streaming decoders and encoders for the HTTP content
// encodings a model server may apply to a response body.
//
// # Overview
//
// Each supported encoding has a Codec that wraps an io.Reader or io.Writer:
//   - identity: NoOpCodec, bytes pass through
//   - gzip: GzipCodec (github.com/klauspost/compress/gzip)
//   - deflate: DeflateCodec, zlib framing (github.com/klauspost/compress/zlib)
//   - zstd: ZstdCodec, pooled decoders (github.com/klauspost/compress/zstd, or
//     github.com/valyala/gozstd when built with cgo and the gozstd tag)
//   - s2: S2Codec (github.com/klauspost/compress/s2)
//   - snappy: SnappyCodec, framed Snappy written through the S2 writer
//   - lz4: LZ4Codec, pooled frame readers (github.com/pierrec/lz4/v4)
//
// Decoders are incremental. A Read returns as soon as some decoded bytes are
// available, so a body that trickles in keeps feeding the stream accumulator
// while the server is still generating.
//
// # Usage
//
// Decode a response according to its header:
//
//	body, err := compress.NewHeaderReader(resp.Header.Get("Content-Encoding"), resp.Body)
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
//
//	_, err = acc.ReadFrom(body)
//
// Encode a stream, e.g. in tests or a proxy:
//
//	w, _ := compress.NewWriter(format.EncodingZstd, dst)
//	_, _ = w.Write(payload)
//	_ = w.Close()
//
// Multiple encodings ("gzip, zstd") are unwound from the last applied to the
// first by NewChainReader.
//
// # Resource Management
//
// Readers returned by NewReader must be closed. Pooled zstd and lz4 decoders
// are returned to their pools on Close, and reading a closed pooled decoder
// fails with errs.ErrDecoderClosed. Closing a decoder never closes the
// underlying reader.
package compress

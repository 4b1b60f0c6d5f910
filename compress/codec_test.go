package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/format"
)

var allEncodings = []format.ContentEncoding{
	format.EncodingIdentity,
	format.EncodingGzip,
	format.EncodingDeflate,
	format.EncodingZstd,
	format.EncodingS2,
	format.EncodingSnappy,
	format.EncodingLZ4,
}

func ndjson(lines int) []byte {
	var buf bytes.Buffer
	for i := range lines {
		buf.WriteString(`{"model":"llama3","response":"token `)
		buf.WriteString(strings.Repeat("x", i%17))
		buf.WriteString(`","done":false}`)
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

func TestCreateCodec(t *testing.T) {
	for _, enc := range allEncodings {
		t.Run(enc.String(), func(t *testing.T) {
			codec, err := CreateCodec(enc)
			require.NoError(t, err)
			require.Equal(t, enc, codec.Encoding())

			builtin, err := GetCodec(enc)
			require.NoError(t, err)
			require.Equal(t, enc, builtin.Encoding())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateCodec(format.ContentEncoding(0))
		require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

		_, err = GetCodec(format.ContentEncoding(0xff))
		require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

		_, err = NewReader(format.ContentEncoding(0xff), strings.NewReader(""))
		require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

		_, err = NewWriter(format.ContentEncoding(0xff), io.Discard)
		require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"small":  []byte(`{"response":"hi"}`),
		"ndjson": ndjson(500),
		"binary": bytes.Repeat([]byte{0x00, 0xff, 0x7f, 0x80}, 4096),
	}

	for _, enc := range allEncodings {
		for name, payload := range payloads {
			t.Run(enc.String()+"/"+name, func(t *testing.T) {
				compressed, err := Compress(enc, payload)
				require.NoError(t, err)

				if enc != format.EncodingIdentity && name == "ndjson" {
					require.Less(t, len(compressed), len(payload))
				}

				decompressed, err := Decompress(enc, compressed)
				require.NoError(t, err)
				require.Equal(t, payload, decompressed)
			})
		}
	}
}

func TestCodec_IncrementalRead(t *testing.T) {
	payload := ndjson(200)

	for _, enc := range allEncodings {
		t.Run(enc.String(), func(t *testing.T) {
			compressed, err := Compress(enc, payload)
			require.NoError(t, err)

			r, err := NewReader(enc, iotest.HalfReader(bytes.NewReader(compressed)))
			require.NoError(t, err)
			defer r.Close()

			var out bytes.Buffer
			buf := make([]byte, 7)
			for {
				n, err := r.Read(buf)
				out.Write(buf[:n])
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
			}
			require.Equal(t, payload, out.Bytes())
		})
	}
}

func TestCodec_Corrupt(t *testing.T) {
	garbage := []byte("this is definitely not a compressed stream, just plain text")

	for _, enc := range allEncodings {
		if enc == format.EncodingIdentity {
			continue
		}

		t.Run(enc.String(), func(t *testing.T) {
			_, err := Decompress(enc, garbage)
			require.Error(t, err)
		})
	}
}

func TestCodec_Truncated(t *testing.T) {
	payload := ndjson(100)

	for _, enc := range []format.ContentEncoding{format.EncodingGzip, format.EncodingZstd, format.EncodingLZ4} {
		t.Run(enc.String(), func(t *testing.T) {
			compressed, err := Compress(enc, payload)
			require.NoError(t, err)

			_, err = Decompress(enc, compressed[:len(compressed)/2])
			require.Error(t, err)
		})
	}
}

func TestCodec_ReadAfterClose(t *testing.T) {
	for _, enc := range []format.ContentEncoding{format.EncodingZstd, format.EncodingLZ4} {
		t.Run(enc.String(), func(t *testing.T) {
			compressed, err := Compress(enc, []byte("pooled decoder"))
			require.NoError(t, err)

			r, err := NewReader(enc, bytes.NewReader(compressed))
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.NoError(t, r.Close())

			_, err = r.Read(make([]byte, 8))
			require.ErrorIs(t, err, errs.ErrDecoderClosed)
		})
	}
}

func TestCodec_PooledDecoderReuse(t *testing.T) {
	for _, enc := range []format.ContentEncoding{format.EncodingZstd, format.EncodingLZ4} {
		t.Run(enc.String(), func(t *testing.T) {
			for i := range 20 {
				payload := ndjson(i + 1)

				compressed, err := Compress(enc, payload)
				require.NoError(t, err)

				decompressed, err := Decompress(enc, compressed)
				require.NoError(t, err)
				require.Equal(t, payload, decompressed)
			}
		})
	}
}

func TestSnappyCompatibleWithS2Reader(t *testing.T) {
	payload := ndjson(50)

	compressed, err := Compress(format.EncodingSnappy, payload)
	require.NoError(t, err)

	decompressed, err := Decompress(format.EncodingS2, compressed)
	require.NoError(t, err)
	require.Equal(t, payload, decompressed)
}

func BenchmarkDecompress(b *testing.B) {
	payload := ndjson(1000)

	for _, enc := range allEncodings {
		compressed, err := Compress(enc, payload)
		require.NoError(b, err)

		b.Run(enc.String(), func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			b.ReportAllocs()

			for b.Loop() {
				r, _ := NewReader(enc, bytes.NewReader(compressed))
				_, _ = io.Copy(io.Discard, r)
				_ = r.Close()
			}
		})
	}
}

package extract

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/arloliu/kouka/errs"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	values  []string
	handles []any
}

func (c *collector) sink(value []byte, handle any) {
	c.values = append(c.values, string(value))
	c.handles = append(c.handles, handle)
}

func newCollector(t *testing.T, key string, opts ...Option) (*Extractor, *collector) {
	t.Helper()

	c := &collector{}
	e, err := New(key, c.sink, opts...)
	require.NoError(t, err)

	return e, c
}

func feedChunks(e *Extractor, chunks ...string) {
	for _, chunk := range chunks {
		e.Feed([]byte(chunk))
	}
}

func TestNew(t *testing.T) {
	noop := func([]byte, any) {}

	t.Run("defaults", func(t *testing.T) {
		e, err := New("response", noop)
		require.NoError(t, err)
		assert.Equal(t, "response", e.TargetKey())
		assert.Equal(t, DefaultKeyCapacity, e.keyCap)
		assert.Equal(t, DefaultValueCapacity, e.valueCap)
		assert.Equal(t, DefaultKeyCapacity, cap(e.key))
		assert.Equal(t, DefaultValueCapacity, cap(e.value))
	})

	tests := []struct {
		name    string
		key     string
		sink    Sink
		opts    []Option
		wantErr error
	}{
		{"empty key", "", noop, nil, errs.ErrEmptyTargetKey},
		{"nil sink", "response", nil, nil, errs.ErrNilSink},
		{"zero key capacity", "response", noop, []Option{WithKeyCapacity(0)}, errs.ErrInvalidCapacity},
		{"negative value capacity", "response", noop, []Option{WithValueCapacity(-1)}, errs.ErrInvalidCapacity},
		{"key longer than capacity", "response", noop, []Option{WithKeyCapacity(4)}, errs.ErrTargetKeyTooLong},
		{"nil decoder", "response", noop, []Option{WithUnicodeDecoder(nil)}, errs.ErrNilDecoder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.key, tt.sink, tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, e)
		})
	}
}

func TestExtractor_SingleObject(t *testing.T) {
	e, c := newCollector(t, "response")

	feedChunks(e, `{"response":"abc","other":"zzz"}`)

	require.Equal(t, []string{"abc"}, c.values)
}

func TestExtractor_OtherKeyOnly(t *testing.T) {
	e, c := newCollector(t, "other")

	feedChunks(e, `{"response":"abc","other":"zzz"}`)

	require.Equal(t, []string{"zzz"}, c.values)
}

func TestExtractor_BackToBackObjects(t *testing.T) {
	e, c := newCollector(t, "response")

	feedChunks(e, `{"response":"a"}{"response":"b"}`)

	require.Equal(t, []string{"a", "b"}, c.values)
}

func TestExtractor_Separators(t *testing.T) {
	tests := []struct {
		name   string
		stream string
	}{
		{"newline delimited", "{\"response\":\"a\"}\n{\"response\":\"b\"}\n"},
		{"pretty printed", "{\n  \"response\" : \"a\" ,\n  \"done\": false\n}\r\n\t{ \"response\":\"b\" }"},
		{"leading garbage", `xx 12 {"response":"a"} true {"response":"b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response")
			feedChunks(e, tt.stream)
			require.Equal(t, []string{"a", "b"}, c.values)
		})
	}
}

func TestExtractor_TopLevelOnly(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{"key nested in array of objects", `{"items":[{"response":"x"}]}`, nil},
		{"key nested in object", `{"meta":{"response":"x"}}`, nil},
		{"target string inside array", `{"items":["response","x"]}`, nil},
		{"array-wrapped stream", `[{"response":"x"},{"response":"y"}]`, nil},
		{
			"nested value that looks like the key",
			`{"meta":{"name":"response"},"next":"x"}{"response":"y"}`,
			[]string{"y"},
		},
		{
			"nested array of strings before target",
			`{"context":[1,2,["a","b"]],"response":"ok"}`,
			[]string{"ok"},
		},
		{
			"deeply nested target after siblings",
			`{"a":{"b":{"response":"no"}},"response":"yes","c":[{"response":"no"}]}`,
			[]string{"yes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response")
			feedChunks(e, tt.stream)
			require.Equal(t, tt.want, c.values)
		})
	}
}

func TestExtractor_NonStringTargetValues(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{"number then other string", `{"response":5,"x":"y"}`, nil},
		{"null", `{"response":null}{"response":"ok"}`, []string{"ok"}},
		{"boolean", `{"response":true,"x":"y"}`, nil},
		{"object value", `{"response":{"x":"y"},"z":"w"}`, nil},
		{"array value", `{"response":["x"],"z":"w"}`, nil},
		{"recovers in the next object", `{"response":1}{"response":"a"}`, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response")
			feedChunks(e, tt.stream)
			require.Equal(t, tt.want, c.values)
		})
	}
}

func TestExtractor_Escapes(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"quote", `{"response":"say \"hi\""}`, `say "hi"`},
		{"backslash", `{"response":"a\\b"}`, `a\b`},
		{"solidus", `{"response":"a\/b"}`, `a/b`},
		{"control", `{"response":"\b\f\n\r\t"}`, "\b\f\n\r\t"},
		{"escaped quote in key", `{"res\"p":"no","response":"yes"}`, "yes"},
		{"raw utf-8 passes through", `{"response":"héllo 世界"}`, "héllo 世界"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response")
			feedChunks(e, tt.stream)
			require.Equal(t, []string{tt.want}, c.values)
		})
	}
}

func TestExtractor_EscapedTargetKey(t *testing.T) {
	e, c := newCollector(t, "a/b")

	feedChunks(e, `{"a/c":"no","a\/b":"yes"}`)

	require.Equal(t, []string{"yes"}, c.values)
}

func TestExtractor_EscapeSplitByteByByte(t *testing.T) {
	e, c := newCollector(t, "response")

	stream := `{"response":"line1\nline2"}`
	for i := range len(stream) {
		e.Feed([]byte{stream[i]})
	}

	require.Equal(t, []string{"line1\nline2"}, c.values)
	assert.NotContains(t, c.values[0], `\n`)
}

func TestExtractor_PlaceholderUnicode(t *testing.T) {
	t.Run("escape replaced by one placeholder byte", func(t *testing.T) {
		e, c := newCollector(t, "response")
		feedChunks(e, `{"response":"caf\u00e9!"}`)
		require.Equal(t, []string{"caf?!"}, c.values)
	})

	t.Run("hex digits split across chunks", func(t *testing.T) {
		e, c := newCollector(t, "response")
		feedChunks(e, `{"response":"caf\u0`, `0`, `e`, `9!"}`)
		require.Equal(t, []string{"caf?!"}, c.values)
	})

	t.Run("custom placeholder", func(t *testing.T) {
		e, c := newCollector(t, "response", WithUnicodeDecoder(NewPlaceholderDecoder('*')))
		feedChunks(e, `{"response":"\ud83d\ude00"}`)
		require.Equal(t, []string{"**"}, c.values)
	})
}

func TestExtractor_UTF16Unicode(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"bmp", []string{`{"response":"caf\u00e9"}`}, "café"},
		{"surrogate pair", []string{`{"response":"\ud83d\ude00"}`}, "😀"},
		{"surrogate pair split", []string{`{"response":"\ud8`, `3d\`, `u`, `de00x"}`}, "😀x"},
		{"lone high then text", []string{`{"response":"\ud83dx"}`}, "\uFFFDx"},
		{"lone high at end", []string{`{"response":"\ud83d"}`}, "\uFFFD"},
		{"lone low", []string{`{"response":"\ude00"}`}, "\uFFFD"},
		{"high then simple escape", []string{`{"response":"\ud83d\n"}`}, "\uFFFD\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response", WithUnicodeDecoder(NewUTF16Decoder()))
			feedChunks(e, tt.chunks...)
			require.Equal(t, []string{tt.want}, c.values)
		})
	}
}

func TestExtractor_MalformedEscapes(t *testing.T) {
	t.Run("unknown escape degrades to placeholder", func(t *testing.T) {
		e, c := newCollector(t, "response")
		feedChunks(e, `{"response":"a\xb"}`)
		require.Equal(t, []string{"a?b"}, c.values)
		require.Equal(t, int64(1), e.Stats().MalformedEscapes)
	})

	t.Run("short unicode escape does not desynchronize", func(t *testing.T) {
		e, c := newCollector(t, "response")
		feedChunks(e, `{"response":"a\u12","other":"b"}{"response":"c"}`)
		require.Equal(t, []string{"a?", "c"}, c.values)
		require.Equal(t, int64(1), e.Stats().MalformedEscapes)
	})

	t.Run("broken escape followed by escape", func(t *testing.T) {
		e, c := newCollector(t, "response", WithUnicodeDecoder(NewUTF16Decoder()))
		feedChunks(e, `{"response":"\u4\n"}`)
		require.Equal(t, []string{"\uFFFD\n"}, c.values)
	})
}

func TestExtractor_ValueTruncation(t *testing.T) {
	const capacity = 8

	tests := []struct {
		name          string
		value         string
		want          string
		wantTruncated int64
	}{
		{"below capacity", "1234567", "1234567", 0},
		{"exactly capacity", "12345678", "12345678", 0},
		{"capacity plus one", "123456789", "12345678", 1},
		{"far beyond capacity", strings.Repeat("x", 100), strings.Repeat("x", capacity), 1},
		{"escapes count decoded bytes", `\n\n\n\n\n\n\n\n\n`, strings.Repeat("\n", capacity), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c := newCollector(t, "response", WithValueCapacity(capacity))
			feedChunks(e, `{"response":"`+tt.value+`"}{"response":"next"}`)

			require.Equal(t, []string{tt.want, "next"}, c.values)
			require.Equal(t, tt.wantTruncated, e.Stats().TruncatedValues)
			require.Equal(t, capacity, cap(e.value), "value buffer must never be reallocated")
		})
	}
}

func TestExtractor_KeyTruncation(t *testing.T) {
	e, c := newCollector(t, "abcd", WithKeyCapacity(4))

	feedChunks(e, `{"abcdX":"no","abcd":"yes"}`)

	require.Equal(t, []string{"yes"}, c.values)
	require.Equal(t, int64(1), e.Stats().TruncatedKeys)
	require.Equal(t, 4, cap(e.key))
}

func TestExtractor_Handle(t *testing.T) {
	type streamID struct{ n int }
	handle := &streamID{n: 7}

	e, c := newCollector(t, "response", WithHandle(handle))
	feedChunks(e, `{"response":"a"}{"response":"b"}`)

	require.Len(t, c.handles, 2)
	for _, h := range c.handles {
		require.Same(t, handle, h)
	}
}

func TestExtractor_UnterminatedState(t *testing.T) {
	e, c := newCollector(t, "response")

	feedChunks(e, `{"response":"never fin`)
	require.Empty(t, c.values, "no emission until the string closes")

	feedChunks(e, `ished"}`)
	require.Equal(t, []string{"never finished"}, c.values)
}

func TestExtractor_StrayClosers(t *testing.T) {
	e, c := newCollector(t, "response")

	feedChunks(e, `}}]]{"response":"ok"}`)

	require.Equal(t, []string{"ok"}, c.values)
}

func TestExtractor_Reset(t *testing.T) {
	e, c := newCollector(t, "response")

	feedChunks(e, `{"response":"par`)
	e.Reset()
	require.Equal(t, Stats{}, e.Stats())

	feedChunks(e, `{"response":"full"}`)
	require.Equal(t, []string{"full"}, c.values)
}

func TestExtractor_Write(t *testing.T) {
	e, c := newCollector(t, "response")

	stream := `{"response":"a"}{"response":"b"}`
	n, err := io.Copy(e, strings.NewReader(stream))
	require.NoError(t, err)
	require.Equal(t, int64(len(stream)), n)
	require.Equal(t, []string{"a", "b"}, c.values)
	require.Equal(t, int64(len(stream)), e.Stats().BytesFed)
	require.Equal(t, int64(2), e.Stats().Emitted)
}

func TestExtractor_SinkValueIsBorrowed(t *testing.T) {
	var kept [][]byte
	e, err := New("response", func(value []byte, _ any) {
		kept = append(kept, bytes.Clone(value))
	})
	require.NoError(t, err)

	feedChunks(e, `{"response":"first"}{"response":"2nd"}`)

	require.Equal(t, [][]byte{[]byte("first"), []byte("2nd")}, kept)
}

// chunkingCorpus is a stream exercising escapes, nesting and non-target keys.
const chunkingCorpus = `{"model":"m","created_at":"2024-01-01T00:00:00Z","response":"Hel","done":false}` +
	`{"model":"m","response":"lo \"w\"","context":[1,2,3],"done":false}` + "\n" +
	`{"model":"m","response":"\u00e9\ud83d\ude00\\","meta":{"response":"nested"},"done":false}` +
	`{"response":"","done":false}` +
	`{"response":"tab\there\/there","done":true,"list":[{"response":"x"}]}`

func feedWhole(t *testing.T, stream string, opts ...Option) []string {
	t.Helper()

	e, c := newCollector(t, "response", opts...)
	e.Feed([]byte(stream))

	return c.values
}

func TestExtractor_ChunkingInvariance(t *testing.T) {
	want := feedWhole(t, chunkingCorpus)
	require.Len(t, want, 5)

	t.Run("every two-way split", func(t *testing.T) {
		for i := 0; i <= len(chunkingCorpus); i++ {
			e, c := newCollector(t, "response")
			feedChunks(e, chunkingCorpus[:i], chunkingCorpus[i:])
			require.Equal(t, want, c.values, "split at %d", i)
		}
	})

	t.Run("byte by byte", func(t *testing.T) {
		e, c := newCollector(t, "response")
		for i := range len(chunkingCorpus) {
			e.Feed([]byte{chunkingCorpus[i]})
		}
		require.Equal(t, want, c.values)
	})

	t.Run("random splits", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for range 200 {
			e, c := newCollector(t, "response")
			for _, chunk := range randomChunks(rng, []byte(chunkingCorpus)) {
				e.Feed(chunk)
			}
			require.Equal(t, want, c.values)
		}
	})
}

func randomChunks(rng *rand.Rand, data []byte) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := 1 + rng.Intn(min(len(data), 17))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	return chunks
}

// decodeOracle decodes the concatenated objects with a full JSON decoder and
// returns the top-level string values of key.
func decodeOracle(t *testing.T, stream, key string) []string {
	t.Helper()

	var values []string
	dec := json.NewDecoder(strings.NewReader(stream))
	for {
		var obj map[string]any
		err := dec.Decode(&obj)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if s, ok := obj[key].(string); ok {
			values = append(values, s)
		}
	}

	return values
}

func TestExtractor_MatchesFullDecoder(t *testing.T) {
	got := feedWhole(t, chunkingCorpus, WithUnicodeDecoder(NewUTF16Decoder()))
	require.Equal(t, decodeOracle(t, chunkingCorpus, "response"), got)
}

func BenchmarkExtractor_Feed(b *testing.B) {
	stream := []byte(strings.Repeat(chunkingCorpus, 64))
	e, err := New("response", func([]byte, any) {})
	require.NoError(b, err)

	b.SetBytes(int64(len(stream)))
	b.ResetTimer()
	for b.Loop() {
		e.Feed(stream)
	}
}

package hash

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	t.Run("matches one-shot hash regardless of split", func(t *testing.T) {
		data := `{"response":"a"}{"response":"b"}`
		for split := 0; split <= len(data); split++ {
			d := NewDigest()
			d.Write([]byte(data[:split]))
			d.Write([]byte(data[split:]))
			require.Equal(t, xxhash.Sum64String(data), d.Sum64(), "split at %d", split)
			require.Equal(t, int64(len(data)), d.Len())
		}
	})

	t.Run("reset", func(t *testing.T) {
		d := NewDigest()
		d.Write([]byte("abc"))
		d.Reset()
		require.Equal(t, xxhash.Sum64String(""), d.Sum64())
		require.Zero(t, d.Len())
	})
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = letters[seededRand.Intn(len(letters))]
	}

	return string(b)
}

func BenchmarkDigest_Write(b *testing.B) {
	chunk := []byte(randString(512))
	d := NewDigest()
	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for b.Loop() {
		d.Write(chunk)
	}
}

package httpclient

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New(nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableCompression)
	assert.Zero(t, transport.ResponseHeaderTimeout)
}

func TestTLSConfig(t *testing.T) {
	t.Run("insecure", func(t *testing.T) {
		cfg, err := TLSConfig(true, "")
		require.NoError(t, err)
		assert.True(t, cfg.InsecureSkipVerify)
		assert.Nil(t, cfg.RootCAs)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := TLSConfig(false, filepath.Join(t.TempDir(), "missing.pem"))
		require.ErrorContains(t, err, "failed to read CA certificate file")
	})

	t.Run("invalid pem", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := TLSConfig(false, path)
		require.ErrorContains(t, err, "failed to parse CA certificate")
	})
}

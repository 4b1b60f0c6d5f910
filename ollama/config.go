package ollama

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/kouka/errs"
)

const (
	// DefaultHost is where a local Ollama server listens.
	DefaultHost = "http://localhost:11434"

	// DefaultTimeout bounds a whole generation, body included.
	DefaultTimeout = 5 * time.Minute

	generatePath = "/api/generate"

	// maxErrorBody bounds how much of a non-2xx body is read for the message.
	maxErrorBody = 64 * 1024
)

// Config configures a Client. The zero value talks to DefaultHost with
// DefaultTimeout and no rate limit.
type Config struct {
	// Host is the server base URL. A host without scheme gets http://.
	Host string

	// Timeout bounds each Generate call including the streamed body; 0 selects
	// DefaultTimeout and a negative value disables the timeout.
	Timeout time.Duration

	// RateLimit is the number of requests per second; 0 for unlimited.
	RateLimit float64

	// Insecure skips TLS certificate verification.
	Insecure bool

	// CACertFile adds the PEM certificates in this file to the trusted roots.
	CACertFile string

	// AcceptEncoding is sent as the Accept-Encoding header, e.g. "zstd, gzip".
	// The response is decoded according to its Content-Encoding either way.
	AcceptEncoding string

	// ReadBufferSize is the receive slice size; 0 uses the accumulator default.
	ReadBufferSize int

	// MaxBufferSize bounds the stream buffer; 0 uses the accumulator default.
	MaxBufferSize int

	// ValueCapacity bounds a single fragment; 0 uses the extractor default.
	ValueCapacity int

	// DecodeUnicode decodes \uXXXX escapes in fragments to UTF-8 instead of
	// replacing each with a placeholder byte.
	DecodeUnicode bool

	// Logger receives debug logs; nil discards them.
	Logger logrus.FieldLogger
}

// baseURL normalizes Host into a base URL without trailing slash.
func (c Config) baseURL() (*url.URL, error) {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", errs.ErrInvalidHost, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", errs.ErrInvalidHost, c.Host)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	return u, nil
}

func (c Config) timeout() time.Duration {
	switch {
	case c.Timeout == 0:
		return DefaultTimeout
	case c.Timeout < 0:
		return 0
	default:
		return c.Timeout
	}
}

// Package httpclient builds the HTTP client used for streaming generations.
package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// New creates an HTTP client tuned for long-lived streaming responses.
//
// timeout bounds the whole request including reading the body, so it must cover
// the full generation; 0 disables it. Response compression is left to the
// caller: the transport does not add Accept-Encoding, which keeps the body
// encoding explicit in the response headers.
func New(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSClientConfig:        tlsConfig,
		TLSHandshakeTimeout:    10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		IdleConnTimeout:        60 * time.Second,
		MaxIdleConns:           100,
		MaxIdleConnsPerHost:    10,
		MaxResponseHeaderBytes: 1 << 20, // 1 MiB
		DisableCompression:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// TLSConfig returns a TLS configuration that optionally skips verification and
// trusts the PEM certificates in caCertFile on top of the system pool.
func TLSConfig(insecure bool, caCertFile string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in via -insecure
	}

	if caCertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(caCertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", caCertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", caCertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

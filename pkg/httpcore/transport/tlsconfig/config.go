// Package tlsconfig builds a *tls.Config for a transport-session listener
// or dialer out of a small fluent builder, mirroring the manual-certificate
// half of the teacher's TLS configuration API (its Let's Encrypt/ACME half
// has no home in a core that only bridges already-established byte
// streams, so it was not carried over).
package tlsconfig

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// Config holds the TLS options a connection's listener or dialer builds
// a *tls.Config from.
type Config struct {
	CertFile string
	KeyFile  string

	MinVersion   uint16
	MaxVersion   uint16
	CipherSuites []uint16

	SessionTicketsDisabled bool
	Renegotiation          tls.RenegotiationSupport
	ClientAuth             tls.ClientAuthType

	// NextProtos advertises ALPN protocols. Defaults to just "http/1.1";
	// this core does not negotiate h2 or h3.
	NextProtos []string
}

// defaultCipherSuites lists strong, modern, forward-secret suites only.
var defaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// NewConfig returns a builder with secure defaults: TLS 1.2 minimum, TLS
// 1.3 maximum, forward-secret cipher suites, renegotiation disabled.
func NewConfig() *Config {
	return &Config{
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS13,
		CipherSuites: defaultCipherSuites,
		Renegotiation: tls.RenegotiateNever,
		NextProtos:   []string{"http/1.1"},
	}
}

// WithCert sets the certificate and key file paths.
func (c *Config) WithCert(certFile, keyFile string) *Config {
	c.CertFile = certFile
	c.KeyFile = keyFile
	return c
}

// WithMinVersion sets the minimum negotiated TLS version.
func (c *Config) WithMinVersion(version uint16) *Config {
	c.MinVersion = version
	return c
}

// WithClientAuth enables client certificate authentication.
func (c *Config) WithClientAuth(authType tls.ClientAuthType) *Config {
	c.ClientAuth = authType
	return c
}

// Build loads the configured certificate and produces a *tls.Config ready
// to hand to a transport listener or dialer.
func (c *Config) Build() (*tls.Config, error) {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, errors.New("tlsconfig: certificate and key files are required")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsconfig: failed to load certificate: %w", err)
	}

	return &tls.Config{
		Certificates:           []tls.Certificate{cert},
		MinVersion:             c.MinVersion,
		MaxVersion:             c.MaxVersion,
		CipherSuites:           c.CipherSuites,
		SessionTicketsDisabled: c.SessionTicketsDisabled,
		Renegotiation:          c.Renegotiation,
		NextProtos:             c.NextProtos,
		ClientAuth:             c.ClientAuth,
	}, nil
}

// ManualTLS is a convenience constructor equivalent to
// NewConfig().WithCert(certFile, keyFile).Build().
func ManualTLS(certFile, keyFile string) (*tls.Config, error) {
	return NewConfig().WithCert(certFile, keyFile).Build()
}

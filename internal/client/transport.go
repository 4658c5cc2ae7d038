package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"careeros/internal/config"

	"github.com/google/uuid"
)

// NewTransport builds the TLS-aware base transport for service calls.
// It is not instrumented; callers add otelhttp once on top.
func NewTransport(cfg config.TLSConfig) (*http.Transport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	tlsConfig, err := BuildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		base.TLSClientConfig = tlsConfig
	}

	return base, nil
}

// BuildTLSConfig converts client TLS settings into a tls.Config; nil means Go defaults
func BuildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	if cfg.Mode == "" || cfg.Mode == "disabled" {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         parseTLSVersion(cfg.MinVersion),
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	caPEM, err := readPEM(cfg.CAFile, cfg.CAContent)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	if len(caPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certificates found in CA bundle")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.Mode == "mutual" {
		certPEM, err := readPEM(cfg.CertFile, cfg.CertContent)
		if err != nil {
			return nil, fmt.Errorf("failed to read client certificate: %w", err)
		}
		keyPEM, err := readPEM(cfg.KeyFile, cfg.KeyContent)
		if err != nil {
			return nil, fmt.Errorf("failed to read client key: %w", err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load client key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func readPEM(file, content string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if file == "" {
		return nil, nil
	}
	return os.ReadFile(file)
}

func parseTLSVersion(version string) uint16 {
	if version == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// headerTransport stamps identity headers on every outgoing request
type headerTransport struct {
	next      http.RoundTripper
	token     string
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	req.Header.Set("Accept", "application/json")
	return t.next.RoundTrip(req)
}

package remote

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/atinyakov/grocerease/internal/middleware"
	"go.uber.org/zap"
)

// TLSOptions configures the transport towards the data service. Every
// field is optional; CertFile and KeyFile enable mutual TLS together.
type TLSOptions struct {
	CAFile   string
	CertFile string
	KeyFile  string
	Timeout  time.Duration
}

// NewHTTPClient builds the http.Client used by Client. Requests are logged
// through middleware.WithRequestLogging.
func NewHTTPClient(opts TLSOptions, log *zap.Logger) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if opts.CAFile != "" || opts.CertFile != "" {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

		if opts.CAFile != "" {
			caCert, err := os.ReadFile(opts.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA cert: %w", err)
			}
			caPool := x509.NewCertPool()
			if !caPool.AppendCertsFromPEM(caCert) {
				return nil, errors.New("failed to parse CA cert")
			}
			tlsConfig.RootCAs = caPool
		}

		if opts.CertFile != "" {
			cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load client cert/key: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Transport: middleware.WithRequestLogging(log, transport),
		Timeout:   opts.Timeout,
	}, nil
}

package lcuclient

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	_ "embed"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

// riotgames.pem is the self-signed root that issues the local client API certificate
//
//go:embed riotgames.pem
var defaultRootPEM []byte

// DefaultTrustAnchor returns the built-in Riot Games root certificate in PEM form
func DefaultTrustAnchor() []byte {
	return bytes.Clone(defaultRootPEM)
}

// ResolveTrustAnchor picks the trust anchor bytes for a client.
// Explicit bytes win, then a certificate file, then the built-in root.
// A configured file that cannot be read is an error, never a silent fallback.
func ResolveTrustAnchor(certFile string, certPEM []byte) ([]byte, error) {
	if len(certPEM) > 0 {
		return certPEM, nil
	}
	if certFile != "" {
		data, err := os.ReadFile(certFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCertNotFound, certFile, err)
		}
		return data, nil
	}
	return DefaultTrustAnchor(), nil
}

// trustAnchor verifies server certificates against pinned roots only
type trustAnchor struct {
	pool  *x509.CertPool
	roots []*x509.Certificate
}

func newTrustAnchor(pemBytes []byte) (*trustAnchor, error) {
	anchor := &trustAnchor{pool: x509.NewCertPool()}

	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCert, err)
		}
		anchor.pool.AddCert(cert)
		anchor.roots = append(anchor.roots, cert)
	}

	if len(anchor.roots) == 0 {
		return nil, fmt.Errorf("%w: no PEM certificate found", ErrInvalidCert)
	}
	return anchor, nil
}

// tlsConfig returns a client config that trusts nothing but the anchor.
// Built-in verification is switched off because the local client certificate
// carries no SAN for 127.0.0.1; verifyConnection does the chain check instead.
func (a *trustAnchor) tlsConfig() *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec // chain is verified in VerifyConnection
		VerifyConnection:   a.verifyConnection,
	}
}

func (a *trustAnchor) verifyConnection(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("%w: no certificate presented", ErrUntrustedCertificate)
	}
	leaf := cs.PeerCertificates[0]

	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}

	// No DNSName: the endpoint is always loopback
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		Roots:         a.pool,
		Intermediates: intermediates,
	})
	if verifyErr == nil {
		return nil
	}

	// The client's leaf predates modern x509 rules (no SAN, legacy usages),
	// so accept a direct signature by a pinned root as well.
	now := time.Now()
	for _, root := range a.roots {
		if leaf.Equal(root) {
			return nil
		}
		if leaf.CheckSignatureFrom(root) == nil && now.After(leaf.NotBefore) && now.Before(leaf.NotAfter) {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrUntrustedCertificate, verifyErr)
}

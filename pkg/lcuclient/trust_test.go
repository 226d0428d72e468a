package lcuclient

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTrustAnchor(t *testing.T) {
	block, _ := pem.Decode(DefaultTrustAnchor())
	require.NotNil(t, block)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	// v1 root: no basicConstraints, so self-signature is the only CA evidence
	require.NoError(t, cert.CheckSignatureFrom(cert))
	assert.Equal(t, "LoL Game Engineering Certificate Authority", cert.Subject.CommonName)
}

func TestDefaultTrustAnchor_ReturnsCopy(t *testing.T) {
	first := DefaultTrustAnchor()
	first[0] = 'X'
	assert.NotEqual(t, first[0], DefaultTrustAnchor()[0])
}

func TestResolveTrustAnchor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.pem")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))

	t.Run("explicit_bytes_win", func(t *testing.T) {
		got, err := ResolveTrustAnchor(path, []byte("explicit"))
		require.NoError(t, err)
		assert.Equal(t, "explicit", string(got))
	})

	t.Run("readable_file", func(t *testing.T) {
		got, err := ResolveTrustAnchor(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "from-file", string(got))
	})

	t.Run("unreadable_file_is_fatal", func(t *testing.T) {
		got, err := ResolveTrustAnchor(filepath.Join(dir, "missing.pem"), nil)
		assert.ErrorIs(t, err, ErrCertNotFound)
		assert.Nil(t, got)
	})

	t.Run("default_when_unset", func(t *testing.T) {
		got, err := ResolveTrustAnchor("", nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultTrustAnchor(), got)
	})
}

func TestNewTrustAnchor(t *testing.T) {
	t.Run("default_root", func(t *testing.T) {
		anchor, err := newTrustAnchor(DefaultTrustAnchor())
		require.NoError(t, err)
		assert.Len(t, anchor.roots, 1)
	})

	t.Run("skips_non_certificate_blocks", func(t *testing.T) {
		key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}})
		anchor, err := newTrustAnchor(append(key, DefaultTrustAnchor()...))
		require.NoError(t, err)
		assert.Len(t, anchor.roots, 1)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := newTrustAnchor(nil)
		assert.ErrorIs(t, err, ErrInvalidCert)
	})

	t.Run("corrupt_certificate", func(t *testing.T) {
		bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
		_, err := newTrustAnchor(bad)
		assert.ErrorIs(t, err, ErrInvalidCert)
	})
}

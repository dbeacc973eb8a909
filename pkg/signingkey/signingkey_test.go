package signingkey_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-douk/tahini-attest-go/pkg/signingkey"
)

func writeDER(t *testing.T, dir string, der []byte) string {
	t.Helper()
	path := filepath.Join(dir, "key.der")
	require.NoError(t, os.WriteFile(path, der, 0o600))
	return path
}

func TestLoadPKCS8Ed25519_RoundTripsAGeneratedKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := writeDER(t, t.TempDir(), der)

	loaded, err := signingkey.LoadPKCS8Ed25519(path)
	require.NoError(t, err)
	assert.Equal(t, priv, loaded)
	assert.Equal(t, pub, loaded.Public())
}

func TestPublicKeyFromPKCS8DER_MatchesParsedKeysPublicHalf(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	extracted, err := signingkey.PublicKeyFromPKCS8DER(der)
	require.NoError(t, err)
	assert.Equal(t, ed25519.PublicKey(pub), extracted)
}

func TestPublicKeyFromPKCS8DER_RejectsTooShortInput(t *testing.T) {
	_, err := signingkey.PublicKeyFromPKCS8DER([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestLoadPublicKeyFromPKCS8DERFile_RoundTrips(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := writeDER(t, t.TempDir(), der)

	loaded, err := signingkey.LoadPublicKeyFromPKCS8DERFile(path)
	require.NoError(t, err)
	assert.Equal(t, ed25519.PublicKey(pub), loaded)
}

func TestParsePKCS8Ed25519_RejectsMalformedDER(t *testing.T) {
	// Bytes that are not a DER document fail to parse as PKCS8 at all.
	_, err := signingkey.ParsePKCS8Ed25519([]byte("not a real DER document"))
	assert.Error(t, err)
}

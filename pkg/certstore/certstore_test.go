package certstore_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

func writeCertificate(t *testing.T, dir, name string, cert attesttypes.TahiniCertificate) string {
	t.Helper()
	body, err := json.Marshal(cert)
	require.NoError(t, err)
	path := filepath.Join(dir, name+"_certificate.json")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func TestRegisterService_RejectsServiceNameMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeCertificate(t, dir, "service-a", attesttypes.TahiniCertificate{ServiceName: "service-a"})

	store := certstore.New()
	err := store.RegisterService(path, "service-b")
	require.Error(t, err)
	assert.ErrorIs(t, err, attesttypes.ErrServiceMismatchSentinel)
}

func TestRegisterService_AcceptsMatchingServiceName(t *testing.T) {
	dir := t.TempDir()
	cert := attesttypes.TahiniCertificate{ServiceName: "service-a", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc"}
	path := writeCertificate(t, dir, "service-a", cert)

	store := certstore.New()
	require.NoError(t, store.RegisterService(path, "service-a"))

	got, ok := store.GetCertificate("service-a")
	require.True(t, ok)
	assert.Equal(t, cert, got)
}

func TestLoad_RegistersCertificatesAndReverseMapping(t *testing.T) {
	certsDir := t.TempDir()
	cert := attesttypes.TahiniCertificate{ServiceName: "service-a", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc"}
	certPath := writeCertificate(t, certsDir, "service-a", cert)

	configDir := t.TempDir()
	configPath := filepath.Join(configDir, "certificate_config.toml")
	tomlBody := "[certificates]\nservice-a = " + "\"" + certPath + "\"\n\n[service_mapping]\nservice-a = \"public-a\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(tomlBody), 0o644))

	store := certstore.New()
	require.NoError(t, store.Load(configPath))

	got, ok := store.GetCertificate("service-a")
	require.True(t, ok)
	assert.Equal(t, cert, got)

	internalName, ok := store.GetReverseMapping("public-a")
	require.True(t, ok)
	assert.Equal(t, attesttypes.ServiceName("service-a"), internalName)
}

func TestLoadSigningKey_IsIdempotent(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.der")
	require.NoError(t, os.WriteFile(keyPath, der, 0o600))

	store := certstore.New()
	require.NoError(t, store.LoadSigningKey(keyPath))
	first := store.SigningKey()
	require.NotNil(t, first)

	// A second call, even with a bogus path, must be a no-op.
	require.NoError(t, store.LoadSigningKey("/does/not/exist"))
	assert.Equal(t, first, store.SigningKey())
}

func TestGetCertificate_UnknownServiceReturnsFalse(t *testing.T) {
	store := certstore.New()
	_, ok := store.GetCertificate("missing")
	assert.False(t, ok)
}

func TestGetReverseMapping_UnknownPublicNameReturnsFalse(t *testing.T) {
	store := certstore.New()
	_, ok := store.GetReverseMapping("missing")
	assert.False(t, ok)
}

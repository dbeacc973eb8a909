package client_test

import (
	"crypto/ed25519"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	"github.com/alex-douk/tahini-attest-go/pkg/client"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

func buildStoreWithCertificate(t *testing.T, cert attesttypes.TahiniCertificate, publicName string) *certstore.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cert.json")
	body, err := json.Marshal(cert)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	configDir := t.TempDir()
	configPath := filepath.Join(configDir, "certificate_config.toml")
	tomlBody := "[certificates]\n" + string(cert.ServiceName) + " = \"" + path + "\"\n\n[service_mapping]\n" +
		string(cert.ServiceName) + " = \"" + publicName + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(tomlBody), 0o644))

	store := certstore.New()
	require.NoError(t, store.Load(configPath))
	return store
}

func serveOneAttestation(t *testing.T, ln net.Listener, priv ed25519.PrivateKey, cert attesttypes.TahiniCertificate) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = attest.ServeOne(conn, func(req attesttypes.AttestBinaryRequest) (*attesttypes.DynamicAttestationReport, error) {
			serverKP, err := attest.GenerateX25519KeyPair()
			if err != nil {
				return nil, err
			}
			data := attesttypes.AttestationSigningData{
				Certificate:    cert,
				Nonce:          req.Nonce,
				ServiceName:    req.ServiceName,
				CurrentBinHash: cert.BinaryHash,
				ServerKeyShare: attesttypes.HexBytes(serverKP.Public[:]),
				ClientID:       99,
			}
			sig, err := attest.SignReport(priv, data)
			if err != nil {
				return nil, err
			}
			return &attesttypes.DynamicAttestationReport{
				Certificate:    data.Certificate,
				Nonce:          data.Nonce,
				ServiceName:    data.ServiceName,
				CurrentBinHash: data.CurrentBinHash,
				ServerKeyShare: data.ServerKeyShare,
				ClientID:       data.ClientID,
				Signature:      sig,
			}, nil
		})
	}()
}

func TestVerify_SucceedsAgainstAWellBehavedSidecar(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	cert := attesttypes.TahiniCertificate{ServiceName: "service-a", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc"}
	store := buildStoreWithCertificate(t, cert, "public-a")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOneAttestation(t, ln, priv, cert)

	result, err := client.Verify(ln.Addr().String(), "public-a", store, pub)
	require.NoError(t, err)
	assert.Equal(t, attesttypes.ClientID(99), result.ClientID)
	assert.Len(t, result.SessionKey, 32)
}

func TestVerify_UnknownPublicServiceNameIsInvalidAttestation(t *testing.T) {
	store := certstore.New()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = client.Verify("127.0.0.1:1", "unmapped", store, pub)
	assert.ErrorIs(t, err, attesttypes.ErrInvalidAttestationSentinel)
}

func TestVerify_DialFailureIsNetworkError(t *testing.T) {
	cert := attesttypes.TahiniCertificate{ServiceName: "service-a", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc"}
	store := buildStoreWithCertificate(t, cert, "public-a")
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = client.Verify(addr, "public-a", store, pub)
	require.Error(t, err)
	var attestErr *attesttypes.AttestError
	require.ErrorAs(t, err, &attestErr)
	assert.Equal(t, attesttypes.ErrNetwork, attestErr.Kind)
}

func TestVerify_SignatureMismatchIsInvalidAttestation(t *testing.T) {
	_, wrongPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	cert := attesttypes.TahiniCertificate{ServiceName: "service-a", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc"}
	store := buildStoreWithCertificate(t, cert, "public-a")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveOneAttestation(t, ln, wrongPriv, cert)

	_, err = client.Verify(ln.Addr().String(), "public-a", store, pub)
	assert.ErrorIs(t, err, attesttypes.ErrInvalidAttestationSentinel)
}

package sidecar

import (
	"crypto/ed25519"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

func TestServe_AnswersOneAttestationPerConnection(t *testing.T) {
	store := certstore.New()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	certPath := t.TempDir() + "/cert.json"
	require.NoError(t, os.WriteFile(certPath,
		[]byte(`{"service_name":"service-a","policy_hash":"aa","binary_hash":"bb","signature":"cc"}`), 0o644))
	require.NoError(t, store.RegisterService(certPath, "service-a"))

	kek := make([]byte, 32)
	writer, readEnd := pipeWriter(t, kek)
	go func() {
		buf := make([]byte, 4096)
		_, _ = readEnd.Read(buf)
	}()

	s := New(store, zap.NewNop())
	s.RegisterBinary("service-a", "public-a", "bb", writer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() { _ = Serve(ln, s, priv, zap.NewNop()) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	clientKP, err := attest.GenerateX25519KeyPair()
	require.NoError(t, err)
	nonce, err := attesttypes.NewNonce128()
	require.NoError(t, err)

	report, err := attest.CallAttestBinary(conn, attesttypes.AttestBinaryRequest{
		ServiceName:    "service-a",
		Nonce:          nonce,
		ClientKeyShare: attesttypes.HexBytes(clientKP.Public[:]),
	})
	require.NoError(t, err)

	ok, err := attest.VerifyReport(pub, *report)
	require.NoError(t, err)
	assert.True(t, ok)
}

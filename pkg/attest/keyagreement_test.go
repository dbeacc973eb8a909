package attest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
)

func TestX25519Agreement_BothSidesDeriveTheSameSessionKey(t *testing.T) {
	client, err := attest.GenerateX25519KeyPair()
	require.NoError(t, err)
	server, err := attest.GenerateX25519KeyPair()
	require.NoError(t, err)

	clientShared, err := attest.Agree(client.Private, server.Public[:])
	require.NoError(t, err)
	serverShared, err := attest.Agree(server.Private, client.Public[:])
	require.NoError(t, err)
	require.Equal(t, clientShared, serverShared)

	clientKey, err := attest.DeriveSessionKey(clientShared)
	require.NoError(t, err)
	serverKey, err := attest.DeriveSessionKey(serverShared)
	require.NoError(t, err)

	assert.Equal(t, clientKey, serverKey)
	assert.Len(t, clientKey, 32)
}

func TestGenerateX25519KeyPair_ProducesDistinctKeys(t *testing.T) {
	a, err := attest.GenerateX25519KeyPair()
	require.NoError(t, err)
	b, err := attest.GenerateX25519KeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, a.Private, b.Private)
	assert.NotEqual(t, a.Public, b.Public)
}

func TestDerivePipeKEK_BoundToFifoPath(t *testing.T) {
	ikm := make([]byte, 32)
	salt := make([]byte, 32)

	kekA, err := attest.DerivePipeKEK(ikm, salt, "/tmp/fifo-a")
	require.NoError(t, err)
	kekB, err := attest.DerivePipeKEK(ikm, salt, "/tmp/fifo-b")
	require.NoError(t, err)

	assert.NotEqual(t, kekA, kekB)
	assert.Len(t, kekA, 32)
}

func TestDerivePipeKEK_DeterministicGivenSameInputs(t *testing.T) {
	ikm := []byte("fixed-input-keying-material-3233")
	salt := []byte("fixed-salt-exactly-32-bytes!!!!!")

	a, err := attest.DerivePipeKEK(ikm, salt, "/tmp/fifo")
	require.NoError(t, err)
	b, err := attest.DerivePipeKEK(ikm, salt, "/tmp/fifo")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

package certissuer_test

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/certissuer"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

func writeExecutable(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o755))
	return path
}

func TestDiscoverBinaries_SkipsNonExecutablesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "service-a", []byte("bin"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a binary"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	candidates, err := certissuer.DiscoverBinaries(dir)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "service-a", candidates[0].Name)
}

func TestAttachPolicyHash_ReadsFirstLineWhenPresent(t *testing.T) {
	dir := t.TempDir()
	policyDir := t.TempDir()
	bin := writeExecutable(t, dir, "service-a", []byte("bin"))

	require.NoError(t, os.WriteFile(
		filepath.Join(policyDir, "service-a_policy_hashes.json"),
		[]byte("deadbeefcafe\n{\"more\": \"json\"}\n"),
		0o644,
	))

	c := certissuer.Candidate{Name: "service-a", BinPath: bin}
	c, err := certissuer.AttachPolicyHash(c, policyDir)
	require.NoError(t, err)
	assert.True(t, c.HasPolicy)
	assert.Equal(t, attesttypes.PolicyHash("deadbeefcafe"), c.PolicyHash)
}

func TestAttachPolicyHash_MissingFileLeavesHasPolicyFalse(t *testing.T) {
	c := certissuer.Candidate{Name: "no-policy", BinPath: "/does/not/matter"}
	c, err := certissuer.AttachPolicyHash(c, t.TempDir())
	require.NoError(t, err)
	assert.False(t, c.HasPolicy)
}

func TestHashBinary_ComputesSHA256OfContents(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "service-a", []byte("hello"))

	h, err := certissuer.HashBinary(path)
	require.NoError(t, err)
	assert.Equal(t, attesttypes.BinHash("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"), h)
}

func TestIssueCertificate_SignatureVerifiesUnderSigningBytes(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := certissuer.IssueCertificate(priv, "svc", "aabb", "ccdd")
	require.NoError(t, err)

	blob, err := cert.SigningBytes()
	require.NoError(t, err)

	sigBytes, err := hex.DecodeString(string(cert.Signature))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, blob, sigBytes))
}

func TestWriteCertificate_WritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	cert := attesttypes.TahiniCertificate{
		ServiceName: "svc", PolicyHash: "aa", BinaryHash: "bb", Signature: "cc",
	}
	require.NoError(t, certissuer.WriteCertificate(dir, "service-a", cert))

	data, err := os.ReadFile(filepath.Join(dir, "service-a_certificate.json"))
	require.NoError(t, err)

	var roundTripped attesttypes.TahiniCertificate
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	assert.Equal(t, cert, roundTripped)
}

func TestRun_IssuesCertificatesOnlyForBinariesWithPolicyHashFiles(t *testing.T) {
	releaseDir := t.TempDir()
	policyDir := t.TempDir()
	certsDir := t.TempDir()

	writeExecutable(t, releaseDir, "with-policy", []byte("bin-a"))
	writeExecutable(t, releaseDir, "without-policy", []byte("bin-b"))

	require.NoError(t, os.WriteFile(
		filepath.Join(policyDir, "with-policy_policy_hashes.json"),
		[]byte("aabbccdd\n"),
		0o644,
	))

	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	l := zap.NewNop()
	issued, err := certissuer.Run(l, priv, releaseDir, policyDir, certsDir)
	require.NoError(t, err)
	assert.Equal(t, 1, issued)

	_, err = os.Stat(filepath.Join(certsDir, "with-policy_certificate.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(certsDir, "without-policy_certificate.json"))
	assert.True(t, os.IsNotExist(err))
}

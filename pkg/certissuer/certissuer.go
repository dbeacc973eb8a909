// Package certissuer implements the offline certificate-issuing tool: it
// walks a project's target/release/ directory, pairs each executable with
// its policy-hash file, content-hashes the binary, and signs the pair
// under the issuer's Ed25519 key.
package certissuer

import (
	"bufio"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

const hashChunkSize = 8 * 1024

// Candidate is one discovered binary under target/release/: its name, its
// path, and the policy hash read from its paired policy-hash file (HasPolicy
// reports whether one was found). The content hash is computed separately
// by HashBinary.
type Candidate struct {
	Name       string
	BinPath    string
	PolicyHash attesttypes.PolicyHash
	HasPolicy  bool
}

// DiscoverBinaries enumerates regular files under releaseDir with any
// execute permission bit set. Order is lexicographic by name for
// reproducible logging, though nothing downstream depends on the order.
func DiscoverBinaries(releaseDir string) ([]Candidate, error) {
	entries, err := os.ReadDir(releaseDir)
	if err != nil {
		return nil, errors.Wrapf(err, "certissuer: reading %s", releaseDir)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "certissuer: stat %s", entry.Name())
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:    entry.Name(),
			BinPath: filepath.Join(releaseDir, entry.Name()),
		})
	}
	return candidates, nil
}

// AttachPolicyHash looks for <policyHashesDir>/<name>_policy_hashes.json and,
// if present, reads its first line as the policy hash. A binary with no
// matching file is left with HasPolicy false and is silently skipped later
// (its service implements no policies).
func AttachPolicyHash(c Candidate, policyHashesDir string) (Candidate, error) {
	path := filepath.Join(policyHashesDir, c.Name+"_policy_hashes.json")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrapf(err, "certissuer: opening %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return c, nil
	}
	c.PolicyHash = attesttypes.PolicyHash(scanner.Text())
	c.HasPolicy = c.PolicyHash != ""
	return c, nil
}

// HashBinary computes the SHA-256 of a binary's contents, streaming it in
// 8 KiB chunks so arbitrarily large executables never need to be held
// entirely in memory.
func HashBinary(path string) (attesttypes.BinHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "certissuer: opening %s", path)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	// Hide *os.File's WriteTo so CopyBuffer actually reads through buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", errors.Wrapf(err, "certissuer: hashing %s", path)
	}
	return attesttypes.BinHash(hex.EncodeToString(h.Sum(nil))), nil
}

// IssueCertificate signs hex-decode(policyHash) || hex-decode(binHash)
// under priv and assembles the resulting certificate for serviceName.
func IssueCertificate(priv ed25519.PrivateKey, serviceName attesttypes.ServiceName, policyHash attesttypes.PolicyHash, binHash attesttypes.BinHash) (attesttypes.TahiniCertificate, error) {
	cert := attesttypes.TahiniCertificate{
		ServiceName: serviceName,
		PolicyHash:  policyHash,
		BinaryHash:  binHash,
	}
	blob, err := cert.SigningBytes()
	if err != nil {
		return attesttypes.TahiniCertificate{}, errors.Wrap(err, "certissuer: assembling signing bytes")
	}
	sig := ed25519.Sign(priv, blob)
	cert.Signature = attesttypes.Signature(hex.EncodeToString(sig))
	return cert, nil
}

// WriteCertificate writes cert as <binaryName>_certificate.json under
// certsDir, creating the directory if absent and overwriting any existing
// certificate for the same binary.
func WriteCertificate(certsDir, binaryName string, cert attesttypes.TahiniCertificate) error {
	if err := os.MkdirAll(certsDir, 0o755); err != nil {
		return errors.Wrapf(err, "certissuer: creating %s", certsDir)
	}
	body, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return errors.Wrap(err, "certissuer: marshaling certificate")
	}
	path := filepath.Join(certsDir, binaryName+"_certificate.json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return errors.Wrapf(err, "certissuer: writing %s", path)
	}
	return nil
}

// Run drives the whole pipeline: discover candidates under releaseDir,
// attach policy hashes from policyHashesDir, content-hash and sign each
// fully-paired candidate under priv, and write its certificate into
// certsDir. Binaries without a policy-hash file are skipped; l logs each
// skip at debug level and each issued certificate at info level.
func Run(l *zap.Logger, priv ed25519.PrivateKey, releaseDir, policyHashesDir, certsDir string) (int, error) {
	candidates, err := DiscoverBinaries(releaseDir)
	if err != nil {
		return 0, err
	}

	issued := 0
	for _, c := range candidates {
		c, err = AttachPolicyHash(c, policyHashesDir)
		if err != nil {
			return issued, err
		}
		if !c.HasPolicy {
			l.Sugar().Debugw("skipping binary with no policy-hash file", "binary", c.Name)
			continue
		}

		binHash, err := HashBinary(c.BinPath)
		if err != nil {
			return issued, err
		}

		serviceName := attesttypes.ServiceName(c.Name)
		cert, err := IssueCertificate(priv, serviceName, c.PolicyHash, binHash)
		if err != nil {
			return issued, err
		}
		if err := WriteCertificate(certsDir, c.Name, cert); err != nil {
			return issued, err
		}
		l.Sugar().Infow("issued certificate", "binary", c.Name, "policy_hash", c.PolicyHash, "binary_hash", binHash)
		issued++
	}
	return issued, nil
}

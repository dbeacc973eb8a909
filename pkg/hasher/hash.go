package hasher

import (
	"bytes"
	"fmt"

	"github.com/alex-douk/tahini-attest-go/pkg/canonical"
	"golang.org/x/tools/go/packages"
)

// HashImplementation prints every method in impl.Methods (already sorted by
// name) through the stable printer and feeds the concatenated bytes into
// HashFNV128, producing the 32-hex-character fingerprint paired with the
// implementing type's fully-qualified path.
func HashImplementation(pkg *packages.Package, impl Implementation) (string, error) {
	var buf bytes.Buffer
	for _, fn := range impl.Methods {
		printed, err := printStable(pkg, fn)
		if err != nil {
			return "", err
		}
		buf.Write(printed)
		buf.WriteByte('\n')
	}
	return HashFNV128Hex(buf.Bytes()), nil
}

// HashImplementations hashes every implementation found in pkg and returns
// the policy_type_path -> impl_hash map required by PolicyHashFile.
func HashImplementations(pkg *packages.Package, impls []Implementation) (map[string]string, error) {
	out := make(map[string]string, len(impls))
	for _, impl := range impls {
		h, err := HashImplementation(pkg, impl)
		if err != nil {
			return nil, fmt.Errorf("hasher: hashing %s: %w", impl.TypePath, err)
		}
		out[impl.TypePath] = h
	}
	return out, nil
}

// LocalSummaryHash canonically serializes implHashes and hashes the result,
// per the local_summary_hash invariant.
func LocalSummaryHash(implHashes map[string]string) (string, error) {
	return canonical.Hash(implHashes)
}

// CrateSummary canonically serializes depHashes, hashes it, then hashes the
// ASCII concatenation of that digest with localSummaryHash. This is the
// crate summary written as the first line of the policy-hash file.
func CrateSummary(depHashes map[string]string, localSummaryHash string) (string, error) {
	depDigest, err := canonical.Hash(depHashes)
	if err != nil {
		return "", fmt.Errorf("hasher: hashing dependency map: %w", err)
	}
	return canonical.HashBytes([]byte(depDigest + localSummaryHash)), nil
}

package hasher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// WritePolicyHashFile writes the summary line followed by the JSON body to
// path, via a temp file in the same directory followed by an atomic rename,
// so a reader never observes a partially-written policy-hash file.
func WritePolicyHashFile(path, summary string, file attesttypes.PolicyHashFile) error {
	body, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("hasher: marshaling policy-hash file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".policy-hash-*.tmp")
	if err != nil {
		return fmt.Errorf("hasher: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := fmt.Fprintf(tmp, "%s\n%s\n", summary, body); err != nil {
		tmp.Close()
		return fmt.Errorf("hasher: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("hasher: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("hasher: renaming temp file into place: %w", err)
	}
	return nil
}

// ReadHashIndex reads the hash-index file at path. A missing file is
// treated as an empty index (the "created empty at build start" case), not
// an error.
func ReadHashIndex(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("hasher: reading hash index: %w", err)
	}
	return string(data), nil
}

// AppendHashIndex appends crateName followed by a newline to the hash-index
// file at path, creating it if absent. The index is append-only within one
// build.
func AppendHashIndex(path, crateName string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("hasher: opening hash index: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\n", crateName); err != nil {
		return fmt.Errorf("hasher: appending to hash index: %w", err)
	}
	return nil
}

// PolicyHashFilePath returns the path the certificate issuer and roll-up
// reader both use to locate a dependency's policy-hash file:
// <dir>/<crateName>_policy_hashes.json.
func PolicyHashFilePath(dir, crateName string) string {
	return filepath.Join(dir, crateName+"_policy_hashes.json")
}

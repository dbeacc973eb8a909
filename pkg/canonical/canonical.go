// Package canonical produces the canonical byte representation used
// everywhere a hash or a signature must be stable across re-serialization:
// dependency-hash maps, policy-impl-hash maps, and attestation signing
// blobs all flow through here before being hashed or signed.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Marshal JSON-encodes v and then canonicalizes it per RFC 8785. Map keys
// end up sorted and number/string formatting is normalized, so two callers
// that build logically-equal values always get byte-identical output.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsoncanonicalizer.Transform(raw)
}

// Hash canonicalizes v and returns the lowercase-hex SHA-256 of the result.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns the lowercase-hex SHA-256 of raw bytes, with no
// canonicalization step. Used to fold two already-hex digests together
// (e.g. the crate summary hash, which concatenates two hex strings as
// ASCII before hashing).
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

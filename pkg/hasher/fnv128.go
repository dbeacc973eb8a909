package hasher

import (
	"encoding/hex"
	"hash/fnv"
)

// HashFNV128 fingerprints data as a 128-bit value via two parallel FNV-64a
// passes, the second decorrelated from the first by a trailing sentinel
// byte, concatenated into 16 bytes. This keeps the impl hasher dependency-
// free and deterministic: same input, same 32 lowercase hex characters out,
// forever.
func HashFNV128(data []byte) [16]byte {
	h1 := fnv.New64a()
	_, _ = h1.Write(data)
	h2 := fnv.New64a()
	_, _ = h2.Write(data)
	_, _ = h2.Write([]byte{0x01})

	var out [16]byte
	copy(out[:8], h1.Sum(nil))
	copy(out[8:], h2.Sum(nil))
	return out
}

// HashFNV128Hex is HashFNV128 encoded as 32 lowercase hex characters.
func HashFNV128Hex(data []byte) string {
	sum := HashFNV128(data)
	return hex.EncodeToString(sum[:])
}

// Package attest holds the cryptographic and wire primitives shared by both
// sides of the attestation protocol: X25519 key agreement, HKDF-SHA256
// session-key derivation (the Go analogue of the reference's
// SSKDF-HMAC-SHA256), AES-256-GCM sealing, and the length-delimited JSON
// framing the RPC runs over.
package attest

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// SessionKeyInfo is the HKDF info string the sidecar and the client both
// derive the attestation session key with.
const SessionKeyInfo = "Sidecar_session"

// X25519KeyPair is an ephemeral Diffie-Hellman key pair, generated fresh
// for every attestation and discarded once the agreement step finishes.
type X25519KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateX25519KeyPair draws a fresh ephemeral key pair.
func GenerateX25519KeyPair() (X25519KeyPair, error) {
	var kp X25519KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return X25519KeyPair{}, fmt.Errorf("attest: generating X25519 private key: %w", err)
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return X25519KeyPair{}, fmt.Errorf("attest: deriving X25519 public key: %w", err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// Agree computes the shared X25519 secret between a local private key and a
// peer's public share.
func Agree(private [32]byte, peerPublic []byte) ([]byte, error) {
	shared, err := curve25519.X25519(private[:], peerPublic)
	if err != nil {
		return nil, fmt.Errorf("attest: X25519 agreement: %w", err)
	}
	return shared, nil
}

// DeriveSessionKey expands a shared secret into a 32-byte AES-256 key via
// HKDF-SHA256, with the attestation protocol's fixed zero salt and
// "Sidecar_session" info string. Both the sidecar and the client call this
// with the same parameters so they land on the same key.
func DeriveSessionKey(sharedSecret []byte) ([]byte, error) {
	return hkdfExpand(sharedSecret, make([]byte, 32), []byte(SessionKeyInfo))
}

// DerivePipeKEK expands random input keying material into the 32-byte
// key-encryption key the sidecar uses to seal session keys onto the FIFO,
// salted and bound to the FIFO path so a KEK can never be replayed across
// services sharing the same sidecar process.
func DerivePipeKEK(ikm, salt []byte, fifoPath string) ([]byte, error) {
	return hkdfExpand(ikm, salt, []byte(fifoPath))
}

func hkdfExpand(secret, salt, info []byte) ([]byte, error) {
	r := hkdf.New(newSHA256, secret, salt, info)
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("attest: HKDF expansion: %w", err)
	}
	return key, nil
}

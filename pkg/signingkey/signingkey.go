// Package signingkey loads the PKCS#8-DER-encoded Ed25519 signing key
// shared by the certificate issuer and the sidecar, and reproduces the
// deliberate "public key is the last 32 bytes of the DER" shortcut a
// verifier must use when it only has the DER bytes, not the parsed key.
package signingkey

import (
	"crypto/ed25519"
	"crypto/x509"
	"fmt"
	"os"
)

// LoadPKCS8Ed25519 reads and parses a PKCS#8-DER-encoded Ed25519 private
// key from path.
func LoadPKCS8Ed25519(path string) (ed25519.PrivateKey, error) {
	der, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signingkey: reading %s: %w", path, err)
	}
	return ParsePKCS8Ed25519(der)
}

// ParsePKCS8Ed25519 parses raw PKCS#8 DER bytes into an Ed25519 private key.
func ParsePKCS8Ed25519(der []byte) (ed25519.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("signingkey: parsing PKCS8 DER: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signingkey: PKCS8 key is not Ed25519")
	}
	return priv, nil
}

// PublicKeyFromPKCS8DER extracts the Ed25519 public key as the last 32
// bytes of the DER encoding, the shortcut a verifier that only holds the
// raw DER bytes (not the parsed private key) must reproduce.
func PublicKeyFromPKCS8DER(der []byte) (ed25519.PublicKey, error) {
	if len(der) < ed25519.PublicKeySize {
		return nil, fmt.Errorf("signingkey: DER too short to contain an Ed25519 public key")
	}
	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, der[len(der)-ed25519.PublicKeySize:])
	return pub, nil
}

// LoadPublicKeyFromPKCS8DERFile reads path and extracts the public key via
// PublicKeyFromPKCS8DER.
func LoadPublicKeyFromPKCS8DERFile(path string) (ed25519.PublicKey, error) {
	der, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signingkey: reading %s: %w", path, err)
	}
	return PublicKeyFromPKCS8DER(der)
}

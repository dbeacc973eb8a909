// Package types holds the wire and on-disk data model shared by every
// component of the attestation framework: service identity, the hash and
// signature string types, the certificate, and the dynamic attestation
// report exchanged between a sidecar and a client.
package types

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ServiceName is an opaque, case-sensitive, byte-exact-equality identifier
// used as a map key throughout the framework.
type ServiceName string

// PolicyHash is a lowercase-hex crate/package summary fingerprint.
type PolicyHash string

// BinHash is the lowercase-hex SHA-256 of a service executable's contents.
type BinHash string

// Signature is a lowercase-hex Ed25519 signature.
type Signature string

// ClientID is drawn uniformly at random for each attestation and used as
// the service-side session-key map key.
type ClientID uint64

// HexBytes round-trips through JSON as a lowercase-hex string rather than
// Go's default base64 []byte encoding, keeping every on-wire byte string in
// the framework in the same hex convention as the hash and signature types.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("HexBytes: %w", err)
	}
	*h = decoded
	return nil
}

// Nonce128 is a 128-bit value drawn by the client for each attestation
// request, round-tripped on the wire as 32 lowercase-hex characters.
type Nonce128 [16]byte

func NewNonce128() (Nonce128, error) {
	var n Nonce128
	if _, err := rand.Read(n[:]); err != nil {
		return Nonce128{}, err
	}
	return n, nil
}

func (n Nonce128) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(n[:]))
}

func (n *Nonce128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("Nonce128: %w", err)
	}
	if len(decoded) != 16 {
		return fmt.Errorf("Nonce128: expected 16 bytes, got %d", len(decoded))
	}
	copy(n[:], decoded)
	return nil
}

func (n Nonce128) String() string { return hex.EncodeToString(n[:]) }

// TahiniCertificate binds a service identity to the crate summary hash and
// the binary content hash under an offline Ed25519 signature. Certificates
// are immutable once issued.
type TahiniCertificate struct {
	ServiceName ServiceName `json:"service_name"`
	PolicyHash  PolicyHash  `json:"policy_hash"`
	BinaryHash  BinHash     `json:"binary_hash"`
	Signature   Signature   `json:"signature"`
}

// Equal performs the byte-wise field comparison the client verifier uses to
// check a remote certificate against its locally held copy.
func (c *TahiniCertificate) Equal(other *TahiniCertificate) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ServiceName == other.ServiceName &&
		c.PolicyHash == other.PolicyHash &&
		c.BinaryHash == other.BinaryHash &&
		c.Signature == other.Signature
}

// SigningBytes returns hex-decode(policy_hash) || hex-decode(binary_hash),
// the exact blob the certificate issuer signs and a client verifier would
// need to recompute for an independent check.
func (c *TahiniCertificate) SigningBytes() ([]byte, error) {
	policyBytes, err := hex.DecodeString(string(c.PolicyHash))
	if err != nil {
		return nil, fmt.Errorf("policy_hash is not hex: %w", err)
	}
	binBytes, err := hex.DecodeString(string(c.BinaryHash))
	if err != nil {
		return nil, fmt.Errorf("binary_hash is not hex: %w", err)
	}
	return append(policyBytes, binBytes...), nil
}

// AttestationSigningData mirrors DynamicAttestationReport minus the
// signature field; its canonical serialization is what the sidecar signs
// and what a client re-serializes to verify that signature.
type AttestationSigningData struct {
	Certificate    TahiniCertificate `json:"certificate"`
	Nonce          Nonce128          `json:"nonce"`
	ServiceName    ServiceName       `json:"service_name"`
	CurrentBinHash BinHash           `json:"current_bin_hash"`
	ServerKeyShare HexBytes          `json:"server_key_share"`
	ClientID       ClientID          `json:"client_id"`
}

// DynamicAttestationReport is the signed, per-request response to an
// attestation RPC call.
type DynamicAttestationReport struct {
	Certificate    TahiniCertificate `json:"certificate"`
	Nonce          Nonce128          `json:"nonce"`
	ServiceName    ServiceName       `json:"service_name"`
	CurrentBinHash BinHash           `json:"current_bin_hash"`
	ServerKeyShare HexBytes          `json:"server_key_share"`
	ClientID       ClientID          `json:"client_id"`
	Signature      Signature         `json:"signature"`
}

// SigningData strips the signature, yielding the struct whose canonical
// serialization was (or must be) signed.
func (r *DynamicAttestationReport) SigningData() AttestationSigningData {
	return AttestationSigningData{
		Certificate:    r.Certificate,
		Nonce:          r.Nonce,
		ServiceName:    r.ServiceName,
		CurrentBinHash: r.CurrentBinHash,
		ServerKeyShare: r.ServerKeyShare,
		ClientID:       r.ClientID,
	}
}

// AttestBinaryRequest is the request half of the attest_binary RPC.
type AttestBinaryRequest struct {
	ServiceName    ServiceName `json:"service_name"`
	Nonce          Nonce128    `json:"nonce"`
	ClientKeyShare HexBytes    `json:"client_key_share"`
}

// Package client implements the attestation client verifier: given a
// public service name, it resolves the binary it maps to, calls the
// sidecar's attest_binary RPC, checks every binding the protocol promises,
// and derives the same session key the sidecar did. Any verification
// failure collapses to InvalidAttestation; nothing partial is returned.
package client

import (
	"crypto/ed25519"
	"fmt"
	"net"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// Result is what a successful Verify hands back to the caller: the
// client id the sidecar assigned and the derived session key.
type Result struct {
	ClientID   attesttypes.ClientID
	SessionKey []byte
}

// Verify performs the full client-side attestation flow against the
// sidecar reachable at addr for publicServiceName, using store to resolve
// the binary service name and the locally held certificate, and pub to
// check the report's signature.
func Verify(addr string, publicServiceName attesttypes.ServiceName, store *certstore.Store, pub ed25519.PublicKey) (*Result, error) {
	binServiceName, ok := store.GetReverseMapping(publicServiceName)
	if !ok {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}
	localCert, ok := store.GetCertificate(binServiceName)
	if !ok {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}

	nonce, err := attesttypes.NewNonce128()
	if err != nil {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}
	clientKP, err := attest.GenerateX25519KeyPair()
	if err != nil {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrNetwork, err)
	}
	defer conn.Close()

	req := attesttypes.AttestBinaryRequest{
		ServiceName:    binServiceName,
		Nonce:          nonce,
		ClientKeyShare: attesttypes.HexBytes(clientKP.Public[:]),
	}
	report, err := attest.CallAttestBinary(conn, req)
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrNetwork, err)
	}

	if err := verifyReport(*report, localCert, pub); err != nil {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}

	shared, err := attest.Agree(clientKP.Private, report.ServerKeyShare)
	if err != nil {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}
	sessionKey, err := attest.DeriveSessionKey(shared)
	if err != nil {
		return nil, attesttypes.ErrInvalidAttestationSentinel
	}

	return &Result{ClientID: report.ClientID, SessionKey: sessionKey}, nil
}

// verifyReport checks the three bindings the protocol promises: the
// report's certificate matches the locally stored one byte-for-byte (not
// merely by hash), the reported current binary hash matches the
// certificate's binary hash, and the report's signature verifies under
// pub over the re-serialized signing blob.
func verifyReport(report attesttypes.DynamicAttestationReport, localCert attesttypes.TahiniCertificate, pub ed25519.PublicKey) error {
	if !report.Certificate.Equal(&localCert) {
		return fmt.Errorf("client: certificate mismatch")
	}
	if report.CurrentBinHash != report.Certificate.BinaryHash {
		return fmt.Errorf("client: current binary hash does not match certificate")
	}
	ok, err := attest.VerifyReport(pub, report)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("client: signature verification failed")
	}
	return nil
}

package attest

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/alex-douk/tahini-attest-go/pkg/canonical"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// SignReport canonically serializes data and signs it with the sidecar's
// attestation key, returning the lowercase-hex signature that completes a
// DynamicAttestationReport.
func SignReport(priv ed25519.PrivateKey, data attesttypes.AttestationSigningData) (attesttypes.Signature, error) {
	blob, err := canonical.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("attest: canonicalizing signing blob: %w", err)
	}
	sig := ed25519.Sign(priv, blob)
	return attesttypes.Signature(hex.EncodeToString(sig)), nil
}

// VerifyReport re-serializes report's signing data and checks its signature
// under pub. It returns false on any malformed signature rather than
// erroring, since an invalid signature is an expected, not exceptional,
// outcome for a client verifier.
func VerifyReport(pub ed25519.PublicKey, report attesttypes.DynamicAttestationReport) (bool, error) {
	blob, err := canonical.Marshal(report.SigningData())
	if err != nil {
		return false, fmt.Errorf("attest: canonicalizing signing blob: %w", err)
	}
	sig, err := hex.DecodeString(string(report.Signature))
	if err != nil {
		return false, nil
	}
	if len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(pub, blob, sig), nil
}

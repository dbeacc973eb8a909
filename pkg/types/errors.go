package types

import "fmt"

// ErrorKind enumerates the error taxonomy from the attestation error model:
// IoError, ServiceMismatch, NetworkError, AttestDataMalformed, ConfigError,
// CryptoError, InvalidAttestation.
type ErrorKind int

const (
	ErrIO ErrorKind = iota
	ErrServiceMismatch
	ErrNetwork
	ErrAttestDataMalformed
	ErrConfig
	ErrCrypto
	ErrInvalidAttestation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "IoError"
	case ErrServiceMismatch:
		return "ServiceMismatch"
	case ErrNetwork:
		return "NetworkError"
	case ErrAttestDataMalformed:
		return "AttestDataMalformed"
	case ErrConfig:
		return "ConfigError"
	case ErrCrypto:
		return "CryptoError"
	case ErrInvalidAttestation:
		return "InvalidAttestation"
	default:
		return "UnknownError"
	}
}

// AttestError wraps an underlying cause with one of the taxonomy kinds
// above. The client verifier collapses every verification failure down to
// ErrInvalidAttestation before it reaches a caller (see pkg/client), so as
// not to leak which verification step failed; a failed dial or RPC call is
// reported as ErrNetwork.
type AttestError struct {
	Kind ErrorKind
	Err  error
}

func NewAttestError(kind ErrorKind, err error) *AttestError {
	return &AttestError{Kind: kind, Err: err}
}

func (e *AttestError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AttestError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, types.ErrInvalidAttestationSentinel) match any
// *AttestError of the same kind, whatever cause it wraps.
func (e *AttestError) Is(target error) bool {
	other, ok := target.(*AttestError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel errors for errors.Is comparisons where callers only care about
// the kind, not the wrapped cause.
var (
	ErrInvalidAttestationSentinel = &AttestError{Kind: ErrInvalidAttestation}
	ErrServiceMismatchSentinel    = &AttestError{Kind: ErrServiceMismatch}
)

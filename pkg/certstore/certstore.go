// Package certstore is the in-memory certificate store: it loads
// certificate_config.toml, holds one TahiniCertificate per binary service
// name, and resolves the sidecar's attestation signing key. Certificates
// and the signing key may be loaded in either order — nothing in the
// config format guarantees one happens before the other.
package certstore

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/alex-douk/tahini-attest-go/pkg/config"
	"github.com/alex-douk/tahini-attest-go/pkg/signingkey"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// Store holds every binary service's certificate plus the sidecar's
// signing key, each behind its own lock so a read never blocks on the
// other's write.
type Store struct {
	certsMu sync.RWMutex
	certs   map[attesttypes.ServiceName]attesttypes.TahiniCertificate

	reverseMu sync.RWMutex
	reverse   map[attesttypes.ServiceName]attesttypes.ServiceName

	keyMu    sync.RWMutex
	signingK ed25519.PrivateKey
	keyPath  string
}

// New builds an empty store. Use Load to populate it from
// certificate_config.toml.
func New() *Store {
	return &Store{
		certs:   make(map[attesttypes.ServiceName]attesttypes.TahiniCertificate),
		reverse: make(map[attesttypes.ServiceName]attesttypes.ServiceName),
	}
}

// Load reads certificate_config.toml at path and registers every
// certificate and the public-to-binary service mapping it names.
func (s *Store) Load(path string) error {
	cfg, err := config.LoadCertificateConfig(path)
	if err != nil {
		return err
	}
	for binaryName, certPath := range cfg.Certificates {
		if err := s.RegisterService(certPath, attesttypes.ServiceName(binaryName)); err != nil {
			return err
		}
	}

	s.reverseMu.Lock()
	for binaryName, publicName := range cfg.ServiceMapping {
		s.reverse[attesttypes.ServiceName(publicName)] = attesttypes.ServiceName(binaryName)
	}
	s.reverseMu.Unlock()
	return nil
}

// RegisterService parses the certificate JSON at path and registers it
// under serviceName, rejecting the certificate if its embedded
// service_name disagrees with the caller's expectation.
func (s *Store) RegisterService(path string, serviceName attesttypes.ServiceName) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "certstore: reading %s", path)
	}
	var cert attesttypes.TahiniCertificate
	if err := json.Unmarshal(data, &cert); err != nil {
		return errors.Wrapf(err, "certstore: parsing %s", path)
	}
	if cert.ServiceName != serviceName {
		return attesttypes.NewAttestError(attesttypes.ErrServiceMismatch,
			fmt.Errorf("certstore: certificate at %s names %q, expected %q", path, cert.ServiceName, serviceName))
	}

	s.certsMu.Lock()
	defer s.certsMu.Unlock()
	s.certs[serviceName] = cert
	return nil
}

// LoadSigningKey loads the PKCS#8-DER Ed25519 key at path once; subsequent
// calls (with any path) are no-ops, matching the reference's idempotent
// load_certificate_key.
func (s *Store) LoadSigningKey(path string) error {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	if s.signingK != nil {
		return nil
	}
	priv, err := signingkey.LoadPKCS8Ed25519(path)
	if err != nil {
		return err
	}
	s.signingK = priv
	s.keyPath = path
	return nil
}

// SigningKey returns the loaded signing key, or nil if LoadSigningKey
// hasn't succeeded yet.
func (s *Store) SigningKey() ed25519.PrivateKey {
	s.keyMu.RLock()
	defer s.keyMu.RUnlock()
	return s.signingK
}

// GetCertificate returns the certificate registered for serviceName, if
// any.
func (s *Store) GetCertificate(serviceName attesttypes.ServiceName) (attesttypes.TahiniCertificate, bool) {
	s.certsMu.RLock()
	defer s.certsMu.RUnlock()
	cert, ok := s.certs[serviceName]
	return cert, ok
}

// GetReverseMapping resolves a public service identifier to the internal
// binary service name the sidecar's runtime state is keyed by.
func (s *Store) GetReverseMapping(publicServiceName attesttypes.ServiceName) (attesttypes.ServiceName, bool) {
	s.reverseMu.RLock()
	defer s.reverseMu.RUnlock()
	name, ok := s.reverse[publicServiceName]
	return name, ok
}

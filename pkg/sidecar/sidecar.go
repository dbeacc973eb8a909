package sidecar

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// Sidecar is the long-running process's shared runtime state: the four
// maps named in the concurrency model (service->BinHash, service->FifoWriter,
// binary-to-public service name, and the certificate store) plus the
// attestation signing key, each reachable without the others' lock.
type Sidecar struct {
	binHashesMu sync.RWMutex
	binHashes   map[attesttypes.ServiceName]attesttypes.BinHash

	writersMu sync.RWMutex
	writers   map[attesttypes.ServiceName]*FifoWriter

	namesMu       sync.RWMutex
	binaryToPublic map[attesttypes.ServiceName]attesttypes.ServiceName

	store *certstore.Store
	l     *zap.Logger
}

// New builds an empty Sidecar backed by store.
func New(store *certstore.Store, l *zap.Logger) *Sidecar {
	return &Sidecar{
		binHashes:      make(map[attesttypes.ServiceName]attesttypes.BinHash),
		writers:        make(map[attesttypes.ServiceName]*FifoWriter),
		binaryToPublic: make(map[attesttypes.ServiceName]attesttypes.ServiceName),
		store:          store,
		l:              l,
	}
}

// RegisterBinary records a launched binary's content hash, FIFO writer,
// and binary-to-public service name mapping.
func (s *Sidecar) RegisterBinary(binaryName, publicName attesttypes.ServiceName, hash attesttypes.BinHash, writer *FifoWriter) {
	s.binHashesMu.Lock()
	s.binHashes[binaryName] = hash
	s.binHashesMu.Unlock()

	s.writersMu.Lock()
	s.writers[binaryName] = writer
	s.writersMu.Unlock()

	s.namesMu.Lock()
	s.binaryToPublic[binaryName] = publicName
	s.namesMu.Unlock()
}

// ShowRunningBinaries logs the service -> BinHash table at debug level,
// matching the reference sidecar's startup summary.
func (s *Sidecar) ShowRunningBinaries() {
	s.binHashesMu.RLock()
	defer s.binHashesMu.RUnlock()
	for name, hash := range s.binHashes {
		s.l.Sugar().Debugw("running binary", "service", name, "binary_hash", hash)
	}
}

// AttestBinary runs the server-side state machine for one attest_binary
// call: resolve the binary, draw a client id, agree on a session key,
// sign the report, and deliver the session key over the FIFO.
func (s *Sidecar) AttestBinary(priv ed25519.PrivateKey, req attesttypes.AttestBinaryRequest) (*attesttypes.DynamicAttestationReport, error) {
	binHash, ok := s.lookupBinHash(req.ServiceName)
	if !ok {
		return nil, attesttypes.NewAttestError(attesttypes.ErrServiceMismatch,
			fmt.Errorf("sidecar: unknown service %q", req.ServiceName))
	}

	cert, ok := s.store.GetCertificate(req.ServiceName)
	if !ok {
		return nil, attesttypes.NewAttestError(attesttypes.ErrServiceMismatch,
			fmt.Errorf("sidecar: no certificate registered for %q", req.ServiceName))
	}

	clientID, err := randomClientID()
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrCrypto, err)
	}

	serverKP, err := attest.GenerateX25519KeyPair()
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrCrypto, err)
	}

	shared, err := attest.Agree(serverKP.Private, req.ClientKeyShare)
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrCrypto, err)
	}
	sessionKey, err := attest.DeriveSessionKey(shared)
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrCrypto, err)
	}

	signingData := attesttypes.AttestationSigningData{
		Certificate:    cert,
		Nonce:          req.Nonce,
		ServiceName:    req.ServiceName,
		CurrentBinHash: binHash,
		ServerKeyShare: attesttypes.HexBytes(serverKP.Public[:]),
		ClientID:       clientID,
	}
	sig, err := attest.SignReport(priv, signingData)
	if err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrCrypto, err)
	}

	writer, ok := s.lookupWriter(req.ServiceName)
	if !ok {
		return nil, attesttypes.NewAttestError(attesttypes.ErrIO,
			fmt.Errorf("sidecar: no FIFO writer for %q", req.ServiceName))
	}
	if err := deliverSessionKey(writer, sessionKey, clientID); err != nil {
		return nil, attesttypes.NewAttestError(attesttypes.ErrIO, err)
	}

	return &attesttypes.DynamicAttestationReport{
		Certificate:    signingData.Certificate,
		Nonce:          signingData.Nonce,
		ServiceName:    signingData.ServiceName,
		CurrentBinHash: signingData.CurrentBinHash,
		ServerKeyShare: signingData.ServerKeyShare,
		ClientID:       signingData.ClientID,
		Signature:      sig,
	}, nil
}

func (s *Sidecar) lookupBinHash(name attesttypes.ServiceName) (attesttypes.BinHash, bool) {
	s.binHashesMu.RLock()
	defer s.binHashesMu.RUnlock()
	h, ok := s.binHashes[name]
	return h, ok
}

func (s *Sidecar) lookupWriter(name attesttypes.ServiceName) (*FifoWriter, bool) {
	s.writersMu.RLock()
	defer s.writersMu.RUnlock()
	w, ok := s.writers[name]
	return w, ok
}

// deliverSessionKey seals sessionKey under writer's pipe KEK and writes the
// resulting line to the FIFO, under the writer's exclusive lock.
func deliverSessionKey(writer *FifoWriter, sessionKey []byte, clientID attesttypes.ClientID) error {
	nonce, ciphertext, err := attest.Seal(writer.KEK(), sessionKey)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%x,%x,%d\n", nonce, ciphertext, uint64(clientID))
	return writer.WriteLine(line)
}

func randomClientID() (attesttypes.ClientID, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("sidecar: generating client id: %w", err)
	}
	return attesttypes.ClientID(binary.BigEndian.Uint64(buf[:])), nil
}

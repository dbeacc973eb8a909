package sidecar

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/certissuer"
	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	"github.com/alex-douk/tahini-attest-go/pkg/config"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// Run loads sidecar_config.toml at configPath, launches every declared
// binary, and serves the attestation RPC until ln's listener is closed or
// an unrecoverable error occurs.
func Run(configPath string, l *zap.Logger) error {
	cfg, err := config.LoadSidecarConfig(configPath)
	if err != nil {
		return err
	}

	store := certstore.New()
	if err := store.LoadSigningKey(cfg.SigningKeyPath); err != nil {
		return fmt.Errorf("sidecar: loading signing key: %w", err)
	}
	if err := store.Load(cfg.CertificateConfig); err != nil {
		return fmt.Errorf("sidecar: loading certificate config: %w", err)
	}

	s := New(store, l)
	for binaryName, entry := range cfg.Binaries {
		serviceName := attesttypes.ServiceName(binaryName)

		binHash, err := certissuer.HashBinary(entry.BinPath)
		if err != nil {
			return fmt.Errorf("sidecar: hashing %s: %w", entry.BinPath, err)
		}

		launched, err := Launch(entry, l)
		if err != nil {
			return fmt.Errorf("sidecar: launching %s: %w", binaryName, err)
		}

		publicName := serviceName
		for binary, public := range cfg.ServiceMapping {
			if binary == binaryName {
				publicName = attesttypes.ServiceName(public)
				break
			}
		}

		s.RegisterBinary(serviceName, publicName, binHash, launched.Writer)
		l.Sugar().Infow("launched attested binary", "service", binaryName, "public_name", publicName, "binary_hash", binHash, "pid", launched.Cmd.Process.Pid)
	}
	s.ShowRunningBinaries()

	port := cfg.Port
	if port == 0 {
		port = config.DefaultSidecarPort
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("sidecar: binding loopback listener: %w", err)
	}
	l.Sugar().Infow("sidecar listening", "addr", ln.Addr())

	priv := store.SigningKey()
	return Serve(ln, s, priv, l)
}

// Package config implements the project metadata reader and the two TOML
// config files it materializes: certificate_config.toml (read by the
// certificate store) and sidecar_config.toml (read by the sidecar).
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// BinaryEntry describes one binary's on-disk locations, as carried in the
// project metadata document and re-emitted verbatim into sidecar_config.toml.
type BinaryEntry struct {
	BinPath string `toml:"bin_path" json:"bin_path"`
	RunPath string `toml:"run_path" json:"run_path"`
}

// ProjectMetadata is the shape of the input document the materializer
// reads: a table of binaries and the binary-name -> public service-name
// mapping.
type ProjectMetadata struct {
	Binaries       map[string]BinaryEntry `toml:"binaries"`
	ServiceMapping map[string]string      `toml:"service_mapping"`
}

// CertificateConfig is certificate_config.toml: for every binary, the
// absolute path of its certificate file, plus the service mapping the
// certificate store needs to resolve public service names to binary names.
type CertificateConfig struct {
	Certificates   map[string]string `toml:"certificates"`
	ServiceMapping map[string]string `toml:"service_mapping"`
}

// SidecarConfig is sidecar_config.toml: the binary table verbatim, a
// pointer to the certificate config, the signing-key path, and the service
// mapping.
type SidecarConfig struct {
	Binaries          map[string]BinaryEntry `toml:"binaries"`
	CertificateConfig string                 `toml:"certificate_config"`
	SigningKeyPath    string                 `toml:"signing_key_path"`
	ServiceMapping    map[string]string      `toml:"service_mapping"`
	Port              int                    `toml:"port"`
}

// DefaultSidecarPort is the loopback TCP port the sidecar binds when
// sidecar_config.toml doesn't specify one.
const DefaultSidecarPort = 7700

// LoadProjectMetadata reads and parses the project metadata TOML document
// at path.
func LoadProjectMetadata(path string) (*ProjectMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	var meta ProjectMetadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return &meta, nil
}

// BuildCertificateConfig derives a CertificateConfig from meta: one entry
// per binary pointing at its certificate file under certsDir, absolute.
func BuildCertificateConfig(meta *ProjectMetadata, certsDir string) (*CertificateConfig, error) {
	absCertsDir, err := filepath.Abs(certsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "config: resolving %s", certsDir)
	}

	certs := make(map[string]string, len(meta.Binaries))
	for name := range meta.Binaries {
		certs[name] = filepath.Join(absCertsDir, name+"_certificate.json")
	}
	return &CertificateConfig{
		Certificates:   certs,
		ServiceMapping: meta.ServiceMapping,
	}, nil
}

// BuildSidecarConfig derives a SidecarConfig from meta: the binary table is
// carried verbatim, alongside the certificate config path and the signing
// key path the sidecar needs to load its own attestation key from.
func BuildSidecarConfig(meta *ProjectMetadata, certConfigPath, signingKeyPath string) *SidecarConfig {
	return &SidecarConfig{
		Binaries:          meta.Binaries,
		CertificateConfig: certConfigPath,
		SigningKeyPath:    signingKeyPath,
		ServiceMapping:    meta.ServiceMapping,
	}
}

// WriteTOML marshals v and writes it to path.
func WriteTOML(path string, v any) error {
	body, err := toml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "config: marshaling TOML")
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return errors.Wrapf(err, "config: writing %s", path)
	}
	return nil
}

// LoadCertificateConfig reads and parses certificate_config.toml.
func LoadCertificateConfig(path string) (*CertificateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	var cfg CertificateConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return &cfg, nil
}

// LoadSidecarConfig reads and parses sidecar_config.toml.
func LoadSidecarConfig(path string) (*SidecarConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	var cfg SidecarConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return &cfg, nil
}

// Materialize runs the full materializer pipeline: load metadata, derive
// and write both config files.
func Materialize(metadataPath, certsDir, signingKeyPath, certConfigOutPath, sidecarConfigOutPath string) error {
	meta, err := LoadProjectMetadata(metadataPath)
	if err != nil {
		return err
	}

	certConfig, err := BuildCertificateConfig(meta, certsDir)
	if err != nil {
		return err
	}
	if err := WriteTOML(certConfigOutPath, certConfig); err != nil {
		return err
	}

	sidecarConfig := BuildSidecarConfig(meta, certConfigOutPath, signingKeyPath)
	if err := WriteTOML(sidecarConfigOutPath, sidecarConfig); err != nil {
		return err
	}
	return nil
}

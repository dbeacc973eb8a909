package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/alex-douk/tahini-attest-go/pkg/certissuer"
	"github.com/alex-douk/tahini-attest-go/pkg/logger"
	"github.com/alex-douk/tahini-attest-go/pkg/signingkey"
)

func main() {
	app := &cli.App{
		Name:  "certissuer",
		Usage: "Sign every attested binary under a project's target/release/ with its matching policy hash",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project-folder",
				Aliases:  []string{"p"},
				Usage:    "Project root containing target/release/ and policy_hashes/",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signing-key",
				Aliases:  []string{"k"},
				Usage:    "Path to the PKCS#8-DER Ed25519 signing key",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("certissuer: %v", err)
	}
}

func run(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	priv, err := signingkey.LoadPKCS8Ed25519(c.String("signing-key"))
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	projectRoot := c.String("project-folder")
	releaseDir := filepath.Join(projectRoot, "target", "release")
	policyHashesDir := filepath.Join(projectRoot, "policy_hashes")
	certsDir := filepath.Join(projectRoot, "certificates")

	issued, err := certissuer.Run(l, priv, releaseDir, policyHashesDir, certsDir)
	if err != nil {
		l.Sugar().Fatalw("certificate issuance failed", "error", err)
	}
	l.Sugar().Infow("certificate issuance complete", "issued", issued, "certificates_dir", certsDir)
	return nil
}

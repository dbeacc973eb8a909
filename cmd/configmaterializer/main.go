package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alex-douk/tahini-attest-go/pkg/config"
	"github.com/alex-douk/tahini-attest-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "configmaterializer",
		Usage: "Materialize certificate_config.toml and sidecar_config.toml from project metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "metadata",
				Aliases:  []string{"m"},
				Usage:    "Path to the project metadata TOML document",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "certificates-dir",
				Aliases:  []string{"c"},
				Usage:    "Directory certificates are written to by the certificate issuer",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signing-key",
				Aliases:  []string{"k"},
				Usage:    "Path to the sidecar's PKCS#8-DER Ed25519 signing key",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "certificate-config-out",
				Aliases:  []string{"C"},
				Usage:    "Output path for certificate_config.toml",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "sidecar-config-out",
				Value: "sidecar_config.toml",
				Usage: "Output path for sidecar_config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("configmaterializer: %v", err)
	}
}

func run(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	err = config.Materialize(
		c.String("metadata"),
		c.String("certificates-dir"),
		c.String("signing-key"),
		c.String("certificate-config-out"),
		c.String("sidecar-config-out"),
	)
	if err != nil {
		l.Sugar().Fatalw("materialization failed", "error", err)
	}
	l.Sugar().Infow("materialization complete",
		"certificate_config", c.String("certificate-config-out"),
		"sidecar_config", c.String("sidecar-config-out"))
	return nil
}

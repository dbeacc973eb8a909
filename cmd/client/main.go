package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alex-douk/tahini-attest-go/pkg/certstore"
	"github.com/alex-douk/tahini-attest-go/pkg/client"
	"github.com/alex-douk/tahini-attest-go/pkg/logger"
	"github.com/alex-douk/tahini-attest-go/pkg/signingkey"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

func main() {
	app := &cli.App{
		Name:  "tahini-client",
		Usage: "Attest a service exposed by a sidecar and print the resulting client id and session key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "addr",
				Aliases:  []string{"a"},
				Usage:    "Sidecar address, host:port",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "service",
				Aliases:  []string{"s"},
				Usage:    "Public service name to attest",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "certificate-config",
				Aliases:  []string{"C"},
				Usage:    "Path to certificate_config.toml",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "public-key-der",
				Usage:    "Path to the signing key's PKCS#8 DER file (public key extracted from the last 32 bytes)",
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
		log.Fatalf("tahini-client: %v", err)
	}
}

func run(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	store := certstore.New()
	if err := store.Load(c.String("certificate-config")); err != nil {
		return fmt.Errorf("loading certificate config: %w", err)
	}

	pub, err := signingkey.LoadPublicKeyFromPKCS8DERFile(c.String("public-key-der"))
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	result, err := client.Verify(c.String("addr"), attesttypes.ServiceName(c.String("service")), store, pub)
	if err != nil {
		l.Sugar().Fatalw("attestation failed", "service", c.String("service"), "error", err)
	}

	l.Sugar().Infow("attestation succeeded", "service", c.String("service"), "client_id", result.ClientID)
	fmt.Printf("client_id=%d session_key=%x\n", result.ClientID, result.SessionKey)
	return nil
}

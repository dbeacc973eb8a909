package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alex-douk/tahini-attest-go/pkg/logger"
	"github.com/alex-douk/tahini-attest-go/pkg/sidecar"
)

const defaultConfigPath = "./sidecar_config.toml"

func main() {
	app := &cli.App{
		Name:  "sidecar",
		Usage: "Run the attestation sidecar for the binaries declared in sidecar_config.toml",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("sidecar: %v", err)
	}
}

func run(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	l.Sugar().Infow("starting sidecar", "config", defaultConfigPath)
	if err := sidecar.Run(defaultConfigPath, l); err != nil {
		l.Sugar().Fatalw("sidecar exited with error", "error", err)
	}
	return nil
}

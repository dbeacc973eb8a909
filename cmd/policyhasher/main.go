package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/alex-douk/tahini-attest-go/pkg/hasher"
	"github.com/alex-douk/tahini-attest-go/pkg/logger"
)

const hashDirName = "policy_hashes"

func main() {
	app := &cli.App{
		Name:  "policyhasher",
		Usage: "Policy-hashing driver: locates alohomora.Policy implementations in a package and emits its policy-hash file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   "Directory of the package to analyze",
			},
			&cli.StringFlag{
				Name:  "crate-name",
				Usage: "Name this package is recorded under in the hash index (defaults to the directory's base name)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("policyhasher: %v", err)
	}
}

func run(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dir := c.String("dir")
	crateName := c.String("crate-name")
	if crateName == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", dir, err)
		}
		crateName = filepath.Base(abs)
	}

	hashDir := filepath.Join(dir, hashDirName)
	if err := os.MkdirAll(hashDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", hashDir, err)
	}
	hashIndexPath := filepath.Join(hashDir, "hash_index")

	pkg, err := hasher.LoadPackage(dir)
	if err != nil {
		l.Sugar().Fatalw("loading package failed", "error", err)
	}

	hashIndexContents, err := hasher.ReadHashIndex(hashIndexPath)
	if err != nil {
		l.Sugar().Fatalw("reading hash index failed", "error", err)
	}

	usedCrateNames := hasher.UsedCrateNames(pkg)
	depReader := func(name string) (string, error) {
		data, err := os.ReadFile(hasher.PolicyHashFilePath(hashDir, name))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	result, err := hasher.Run(pkg, usedCrateNames, hashIndexContents, depReader)
	if err != nil {
		l.Sugar().Fatalw("policy hashing failed", "crate", crateName, "error", err)
	}
	if result == nil {
		l.Sugar().Debugw("nothing to hash", "crate", crateName)
		return nil
	}

	outPath := hasher.PolicyHashFilePath(hashDir, crateName)
	if err := hasher.WritePolicyHashFile(outPath, result.Summary, result.File); err != nil {
		l.Sugar().Fatalw("writing policy-hash file failed", "error", err)
	}
	if err := hasher.AppendHashIndex(hashIndexPath, crateName); err != nil {
		l.Sugar().Fatalw("appending to hash index failed", "error", err)
	}

	l.Sugar().Infow("policy hash emitted", "crate", crateName, "summary", result.Summary, "out", outPath)
	return nil
}

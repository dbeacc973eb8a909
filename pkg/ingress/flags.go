package ingress

import "flag"

// ParseFlags parses the --fifo_path and --kek_hex flags an attested
// binary receives from the sidecar that spawned it. This uses the standard
// flag package rather than urfave/cli: the attested binary is arbitrary
// user service code linking this package, not one of this module's own
// CLI tools, so it gets the lightest possible flag-parsing footprint
// instead of pulling in the module's CLI framework of choice.
func ParseFlags(args []string) (fifoPath, kekHex string, err error) {
	fs := flag.NewFlagSet("ingress", flag.ContinueOnError)
	fs.StringVar(&fifoPath, "fifo_path", "", "path to the sidecar-delivered session-key FIFO")
	fs.StringVar(&kekHex, "kek_hex", "", "hex-encoded pipe key-encryption key")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	return fifoPath, kekHex, nil
}

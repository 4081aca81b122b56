// Package certinfo implements the certinfo command
package certinfo

import (
	"errors"
	"io"
	"os"

	"github.com/sigstore/rekor-search-ui/cli"
)

// Usage text of 'rekor-search certinfo'
var dataUsageText = `rekor-search certinfo -- output certinfo about the given cert

Usage of certinfo:
	- Data from local certificate files
        rekor-search certinfo -cert file
	- Data from a PEM or base64 DER certificate on stdin
        rekor-search certinfo -cert -

Flags:
`

// flags used by 'rekor-search certinfo'
var certinfoFlags = []string{"cert", "format", "lint"}

// certinfoMain is the main CLI of certinfo functionality
func certinfoMain(args []string, c cli.Config) error {
	return run(os.Stdout, args, c)
}

func run(w io.Writer, args []string, c cli.Config) error {
	if c.CertFile == "" {
		return errors.New("Must specify certinfo target through -cert")
	}

	raw, err := cli.ReadStdin(c.CertFile)
	if err != nil {
		return err
	}

	cert, err := cli.CertificateDecoderFromConfig(c).Decode(raw)
	if err != nil {
		return err
	}

	return cli.Output(w, cert, c.Format)
}

// Command assembles the definition of Command 'certinfo'
var Command = &cli.Command{UsageText: dataUsageText, Flags: certinfoFlags, Main: certinfoMain}

// Package decode implements the decode command.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sigstore/rekor-search-ui/cli"
	"github.com/sigstore/rekor-search-ui/entry"
	"github.com/sigstore/rekor-search-ui/log"
)

// Usage text of 'rekor-search decode'
var decodeUsageText = `rekor-search decode -- decode raw log entries

Usage of decode:
        rekor-search decode -entry file [-format json|yaml]

The file holds a log response, a JSON object of entry UUID to entry; use
-entry - to read it from stdin.

Flags:
`

// Flags used by 'rekor-search decode'
var decodeFlags = []string{"entry", "format", "lint"}

// Result lists the decoded entries and those that failed.
type Result struct {
	Entries []*entry.Entry      `json:"entries"`
	Errors  []*entry.EntryError `json:"errors,omitempty"`
}

func decodeMain(args []string, c cli.Config) error {
	return run(os.Stdout, args, c)
}

func run(w io.Writer, args []string, c cli.Config) error {
	if c.EntryFile == "" {
		return errors.New("must specify an entry file through -entry")
	}

	data, err := cli.ReadStdin(c.EntryFile)
	if err != nil {
		return err
	}
	le, err := entry.ParseLogEntry(data)
	if err != nil {
		return err
	}

	entries, errs := cli.NormalizerFromConfig(c).NormalizeLogEntry(le)
	for _, e := range errs {
		log.Warningf("entry %s not decoded: %s", e.UUID, e.Message)
	}
	if len(entries) == 0 && len(errs) > 0 {
		return fmt.Errorf("none of the %d entries could be decoded", len(errs))
	}
	return cli.Output(w, Result{Entries: entries, Errors: errs}, c.Format)
}

// Command assembles the definition of Command 'decode'
var Command = &cli.Command{UsageText: decodeUsageText, Flags: decodeFlags, Main: decodeMain}

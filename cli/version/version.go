// Package version implements the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/sigstore/rekor-search-ui/cli"
)

var (
	version = "dev"
)

// Usage text for 'rekor-search version'
var versionUsageText = `rekor-search version -- print out the version of rekor-search

Usage of version:
	rekor-search version
`

// FormatVersion returns the formatted version string.
func FormatVersion() string {
	return fmt.Sprintf("Version: %s\nRuntime: %s\n", version, runtime.Version())
}

// The main functionality of 'rekor-search version' is to print out the version info.
func versionMain(args []string, c cli.Config) (err error) {
	fmt.Printf("%s", FormatVersion())
	return nil
}

// Command assembles the definition of Command 'version'
var Command = &cli.Command{UsageText: versionUsageText, Flags: nil, Main: versionMain}

/*
rekor-search is the command line tool to search a Rekor transparency log and
decode the entries it holds. It's also a tool to start a HTTP server answering
the same searches.

Usage:
	rekor-search command [-flags] arguments

	The commands are

	search	 search the log by email, hash, commit SHA, UUID or log index
	certinfo decode a X.509 certificate
	decode	 decode raw log entries read from a file
	serve	 starts a HTTP server handling search and decode requests
	version	 prints the current rekor-search version

Use "rekor-search [command] -help" to find out more about a command.
*/
package main

import (
	_ "github.com/go-sql-driver/mysql" // register mysql driver
	_ "github.com/lib/pq"              // register postgresql driver
	_ "github.com/mattn/go-sqlite3"    // register sqlite3 driver

	"github.com/sigstore/rekor-search-ui/cli"
	"github.com/sigstore/rekor-search-ui/cli/certinfo"
	"github.com/sigstore/rekor-search-ui/cli/decode"
	"github.com/sigstore/rekor-search-ui/cli/search"
	"github.com/sigstore/rekor-search-ui/cli/serve"
	"github.com/sigstore/rekor-search-ui/cli/version"
)

// main defines the rekor-search usage and registers all defined commands.
func main() {
	// Register commands.
	cmds := map[string]*cli.Command{
		"search":   search.Command,
		"certinfo": certinfo.Command,
		"decode":   decode.Command,
		"serve":    serve.Command,
		"version":  version.Command,
	}
	cli.Start(cmds)
}

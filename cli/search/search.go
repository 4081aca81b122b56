// Package search implements the search command.
package search

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/sigstore/rekor-search-ui/cli"
	"github.com/sigstore/rekor-search-ui/search"
)

// Usage text of 'rekor-search search'
var searchUsageText = `rekor-search search -- search the transparency log

Usage of search:
        rekor-search search -attribute attribute -query value [-page n] [-format json|yaml]

Attributes are email, hash, commitSha, uuid and logIndex.

Flags:
`

// Flags used by 'rekor-search search'
var searchFlags = []string{"attribute", "query", "page", "format", "rekor-url", "db-config", "migrations", "lint", "config"}

func searchMain(args []string, c cli.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Stdout, args, c)
}

func run(ctx context.Context, w io.Writer, args []string, c cli.Config) error {
	if len(args) > 0 {
		return errors.New("argument is provided but not defined; please refer to the usage by flag -h")
	}
	if c.Query == "" {
		return errors.New("must specify a search value through -query")
	}

	q, err := search.ParseQuery(c.Attribute, c.Query)
	if err != nil {
		return err
	}

	r, closer, err := cli.RetrieverFromConfig(c)
	if err != nil {
		return err
	}
	defer closer()

	res, err := r.Retrieve(ctx, q, c.Page)
	if err != nil {
		return err
	}
	return cli.Output(w, search.Normalize(cli.NormalizerFromConfig(c), res), c.Format)
}

// Command assembles the definition of Command 'search'
var Command = &cli.Command{UsageText: searchUsageText, Flags: searchFlags, Main: searchMain}

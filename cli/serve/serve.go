// Package serve implements the serve command.
package serve

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apicertinfo "github.com/sigstore/rekor-search-ui/api/certinfo"
	apientry "github.com/sigstore/rekor-search-ui/api/entry"
	"github.com/sigstore/rekor-search-ui/api/health"
	apisearch "github.com/sigstore/rekor-search-ui/api/search"
	"github.com/sigstore/rekor-search-ui/cli"
	"github.com/sigstore/rekor-search-ui/log"
)

// Usage text of 'rekor-search serve'
var serverUsageText = `rekor-search serve -- set up a HTTP server handling search requests

Usage of serve:
        rekor-search serve [-address address] [-port port] [-rekor-url url] \
                           [-db-config file] [-migrations dir] [-config config]

Flags:
`

// Flags used by 'rekor-search serve'
var serverFlags = []string{"address", "port", "rekor-url", "db-config", "migrations", "lint", "log-format", "config"}

// Endpoint paths.
const (
	SearchPath   = "/api/v1/search"
	RetrievePath = "/api/v1/entries/retrieve"
	CertinfoPath = "/api/v1/certinfo"
	DecodePath   = "/api/v1/entry/decode"
	HealthPath   = "/api/v1/health"
	MetricsPath  = "/metrics"
)

// registerHandlers instantiates various handlers and associate them to
// corresponding endpoints. The returned function releases what the
// handlers hold.
func registerHandlers(mux *http.ServeMux, c cli.Config) (func() error, error) {
	log.Info("Setting up search endpoint")
	r, closer, err := cli.RetrieverFromConfig(c)
	if err != nil {
		log.Errorf("Failed to set up search endpoint: %v", err)
		return nil, err
	}
	normalizer := cli.NormalizerFromConfig(c)
	mux.Handle(SearchPath, apisearch.NewHandler(r, normalizer))
	mux.Handle(RetrievePath, apisearch.NewRetrieveHandler(r, normalizer))

	log.Info("Setting up certinfo endpoint")
	mux.Handle(CertinfoPath, apicertinfo.NewHandler(cli.CertificateDecoderFromConfig(c)))

	log.Info("Setting up decode endpoint")
	mux.Handle(DecodePath, apientry.NewHandler(normalizer))

	mux.Handle(HealthPath, health.NewHealthCheck())
	mux.Handle(MetricsPath, promhttp.Handler())

	log.Info("Handler set up complete.")
	return closer, nil
}

// serverMain is the command line entry point to the API server. It sets up a
// new HTTP server to handle search and decode requests.
func serverMain(args []string, c cli.Config) error {
	// serve doesn't support arguments.
	if len(args) > 0 {
		return errors.New("argument is provided but not defined; please refer to the usage by flag -h")
	}

	mux := http.NewServeMux()
	closer, err := registerHandlers(mux, c)
	if err != nil {
		return err
	}
	defer closer()

	addr := fmt.Sprintf("%s:%d", c.Address, c.Port)
	log.Info("Now listening on ", addr)
	return http.ListenAndServe(addr, mux)
}

// Command assembles the definition of Command 'serve'
var Command = &cli.Command{UsageText: serverUsageText, Flags: serverFlags, Main: serverMain}

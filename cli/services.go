package cli

import (
	"github.com/sigstore/rekor-search-ui/certinfo"
	"github.com/sigstore/rekor-search-ui/config"
	"github.com/sigstore/rekor-search-ui/entry"
	"github.com/sigstore/rekor-search-ui/entrydb/dbconf"
	entrysql "github.com/sigstore/rekor-search-ui/entrydb/sql"
	"github.com/sigstore/rekor-search-ui/helpers"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/search"
)

func (c Config) cfg() *config.Config {
	if c.CFG == nil {
		return config.DefaultConfig()
	}
	return c.CFG
}

// CertificateDecoderFromConfig returns the certificate decoder c asks for.
func CertificateDecoderFromConfig(c Config) *certinfo.Decoder {
	if c.cfg().LintCertificates {
		return certinfo.NewDecoder(certinfo.WithLints())
	}
	return certinfo.NewDecoder()
}

// NormalizerFromConfig returns an entry normalizer using the certificate
// decoder c asks for.
func NormalizerFromConfig(c Config) *entry.Normalizer {
	return entry.NewNormalizer(helpers.StdCodec{}, CertificateDecoderFromConfig(c))
}

// RetrieverFromConfig returns a Retriever for the transparency log named by
// c. When c names an entry database the log is read through it; the
// returned function closes that database.
func RetrieverFromConfig(c Config) (*search.Retriever, func() error, error) {
	cfg := c.cfg()
	var client search.Client = cfg.RekorClient()
	closer := func() error { return nil }

	if cfg.DBConfig != "" {
		db, err := dbconf.DBFromConfig(cfg.DBConfig)
		if err != nil {
			return nil, nil, err
		}
		if cfg.MigrationsDir != "" {
			dbCfg, err := dbconf.LoadFile(cfg.DBConfig)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			if err := dbconf.Migrate(db, dbCfg.DriverName, cfg.MigrationsDir); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		log.Infof("caching log entries in %s", cfg.DBConfig)
		client = search.NewCachedClient(client, entrysql.NewAccessor(db))
		closer = db.Close
	}

	return search.NewRetriever(client), closer, nil
}

// Package config contains the configuration logic for rekor-search.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/rekor"
)

// DefaultTimeout bounds each request to the transparency log.
const DefaultTimeout = 30 * time.Second

// Config is the rekor-search configuration file.
type Config struct {
	RekorURL         string        `json:"rekor_url"`
	TimeoutString    string        `json:"timeout"`
	Timeout          time.Duration `json:"-"`
	MaxRetries       *int          `json:"max_retries,omitempty"`
	DBConfig         string        `json:"db_config,omitempty"`
	MigrationsDir    string        `json:"migrations_dir,omitempty"`
	LintCertificates bool          `json:"lint_certificates"`
	LogLevel         string        `json:"log_level,omitempty"`
	LogFormat        string        `json:"log_format,omitempty"`
}

// DefaultConfig returns a configuration for the public Rekor instance.
func DefaultConfig() *Config {
	return &Config{
		RekorURL:      rekor.DefaultBaseURL,
		TimeoutString: DefaultTimeout.String(),
		Timeout:       DefaultTimeout,
	}
}

// parse fills in Timeout from TimeoutString. The JSON decoder cannot decode
// a string duration into a time.Duration.
func (c *Config) parse() error {
	if c.TimeoutString == "" {
		c.Timeout = DefaultTimeout
		return nil
	}
	dur, err := time.ParseDuration(c.TimeoutString)
	if err != nil {
		return fmt.Errorf("invalid timeout: %v", err)
	}
	c.Timeout = dur
	return nil
}

// Valid reports the first problem found in c.
func (c *Config) Valid() error {
	u, err := url.Parse(c.RekorURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid rekor_url %q", c.RekorURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}

// LoadFile attempts to load the configuration file stored at the path
// and returns the configuration. Unset fields take their defaults.
func LoadFile(path string) (*Config, error) {
	log.Debugf("loading configuration file from %s", path)
	if path == "" {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ReadFailed, errors.New("invalid path"))
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ReadFailed, err)
	}

	cfg := DefaultConfig()
	cfg.TimeoutString = ""
	if err := json.Unmarshal(body, cfg); err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ParseFailed,
			errors.New("failed to unmarshal configuration: "+err.Error()))
	}
	if cfg.RekorURL == "" {
		cfg.RekorURL = rekor.DefaultBaseURL
	}
	if err := cfg.parse(); err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ParseFailed, err)
	}
	if err := cfg.Valid(); err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ParseFailed, err)
	}

	log.Debugf("configuration ok")
	return cfg, nil
}

// ApplyLogging sets the log level and format named by c.
func (c *Config) ApplyLogging() error {
	if c.LogLevel != "" {
		l, err := log.ParseLevel(c.LogLevel)
		if err != nil {
			return err
		}
		log.Level = l
	}
	return log.SetFormat(c.LogFormat)
}

// RekorClient returns a log client built from c.
func (c *Config) RekorClient() *rekor.Client {
	client := rekor.NewClient(c.RekorURL)
	if c.Timeout > 0 {
		client.HTTPClient.Timeout = c.Timeout
	}
	if c.MaxRetries != nil {
		client.MaxRetries = *c.MaxRetries
	}
	return client
}

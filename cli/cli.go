// Package cli provides the command framework shared by the rekor-search
// subcommands.
package cli

/*
rekor-search is the command line tool to search a Rekor transparency log and
decode its entries. It's also a tool to start a HTTP server answering the same
searches as JSON.

Usage:
	rekor-search [-loglevel n] command [-flags] arguments

The commands are defined in the cli subpackages and include

	search	 search the log by email, hash, commit SHA, UUID or log index
	certinfo decode a X.509 certificate
	decode	 decode raw log entries read from a file
	serve	 starts a HTTP server handling search and decode requests
	version	 prints the current rekor-search version

Use "rekor-search [command] -help" to find out more about a command.
*/

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sigstore/rekor-search-ui/config"
	"github.com/sigstore/rekor-search-ui/log"
)

// Command holds the implementation details of a rekor-search command.
type Command struct {
	// The Usage Text
	UsageText string
	// Flags to look up in the global table
	Flags []string
	// Main runs the command, args are the arguments after flags
	Main func(args []string, c Config) error
}

// Config is a type to hold flag values used by rekor-search commands.
type Config struct {
	Attribute     string
	Query         string
	Page          int
	Format        string
	CertFile      string
	EntryFile     string
	Address       string
	Port          int
	ConfigFile    string
	CFG           *config.Config
	RekorURL      string
	DBConfigFile  string
	MigrationsDir string
	Lint          bool
	LogFormat     string
}

// Parsed command name
var cmdName string

// registerFlags defines all rekor-search command flags and associates their values with variables.
func registerFlags(c *Config, f *flag.FlagSet) {
	f.StringVar(&c.Attribute, "attribute", "email", "Search attribute: email, hash, commitSha, uuid or logIndex")
	f.StringVar(&c.Query, "query", "", "Value to search for")
	f.IntVar(&c.Page, "page", 1, "Page of index results to fetch")
	f.StringVar(&c.Format, "format", "json", "Output format: json or yaml")
	f.StringVar(&c.CertFile, "cert", "", "Certificate file, or - for stdin")
	f.StringVar(&c.EntryFile, "entry", "", "Log entry JSON file, or - for stdin")
	f.StringVar(&c.Address, "address", "127.0.0.1", "Address to bind")
	f.IntVar(&c.Port, "port", 8888, "Port to bind")
	f.StringVar(&c.ConfigFile, "config", "", "path to configuration file")
	f.StringVar(&c.RekorURL, "rekor-url", "", "Transparency log base URL")
	f.StringVar(&c.DBConfigFile, "db-config", "", "entry cache database configuration file")
	f.StringVar(&c.MigrationsDir, "migrations", "", "directory of entry cache migrations to apply at start")
	f.BoolVar(&c.Lint, "lint", false, "run certificate lints")
	f.StringVar(&c.LogFormat, "log-format", "", "Log format: text or json")
}

// usage is the rekor-search usage heading. It will be appended with names of defined commands in cmds
// to form the final usage message of rekor-search.
const usage = `Usage:
Available commands:
`

// printDefaultValue is a helper function to print out a user friendly
// usage message of a flag. It's useful since we want to write customized
// usage message on selected subsets of the global flag set. It is
// borrowed from standard library source code. Since flag value type is
// not exported, default string flag values are printed without
// quotes. The only exception is the empty string, which is printed as "".
func printDefaultValue(f *flag.Flag) {
	format := "  -%s=%s: %s\n"
	if f.DefValue == "" {
		format = "  -%s=%q: %s\n"
	}
	fmt.Fprintf(os.Stderr, format, f.Name, f.DefValue, f.Usage)
}

// PopFirstArgument returns the first element and the rest of a string
// slice and return error if failed to do so. It is a helper function
// to parse non-flag arguments previously used in rekor-search commands.
func PopFirstArgument(args []string) (string, []string, error) {
	if len(args) < 1 {
		return "", nil, errors.New("not enough arguments are supplied --- please refer to the usage")
	}
	return args[0], args[1:], nil
}

// Start is the entrance point of rekor-search command line tools.
func Start(cmds map[string]*Command) {
	// commandFlagSet is the flag set shared by all commands.
	var commandFlagSet = flag.NewFlagSet("rekor-search", flag.ExitOnError)
	var c Config

	registerFlags(&c, commandFlagSet)
	// Initial parse of command line arguments. By convention, only -h/-help
	// and -loglevel are supported before the command name.
	flag.Parse()
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		names := make([]string, 0, len(cmds))
		for name := range cmds {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "\t%s\n", name)
		}
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "No command is given.\n")
		flag.Usage()
		os.Exit(2)
	}

	// Clip out the command name and args for the command
	cmdName = flag.Arg(0)
	args := flag.Args()[1:]
	cmd, found := cmds[cmdName]
	if !found {
		fmt.Fprintf(os.Stderr, "Command %s is not defined.\n", cmdName)
		flag.Usage()
		os.Exit(2)
	}
	// The usage of each individual command is re-written to mention
	// flags defined and referenced only in that command.
	commandFlagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s", cmd.UsageText)
		for _, name := range cmd.Flags {
			if f := commandFlagSet.Lookup(name); f != nil {
				printDefaultValue(f)
			}
		}
	}

	// Parse all flags and take the rest as argument lists for the command
	commandFlagSet.Parse(args)
	args = commandFlagSet.Args()

	if err := Load(&c); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Main(args, c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Load reads c.ConfigFile, or the defaults when it is empty, into c.CFG
// and lays the command line flags over it.
func Load(c *Config) error {
	cfg := config.DefaultConfig()
	if c.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(c.ConfigFile); err != nil {
			return err
		}
	}

	if c.RekorURL != "" {
		cfg.RekorURL = c.RekorURL
	}
	if c.DBConfigFile != "" {
		cfg.DBConfig = c.DBConfigFile
	}
	if c.MigrationsDir != "" {
		cfg.MigrationsDir = c.MigrationsDir
	}
	if c.Lint {
		cfg.LintCertificates = true
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	if err := cfg.Valid(); err != nil {
		return err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	log.Debugf("using transparency log %s", cfg.RekorURL)
	c.CFG = cfg
	return nil
}

// ReadStdin reads from stdin if the file is "-"
func ReadStdin(filename string) ([]byte, error) {
	if filename == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

// Output writes v to w in format, either "json" (the default) or
// "yaml". YAML output keeps the field order of the JSON encoding.
func Output(w io.Writer, v interface{}, format string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "json":
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case "yaml", "yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return err
		}
		blockStyle(&doc)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// blockStyle clears the flow and quoting styles a JSON document decodes
// with, so the encoder picks plain YAML styles.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
